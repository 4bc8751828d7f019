package domain

import "strings"

// LifecycleStage is the soft-delete marker of experiments and runs.
type LifecycleStage string

const (
	LifecycleActive  LifecycleStage = "active"
	LifecycleDeleted LifecycleStage = "deleted"
)

// IsValid checks if the stage is valid
func (s LifecycleStage) IsValid() bool {
	return s == LifecycleActive || s == LifecycleDeleted
}

type Experiment struct {
	ID               string         `json:"experiment_id"`
	Name             string         `json:"name"`
	LifecycleStage   LifecycleStage `json:"lifecycle_stage"`
	ArtifactLocation string         `json:"artifact_location,omitempty"`
}

func (e *Experiment) IsDeleted() bool {
	return strings.EqualFold(string(e.LifecycleStage), string(LifecycleDeleted))
}
