package domain

import "time"

type RunStatus string

const (
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusFinished RunStatus = "FINISHED"
	RunStatusFailed   RunStatus = "FAILED"
	RunStatusKilled   RunStatus = "KILLED"
)

// Tag keys the tracking server sets on runs.
const (
	TagRunName     = "mlflow.runName"
	TagParentRunID = "mlflow.parentRunId"
)

// BestParamPrefix marks the params a sweep parent logs for the winning trial.
const BestParamPrefix = "best_"

// Run is one recorded training execution. Child runs of a sweep point to
// their parent through the mlflow.parentRunId tag.
type Run struct {
	ID           string             `json:"run_id"`
	ExperimentID string             `json:"experiment_id"`
	Name         string             `json:"run_name"`
	Status       RunStatus          `json:"status"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	ArtifactURI  string             `json:"artifact_uri"`
	Params       map[string]string  `json:"params"`
	Metrics      map[string]float64 `json:"metrics"`
	Tags         map[string]string  `json:"tags"`
}

// ParentRunID returns the sweep parent, or "" for top-level runs.
func (r *Run) ParentRunID() string {
	if r.Tags == nil {
		return ""
	}
	return r.Tags[TagParentRunID]
}

// DisplayName prefers the run name tag over the info field.
func (r *Run) DisplayName() string {
	if name := r.Tags[TagRunName]; name != "" {
		return name
	}
	return r.Name
}

// BestParam returns the parent's best_<name> param.
func (r *Run) BestParam(name string) (string, bool) {
	v, ok := r.Params[BestParamPrefix+name]
	return v, ok
}
