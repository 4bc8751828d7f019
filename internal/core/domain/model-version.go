package domain

import (
	"strconv"
	"time"
)

type VersionStatus string

const (
	VersionStatusPending VersionStatus = "PENDING_REGISTRATION"
	VersionStatusFailed  VersionStatus = "FAILED_REGISTRATION"
	VersionStatusReady   VersionStatus = "READY"
)

// Registry stages. New versions start in StageNone.
const (
	StageNone       = "None"
	StageStaging    = "Staging"
	StageProduction = "Production"
	StageArchived   = "Archived"
)

type RegisteredModel struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Tags        map[string]string `json:"tags"`
}

// ModelVersion is a registry entry pointing at an artifact. Version numbers
// are assigned by the store and never reused.
type ModelVersion struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Source    string            `json:"source"`
	RunID     string            `json:"run_id"`
	Stage     string            `json:"current_stage"`
	Status    VersionStatus     `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	Tags      map[string]string `json:"tags"`
}

// Number parses the version for ordering; non-numeric versions yield 0.
func (v *ModelVersion) Number() int {
	n, err := strconv.Atoi(v.Version)
	if err != nil {
		return 0
	}
	return n
}

// URI is the registry address of this version.
func (v *ModelVersion) URI() string {
	return ModelsURI(v.Name, v.Version)
}

// TagScope separates name-level from version-level tags.
type TagScope string

const (
	TagScopeModel   TagScope = "model"
	TagScopeVersion TagScope = "version"
)

// TagTarget addresses one tag namespace. An empty Version selects the
// registered model itself.
type TagTarget struct {
	ModelName string
	Version   string
}

func (t TagTarget) Scope() TagScope {
	if t.Version == "" {
		return TagScopeModel
	}
	return TagScopeVersion
}

// RegistrationEvent is the ledger record of one successful registration.
type RegistrationEvent struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	ModelName   string            `json:"model_name"`
	Version     string            `json:"version"`
	ModelURI    string            `json:"model_uri"`
	Source      string            `json:"source"`
	RunID       string            `json:"run_id"`
	ModelTags   map[string]string `json:"model_tags"`
	VersionTags map[string]string `json:"version_tags"`
}
