package ports

import (
	"context"

	"mlflow-registry-workflow/internal/core/domain"
)

// RunSearch mirrors the tracking server's runs/search request.
type RunSearch struct {
	ExperimentIDs []string
	Filter        string
	OrderBy       []string
	MaxResults    int
}

// RunStore is the contract of the remote tracking and registry server.
// Implementations report transport failures as domain.StoreUnreachableError
// and missing resources with errors matching domain.ErrNotFound.
type RunStore interface {
	// Experiments
	CreateExperiment(ctx context.Context, name string) (string, error)
	// GetExperimentByName returns nil, nil when no experiment has the name.
	GetExperimentByName(ctx context.Context, name string) (*domain.Experiment, error)
	SearchExperiments(ctx context.Context) ([]*domain.Experiment, error)

	// Runs
	SearchRuns(ctx context.Context, search RunSearch) ([]*domain.Run, error)
	GetRun(ctx context.Context, runID string) (*domain.Run, error)

	// Artifacts
	ListArtifacts(ctx context.Context, runID, path string) ([]domain.Artifact, error)
	DownloadArtifact(ctx context.Context, runID, path string) ([]byte, error)
	LogArtifact(ctx context.Context, runID, path string, data []byte) error

	// Registry
	CreateRegisteredModel(ctx context.Context, name string) (*domain.RegisteredModel, error)
	GetRegisteredModel(ctx context.Context, name string) (*domain.RegisteredModel, error)
	CreateModelVersion(ctx context.Context, name, source, runID string) (*domain.ModelVersion, error)
	GetModelVersion(ctx context.Context, name, version string) (*domain.ModelVersion, error)
	SearchModelVersions(ctx context.Context, name string) ([]*domain.ModelVersion, error)

	// Tags
	SetRegisteredModelTag(ctx context.Context, name, key, value string) error
	DeleteRegisteredModelTag(ctx context.Context, name, key string) error
	SetModelVersionTag(ctx context.Context, name, version, key, value string) error
	DeleteModelVersionTag(ctx context.Context, name, version, key string) error
}

// RegistrationFilter narrows RegistrationLedger.List.
type RegistrationFilter struct {
	ModelName string
	Limit     int
}

// RegistrationLedger keeps an audit trail of registrations made through
// this tool.
type RegistrationLedger interface {
	Record(ctx context.Context, event *domain.RegistrationEvent) error
	List(ctx context.Context, filter RegistrationFilter) ([]*domain.RegistrationEvent, error)
}
