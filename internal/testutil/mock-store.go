package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

// MockRunStore is a mock of RunStore.
type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) CreateExperiment(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockRunStore) GetExperimentByName(ctx context.Context, name string) (*domain.Experiment, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Experiment), args.Error(1)
}

func (m *MockRunStore) SearchExperiments(ctx context.Context) ([]*domain.Experiment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Experiment), args.Error(1)
}

func (m *MockRunStore) SearchRuns(ctx context.Context, search ports.RunSearch) ([]*domain.Run, error) {
	args := m.Called(ctx, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Run), args.Error(1)
}

func (m *MockRunStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockRunStore) ListArtifacts(ctx context.Context, runID, path string) ([]domain.Artifact, error) {
	args := m.Called(ctx, runID, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Artifact), args.Error(1)
}

func (m *MockRunStore) DownloadArtifact(ctx context.Context, runID, path string) ([]byte, error) {
	args := m.Called(ctx, runID, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRunStore) LogArtifact(ctx context.Context, runID, path string, data []byte) error {
	args := m.Called(ctx, runID, path, data)
	return args.Error(0)
}

func (m *MockRunStore) CreateRegisteredModel(ctx context.Context, name string) (*domain.RegisteredModel, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegisteredModel), args.Error(1)
}

func (m *MockRunStore) GetRegisteredModel(ctx context.Context, name string) (*domain.RegisteredModel, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegisteredModel), args.Error(1)
}

func (m *MockRunStore) CreateModelVersion(ctx context.Context, name, source, runID string) (*domain.ModelVersion, error) {
	args := m.Called(ctx, name, source, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersion), args.Error(1)
}

func (m *MockRunStore) GetModelVersion(ctx context.Context, name, version string) (*domain.ModelVersion, error) {
	args := m.Called(ctx, name, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersion), args.Error(1)
}

func (m *MockRunStore) SearchModelVersions(ctx context.Context, name string) ([]*domain.ModelVersion, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ModelVersion), args.Error(1)
}

func (m *MockRunStore) SetRegisteredModelTag(ctx context.Context, name, key, value string) error {
	args := m.Called(ctx, name, key, value)
	return args.Error(0)
}

func (m *MockRunStore) DeleteRegisteredModelTag(ctx context.Context, name, key string) error {
	args := m.Called(ctx, name, key)
	return args.Error(0)
}

func (m *MockRunStore) SetModelVersionTag(ctx context.Context, name, version, key, value string) error {
	args := m.Called(ctx, name, version, key, value)
	return args.Error(0)
}

func (m *MockRunStore) DeleteModelVersionTag(ctx context.Context, name, version, key string) error {
	args := m.Called(ctx, name, version, key)
	return args.Error(0)
}

// MockLedger is a mock of RegistrationLedger.
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Record(ctx context.Context, event *domain.RegistrationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockLedger) List(ctx context.Context, filter ports.RegistrationFilter) ([]*domain.RegistrationEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RegistrationEvent), args.Error(1)
}

// MockModelServer is a mock of ModelServer.
type MockModelServer struct {
	mock.Mock
}

func (m *MockModelServer) Serve(ctx context.Context, spec domain.ServeSpec) error {
	args := m.Called(ctx, spec)
	return args.Error(0)
}

// MockInferenceCluster is a mock of InferenceCluster.
type MockInferenceCluster struct {
	mock.Mock
}

func (m *MockInferenceCluster) Deploy(ctx context.Context, namespace string, spec domain.ServeSpec) (*ports.InferenceDeployment, error) {
	args := m.Called(ctx, namespace, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.InferenceDeployment), args.Error(1)
}

func (m *MockInferenceCluster) Undeploy(ctx context.Context, namespace, name string) error {
	args := m.Called(ctx, namespace, name)
	return args.Error(0)
}

func (m *MockInferenceCluster) GetStatus(ctx context.Context, namespace, name string) (*ports.InferenceStatus, error) {
	args := m.Called(ctx, namespace, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.InferenceStatus), args.Error(1)
}

func (m *MockInferenceCluster) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}
