package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mlflow-registry-workflow/internal/core/domain"
	"mlflow-registry-workflow/internal/testutil"
)

func newEnvironmentService(store *testutil.MockRunStore) *EnvironmentService {
	selector := NewSearchSelector(store)
	return NewEnvironmentService(store, NewExperimentService(store), selector, NewArtifactResolver(store))
}

func expectRunLookup(store *testutil.MockRunStore) {
	store.On("GetExperimentByName", mock.Anything, "Apple_Models").
		Return(&domain.Experiment{ID: "4", Name: "Apple_Models"}, nil)
	store.On("SearchRuns", mock.Anything, mock.AnythingOfType("ports.RunSearch")).
		Return([]*domain.Run{{ID: "r1"}}, nil)
}

func TestEnvironmentService_Fetch(t *testing.T) {
	store := new(testutil.MockRunStore)
	svc := newEnvironmentService(store)
	expectRunLookup(store)

	store.On("DownloadArtifact", mock.Anything, "r1", "rf_apples/python_env.yaml").Return([]byte("python: 3.11\n"), nil)
	store.On("DownloadArtifact", mock.Anything, "r1", "rf_apples/conda.yaml").Return(nil, domain.ErrArtifactNotFound)
	store.On("DownloadArtifact", mock.Anything, "r1", "rf_apples/requirements.txt").Return([]byte("scikit-learn==1.5.0\n"), nil)

	out := t.TempDir()
	result, err := svc.Fetch(context.Background(), EnvFetchRequest{
		ExperimentName: "Apple_Models",
		RunName:        "first_run",
		ModelDir:       "rf_apples",
		OutputDir:      out,
	}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Files, 2)

	data, err := os.ReadFile(filepath.Join(out, RequirementsFile))
	require.NoError(t, err)
	assert.Equal(t, "scikit-learn==1.5.0\n", string(data))

	_, err = os.Stat(filepath.Join(out, CondaEnvFile))
	assert.True(t, os.IsNotExist(err))
}

func TestEnvironmentService_ResolvesModelDir(t *testing.T) {
	store := new(testutil.MockRunStore)
	svc := newEnvironmentService(store)
	expectRunLookup(store)

	store.On("ListArtifacts", mock.Anything, "r1", "").Return([]domain.Artifact{{Path: "model", IsDir: true}}, nil)
	store.On("ListArtifacts", mock.Anything, "r1", "model").Return([]domain.Artifact{{Path: "model/MLmodel"}}, nil)
	store.On("DownloadArtifact", mock.Anything, "r1", "model/python_env.yaml").Return(nil, domain.ErrArtifactNotFound)
	store.On("DownloadArtifact", mock.Anything, "r1", "model/conda.yaml").Return([]byte("name: env\n"), nil)
	store.On("DownloadArtifact", mock.Anything, "r1", "model/requirements.txt").Return([]byte("numpy\n"), nil)

	result, err := svc.Fetch(context.Background(), EnvFetchRequest{
		ExperimentName: "Apple_Models",
		RunName:        "first_run",
		OutputDir:      t.TempDir(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "model", result.ModelDir)
}

func TestEnvironmentService_RequirementsMandatory(t *testing.T) {
	store := new(testutil.MockRunStore)
	svc := newEnvironmentService(store)
	expectRunLookup(store)

	store.On("DownloadArtifact", mock.Anything, "r1", "m/python_env.yaml").Return([]byte("x"), nil)
	store.On("DownloadArtifact", mock.Anything, "r1", "m/conda.yaml").Return([]byte("x"), nil)
	store.On("DownloadArtifact", mock.Anything, "r1", "m/requirements.txt").Return(nil, domain.ErrArtifactNotFound)

	_, err := svc.Fetch(context.Background(), EnvFetchRequest{
		ExperimentName: "Apple_Models",
		RunName:        "first_run",
		ModelDir:       "m",
		OutputDir:      t.TempDir(),
	}, nil)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestEnvironmentService_NoEnvFile(t *testing.T) {
	store := new(testutil.MockRunStore)
	svc := newEnvironmentService(store)
	expectRunLookup(store)

	store.On("DownloadArtifact", mock.Anything, "r1", "m/python_env.yaml").Return(nil, domain.ErrArtifactNotFound)
	store.On("DownloadArtifact", mock.Anything, "r1", "m/conda.yaml").Return(nil, domain.ErrArtifactNotFound)
	store.On("DownloadArtifact", mock.Anything, "r1", "m/requirements.txt").Return([]byte("numpy\n"), nil)

	_, err := svc.Fetch(context.Background(), EnvFetchRequest{
		ExperimentName: "Apple_Models",
		RunName:        "first_run",
		ModelDir:       "m",
		OutputDir:      t.TempDir(),
	}, nil)
	assert.ErrorIs(t, err, domain.ErrMissingEnvFile)
}
