package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mlflow-registry-workflow/internal/config"
	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
	"mlflow-registry-workflow/internal/testutil"
)

func resetFlags() {
	trackingURI, logLevel = "", ""
	bestRunExperiment, bestRunStrategy, bestRunMetric, bestRunParent = "", string(domain.StrategyScoreOrdered), domain.DefaultSelectionMetric, ""
	bestRunHyperparameters, bestRunLogSummary = nil, false
	registerExperiment, registerModelName, registerRunID, registerArtifactPath = "", "", "", ""
	registerTags, registerVersionTags, registerManageTags = "", "", false
	tagsModelName, tagsVersion = "", ""
	serveModelName, serveVersion, servePort, serveHost, serveEnvManager, serveTarget = "", "", 0, "", "", ""
	registrationsModelName, registrationsLimit = "", 20
}

func runCLI(t *testing.T, store ports.RunStore, input string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	resetFlags()

	prev := newRunStore
	newRunStore = func(*config.Config) ports.RunStore { return store }
	t.Cleanup(func() { newRunStore = prev })

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func expectLatestRun(store *testutil.MockRunStore, runID string) {
	store.On("GetExperimentByName", mock.Anything, "apples_demand").
		Return(&domain.Experiment{ID: "3", Name: "apples_demand"}, nil)
	store.On("SearchRuns", mock.Anything, ports.RunSearch{
		ExperimentIDs: []string{"3"},
		Filter:        "status = 'FINISHED'",
		OrderBy:       []string{"start_time DESC"},
		MaxResults:    1,
	}).Return([]*domain.Run{{ID: runID}}, nil)
	store.On("GetRun", mock.Anything, runID).
		Return(&domain.Run{ID: runID, ArtifactURI: "mlflow-artifacts:/3/" + runID + "/artifacts"}, nil)
}

func TestExperimentEnsure(t *testing.T) {
	store := new(testutil.MockRunStore)
	store.On("GetExperimentByName", mock.Anything, "apples_demand").Return(nil, nil)
	store.On("CreateExperiment", mock.Anything, "apples_demand").Return("4", nil)

	out, err := runCLI(t, store, "", "experiment", "ensure", "apples_demand")
	require.NoError(t, err)
	assert.Contains(t, out, "Experiment: apples_demand (ID: 4)")
}

func TestRegister_LatestRunSingleDirectory(t *testing.T) {
	store := new(testutil.MockRunStore)
	expectLatestRun(store, "r9")
	store.On("ListArtifacts", mock.Anything, "r9", "").Return([]domain.Artifact{{Path: "rf_apples", IsDir: true}}, nil)
	store.On("ListArtifacts", mock.Anything, "r9", "rf_apples").Return([]domain.Artifact{{Path: "rf_apples/MLmodel"}}, nil)
	store.On("CreateRegisteredModel", mock.Anything, "rf_apples").Return(&domain.RegisteredModel{Name: "rf_apples"}, nil)
	store.On("CreateModelVersion", mock.Anything, "rf_apples", "mlflow-artifacts:/3/r9/artifacts/rf_apples", "r9").
		Return(&domain.ModelVersion{Name: "rf_apples", Version: "1"}, nil)
	store.On("SetRegisteredModelTag", mock.Anything, "rf_apples", "team", "forecast").Return(nil)

	out, err := runCLI(t, store, "",
		"register", "--experiment", "apples_demand", "--model-name", "rf_apples", "--tags", "team=forecast")
	require.NoError(t, err)

	assert.Contains(t, out, "Found latest run ID: r9")
	assert.Contains(t, out, "1. rf_apples (dir)")
	assert.Contains(t, out, "Registering model from: runs:/r9/rf_apples")
	assert.Contains(t, out, "Model registered with version: 1")
	store.AssertExpectations(t)
}

func TestRegister_PromptsForDirectory(t *testing.T) {
	store := new(testutil.MockRunStore)
	expectLatestRun(store, "r9")
	store.On("ListArtifacts", mock.Anything, "r9", "").Return([]domain.Artifact{
		{Path: "rf_apples", IsDir: true},
		{Path: "rf_pears", IsDir: true},
	}, nil)
	store.On("ListArtifacts", mock.Anything, "r9", mock.Anything).Return([]domain.Artifact{}, nil)
	store.On("CreateRegisteredModel", mock.Anything, "rf_pears").Return(&domain.RegisteredModel{Name: "rf_pears"}, nil)
	store.On("CreateModelVersion", mock.Anything, "rf_pears", "mlflow-artifacts:/3/r9/artifacts/rf_pears", "r9").
		Return(&domain.ModelVersion{Name: "rf_pears", Version: "3"}, nil)

	out, err := runCLI(t, store, "x\n2\n",
		"register", "--experiment", "apples_demand", "--model-name", "rf_pears")
	require.NoError(t, err)

	assert.Contains(t, out, "Invalid choice")
	assert.Contains(t, out, "Model registered with version: 3")
}

func TestRegister_BadTags(t *testing.T) {
	_, err := runCLI(t, new(testutil.MockRunStore), "",
		"register", "--experiment", "apples_demand", "--model-name", "m", "--tags", "novalue")
	assert.ErrorIs(t, err, domain.ErrInvalidTag)
}

func TestBestRun_InvalidStrategy(t *testing.T) {
	_, err := runCLI(t, new(testutil.MockRunStore), "",
		"best-run", "--experiment", "apples_demand", "--strategy", "random")
	assert.ErrorIs(t, err, domain.ErrInvalidStrategy)
}

func TestBestRun_LogSummaryToParent(t *testing.T) {
	store := new(testutil.MockRunStore)
	store.On("GetExperimentByName", mock.Anything, "RandomizedSearchCV_Random_Forest").
		Return(&domain.Experiment{ID: "7", Name: "RandomizedSearchCV_Random_Forest"}, nil)
	store.On("SearchRuns", mock.Anything, ports.RunSearch{
		ExperimentIDs: []string{"7"},
		Filter:        "tags.mlflow.parentRunId = 'p1'",
		MaxResults:    50,
	}).Return([]*domain.Run{
		{ID: "c1", Params: map[string]string{"n_estimators": "120"}, Tags: map[string]string{domain.TagParentRunID: "p1"}},
	}, nil)
	store.On("GetRun", mock.Anything, "p1").
		Return(&domain.Run{ID: "p1", Params: map[string]string{"best_n_estimators": "120"}}, nil)
	store.On("LogArtifact", mock.Anything, "p1", "summary_tag-matched.txt", mock.AnythingOfType("[]uint8")).Return(nil)

	out, err := runCLI(t, store, "",
		"best-run", "--experiment", "RandomizedSearchCV_Random_Forest", "--strategy", "tag-matched",
		"--parent-run", "p1", "--log-summary")
	require.NoError(t, err)

	assert.Contains(t, out, "Trials Summary:")
	assert.Contains(t, out, "Summary logged to run p1")
	store.AssertCalled(t, "LogArtifact", mock.Anything, "p1", "summary_tag-matched.txt", mock.Anything)
}

func TestRegistrations_WithoutDatabase(t *testing.T) {
	_, err := runCLI(t, new(testutil.MockRunStore), "", "registrations")
	assert.ErrorIs(t, err, domain.ErrLedgerNotConfigured)
}

func TestServe_ExplicitVersion(t *testing.T) {
	t.Setenv("SERVE_PROGRAM", "true")
	store := new(testutil.MockRunStore)
	store.On("SearchModelVersions", mock.Anything, "rf_apples").Return([]*domain.ModelVersion{
		{Name: "rf_apples", Version: "1"},
		{Name: "rf_apples", Version: "2"},
	}, nil)

	out, err := runCLI(t, store, "", "serve", "--model-name", "rf_apples", "--version", "2", "--port", "5002")
	require.NoError(t, err)
	assert.Contains(t, out, "Serving model rf_apples on port 5002")
}

func TestServe_MissingVersion(t *testing.T) {
	t.Setenv("SERVE_PROGRAM", "true")
	store := new(testutil.MockRunStore)
	store.On("SearchModelVersions", mock.Anything, "rf_apples").Return([]*domain.ModelVersion{
		{Name: "rf_apples", Version: "1"},
	}, nil)

	_, err := runCLI(t, store, "", "serve", "--model-name", "rf_apples", "--version", "7")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
