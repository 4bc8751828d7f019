package mlflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlflow-registry-workflow/internal/config"
	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
	"mlflow-registry-workflow/internal/core/services"
)

// fakeTracking is an in-memory tracking server covering the endpoints the
// client uses.
type fakeTracking struct {
	mu          sync.Mutex
	experiments map[string]experiment
	runs        map[string]run
	artifacts   map[string][]fileInfo
	files       map[string]string
	models      map[string]*registeredModel
	versions    map[string][]*modelVersion
	lastSearch  searchRunsRequest
}

func newFakeTracking() *fakeTracking {
	return &fakeTracking{
		experiments: map[string]experiment{},
		runs:        map[string]run{},
		artifacts:   map[string][]fileInfo{},
		files:       map[string]string{},
		models:      map[string]*registeredModel{},
		versions:    map[string][]*modelVersion{},
	}
}

func (f *fakeTracking) handler() http.Handler {
	mux := http.NewServeMux()
	api := func(p string, h http.HandlerFunc) { mux.HandleFunc(apiPrefix+p, h) }

	api("experiments/create", func(w http.ResponseWriter, r *http.Request) {
		var req createExperimentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		id := strconv.Itoa(len(f.experiments) + 1)
		f.experiments[req.Name] = experiment{ExperimentID: id, Name: req.Name, LifecycleStage: "active"}
		writeJSON(w, createExperimentResponse{ExperimentID: id})
	})
	api("experiments/get-by-name", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		e, ok := f.experiments[r.URL.Query().Get("experiment_name")]
		if !ok {
			writeError(w, http.StatusNotFound, domain.CodeResourceDoesNotExist, "no such experiment")
			return
		}
		writeJSON(w, getExperimentResponse{Experiment: e})
	})
	api("experiments/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var resp searchExperimentsResponse
		for _, e := range f.experiments {
			resp.Experiments = append(resp.Experiments, e)
		}
		writeJSON(w, resp)
	})
	api("runs/search", func(w http.ResponseWriter, r *http.Request) {
		var req searchRunsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastSearch = req
		var resp searchRunsResponse
		for _, run := range f.runs {
			resp.Runs = append(resp.Runs, run)
		}
		writeJSON(w, resp)
	})
	api("runs/get", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		run, ok := f.runs[r.URL.Query().Get("run_id")]
		if !ok {
			writeError(w, http.StatusNotFound, domain.CodeResourceDoesNotExist, "run not found")
			return
		}
		writeJSON(w, getRunResponse{Run: run})
	})
	api("artifacts/list", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		key := r.URL.Query().Get("run_id") + ":" + r.URL.Query().Get("path")
		writeJSON(w, listArtifactsResponse{Files: f.artifacts[key]})
	})
	api("registered-models/create", func(w http.ResponseWriter, r *http.Request) {
		var req registeredModelRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.models[req.Name]; ok {
			writeError(w, http.StatusBadRequest, domain.CodeResourceAlreadyExists, "model exists")
			return
		}
		m := &registeredModel{Name: req.Name, CreationTimestamp: 1700000000000}
		f.models[req.Name] = m
		writeJSON(w, registeredModelResponse{RegisteredModel: *m})
	})
	api("registered-models/get", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		m, ok := f.models[r.URL.Query().Get("name")]
		if !ok {
			writeError(w, http.StatusNotFound, domain.CodeResourceDoesNotExist, "model not found")
			return
		}
		writeJSON(w, registeredModelResponse{RegisteredModel: *m})
	})
	api("model-versions/create", func(w http.ResponseWriter, r *http.Request) {
		var req createModelVersionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.models[req.Name]; !ok {
			writeError(w, http.StatusNotFound, domain.CodeResourceDoesNotExist, "model not found")
			return
		}
		v := &modelVersion{
			Name:    req.Name,
			Version: strconv.Itoa(len(f.versions[req.Name]) + 1),
			Source:  req.Source,
			RunID:   req.RunID,
			Status:  "READY",
		}
		f.versions[req.Name] = append(f.versions[req.Name], v)
		writeJSON(w, modelVersionResponse{ModelVersion: *v})
	})
	api("model-versions/get", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		v := f.version(r.URL.Query().Get("name"), r.URL.Query().Get("version"))
		if v == nil {
			writeError(w, http.StatusNotFound, domain.CodeResourceDoesNotExist, "version not found")
			return
		}
		writeJSON(w, modelVersionResponse{ModelVersion: *v})
	})
	api("model-versions/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var resp searchModelVersionsResponse
		for _, vs := range f.versions {
			for _, v := range vs {
				if r.URL.Query().Get("filter") == "name='"+v.Name+"'" {
					resp.ModelVersions = append(resp.ModelVersions, *v)
				}
			}
		}
		writeJSON(w, resp)
	})
	api("registered-models/set-tag", func(w http.ResponseWriter, r *http.Request) {
		var req setTagRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		m, ok := f.models[req.Name]
		if !ok {
			writeError(w, http.StatusNotFound, domain.CodeResourceDoesNotExist, "model not found")
			return
		}
		m.Tags = upsertTag(m.Tags, req.Key, req.Value)
		writeJSON(w, struct{}{})
	})
	api("registered-models/delete-tag", func(w http.ResponseWriter, r *http.Request) {
		var req setTagRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		if m, ok := f.models[req.Name]; ok {
			m.Tags = removeTag(m.Tags, req.Key)
		}
		writeJSON(w, struct{}{})
	})
	api("model-versions/set-tag", func(w http.ResponseWriter, r *http.Request) {
		var req setTagRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		v := f.version(req.Name, req.Version)
		if v == nil {
			writeError(w, http.StatusNotFound, domain.CodeResourceDoesNotExist, "version not found")
			return
		}
		v.Tags = upsertTag(v.Tags, req.Key, req.Value)
		writeJSON(w, struct{}{})
	})
	api("model-versions/delete-tag", func(w http.ResponseWriter, r *http.Request) {
		var req setTagRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		if v := f.version(req.Name, req.Version); v != nil {
			v.Tags = removeTag(v.Tags, req.Key)
		}
		writeJSON(w, struct{}{})
	})
	mux.HandleFunc(artifactProxy, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		// <experiment>/<run>/artifacts/<path>
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, artifactProxy), "/", 4)
		if len(parts) < 4 || parts[2] != "artifacts" {
			writeError(w, http.StatusBadRequest, "INVALID_PARAMETER_VALUE", "bad artifact path")
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.files[parts[1]+":"+parts[3]] = string(body)
		writeJSON(w, struct{}{})
	})
	mux.HandleFunc(artifactDownload, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		body, ok := f.files[r.URL.Query().Get("run_uuid")+":"+r.URL.Query().Get("path")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	return mux
}

func (f *fakeTracking) version(name, version string) *modelVersion {
	for _, v := range f.versions[name] {
		if v.Version == version {
			return v
		}
	}
	return nil
}

func upsertTag(tags []keyValue, key, value string) []keyValue {
	for i := range tags {
		if tags[i].Key == key {
			tags[i].Value = value
			return tags
		}
	}
	return append(tags, keyValue{Key: key, Value: value})
}

func removeTag(tags []keyValue, key string) []keyValue {
	out := tags[:0]
	for _, t := range tags {
		if t.Key != key {
			out = append(out, t)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{ErrorCode: code, Message: msg})
}

func setupClient(t *testing.T) (*fakeTracking, ports.RunStore) {
	t.Helper()
	fake := newFakeTracking()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return fake, NewClient(&config.TrackingConfig{URI: srv.URL + "/", Timeout: 5 * time.Second})
}

func TestClient_Experiments(t *testing.T) {
	_, store := setupClient(t)
	ctx := context.Background()

	missing, err := store.GetExperimentByName(ctx, "apples_demand")
	require.NoError(t, err)
	assert.Nil(t, missing)

	id, err := store.CreateExperiment(ctx, "apples_demand")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	exp, err := store.GetExperimentByName(ctx, "apples_demand")
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.Equal(t, id, exp.ID)
	assert.False(t, exp.IsDeleted())

	all, err := store.SearchExperiments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestClient_Runs(t *testing.T) {
	fake, store := setupClient(t)
	ctx := context.Background()

	fake.runs["r1"] = run{
		Info: runInfo{RunID: "r1", ExperimentID: "1", RunName: "sweep", Status: "FINISHED", StartTime: 1700000000000, ArtifactURI: "mlflow-artifacts:/1/r1/artifacts"},
		Data: runData{
			Metrics: []metric{{Key: "rmse", Value: 0.42}},
			Params:  []keyValue{{Key: "best_n_estimators", Value: "120"}},
			Tags:    []keyValue{{Key: domain.TagParentRunID, Value: "p1"}},
		},
	}

	runs, err := store.SearchRuns(ctx, ports.RunSearch{
		ExperimentIDs: []string{"1"},
		OrderBy:       []string{"metrics.rmse ASC"},
		MaxResults:    1,
	})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	fake.mu.Lock()
	assert.Equal(t, []string{"metrics.rmse ASC"}, fake.lastSearch.OrderBy)
	assert.Equal(t, 1, fake.lastSearch.MaxResults)
	fake.mu.Unlock()

	r := runs[0]
	assert.Equal(t, 0.42, r.Metrics["rmse"])
	assert.Equal(t, "p1", r.ParentRunID())
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), r.StartTime)
	assert.True(t, r.EndTime.IsZero())

	_, err = store.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_Artifacts(t *testing.T) {
	fake, store := setupClient(t)
	ctx := context.Background()

	fake.artifacts["r1:"] = []fileInfo{{Path: "rf_apples", IsDir: true}, {Path: "summary.txt", FileSize: 12}}
	fake.files["r1:rf_apples/requirements.txt"] = "scikit-learn==1.4.0\n"

	arts, err := store.ListArtifacts(ctx, "r1", "")
	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.True(t, arts[0].IsDir)
	assert.Equal(t, int64(12), arts[1].FileSize)

	data, err := store.DownloadArtifact(ctx, "r1", "rf_apples/requirements.txt")
	require.NoError(t, err)
	assert.Equal(t, "scikit-learn==1.4.0\n", string(data))

	_, err = store.DownloadArtifact(ctx, "r1", "rf_apples/conda.yaml")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestClient_LogArtifact(t *testing.T) {
	fake, store := setupClient(t)
	ctx := context.Background()

	fake.runs["p1"] = run{Info: runInfo{RunID: "p1", ExperimentID: "4", ArtifactURI: "mlflow-artifacts:/4/p1/artifacts"}}
	fake.runs["remote"] = run{Info: runInfo{RunID: "remote", ArtifactURI: "mlflow-artifacts://mlflow:5000/4/remote/artifacts"}}
	fake.runs["s3"] = run{Info: runInfo{RunID: "s3", ArtifactURI: "s3://bucket/4/s3/artifacts"}}

	summary := []byte("Random Forest Trials Summary:\n")
	require.NoError(t, store.LogArtifact(ctx, "p1", "summary_solution.txt", summary))
	assert.Equal(t, string(summary), fake.files["p1:summary_solution.txt"])

	data, err := store.DownloadArtifact(ctx, "p1", "summary_solution.txt")
	require.NoError(t, err)
	assert.Equal(t, summary, data)

	require.NoError(t, store.LogArtifact(ctx, "remote", "reports/summary.txt", summary))
	assert.Contains(t, fake.files, "remote:reports/summary.txt")

	err = store.LogArtifact(ctx, "s3", "summary.txt", summary)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not served by the tracking server")

	err = store.LogArtifact(ctx, "nope", "summary.txt", summary)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestProxiedRoot(t *testing.T) {
	root, err := proxiedRoot("mlflow-artifacts:/4/p1/artifacts")
	require.NoError(t, err)
	assert.Equal(t, "4/p1/artifacts", root)

	root, err = proxiedRoot("mlflow-artifacts://tracking:5000/4/p1/artifacts/")
	require.NoError(t, err)
	assert.Equal(t, "4/p1/artifacts", root)

	_, err = proxiedRoot("file:///tmp/mlruns/4/p1/artifacts")
	assert.Error(t, err)
	_, err = proxiedRoot("mlflow-artifacts://tracking:5000")
	assert.Error(t, err)
}

func TestClient_RegisterTwiceIncrementsVersion(t *testing.T) {
	fake, store := setupClient(t)
	fake.runs["r1"] = run{Info: runInfo{RunID: "r1", ArtifactURI: "mlflow-artifacts:/1/r1/artifacts"}}
	registrar := services.NewRegistrar(store, nil)
	ctx := context.Background()

	req := services.RegisterRequest{ModelURI: "runs:/r1/rf_apples", ModelName: "rf_apples"}
	first, err := registrar.Register(ctx, req)
	require.NoError(t, err)
	second, err := registrar.Register(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "1", first.Version)
	assert.Equal(t, "2", second.Version)
	assert.Equal(t, "mlflow-artifacts:/1/r1/artifacts/rf_apples", second.Source)

	versions, err := store.SearchModelVersions(ctx, "rf_apples")
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestClient_TagNamespacesAreDisjoint(t *testing.T) {
	_, store := setupClient(t)
	registrar := services.NewRegistrar(store, nil)
	tags := services.NewTagService(store)
	ctx := context.Background()

	_, err := registrar.Register(ctx, services.RegisterRequest{
		ModelURI:    "s3://models/rf_apples",
		ModelName:   "rf_apples",
		ModelTags:   map[string]string{"team": "forecast"},
		VersionTags: map[string]string{"validated": "true"},
	})
	require.NoError(t, err)

	modelTags, err := tags.List(ctx, domain.TagTarget{ModelName: "rf_apples"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"team": "forecast"}, modelTags)

	versionTags, err := tags.List(ctx, domain.TagTarget{ModelName: "rf_apples", Version: "1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"validated": "true"}, versionTags)

	require.NoError(t, tags.Delete(ctx, domain.TagTarget{ModelName: "rf_apples"}, "team"))
	modelTags, err = tags.List(ctx, domain.TagTarget{ModelName: "rf_apples"})
	require.NoError(t, err)
	assert.Empty(t, modelTags)

	versionTags, err = tags.List(ctx, domain.TagTarget{ModelName: "rf_apples", Version: "1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"validated": "true"}, versionTags)

	err = tags.Set(ctx, domain.TagTarget{ModelName: "rf_apples", Version: "9"}, "k", "v")
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}

func TestClient_UnreachableStore(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	store := NewClient(&config.TrackingConfig{URI: srv.URL, Timeout: time.Second})
	ctx := context.Background()

	_, err := store.GetExperimentByName(ctx, "apples_demand")
	assert.ErrorIs(t, err, domain.ErrUnreachableStore)

	_, err = store.SearchRuns(ctx, ports.RunSearch{ExperimentIDs: []string{"1"}})
	assert.ErrorIs(t, err, domain.ErrUnreachableStore)

	_, err = store.ListArtifacts(ctx, "r1", "")
	assert.ErrorIs(t, err, domain.ErrUnreachableStore)

	_, err = services.NewRegistrar(store, nil).Register(ctx, services.RegisterRequest{
		ModelURI:  "runs:/r1/model",
		ModelName: "rf_apples",
	})
	assert.ErrorIs(t, err, domain.ErrRegistration)
	assert.ErrorIs(t, err, domain.ErrUnreachableStore)
}

func TestClient_GatewayErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	store := NewClient(&config.TrackingConfig{URI: srv.URL})

	_, err := store.GetRun(context.Background(), "r1")
	assert.ErrorIs(t, err, domain.ErrUnreachableStore)
}

func TestClient_StoreErrorCarriesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidParameterValue, "bad filter")
	}))
	defer srv.Close()
	store := NewClient(&config.TrackingConfig{URI: srv.URL})

	_, err := store.SearchRuns(context.Background(), ports.RunSearch{Filter: "bogus"})
	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, domain.CodeInvalidParameterValue, storeErr.Code)
	assert.Equal(t, "bad filter", storeErr.Message)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
