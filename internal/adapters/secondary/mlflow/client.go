package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/config"
	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

const (
	apiPrefix           = "/api/2.0/mlflow/"
	artifactDownload    = "/get-artifact"
	artifactProxy       = "/api/2.0/mlflow-artifacts/artifacts/"
	proxiedScheme       = "mlflow-artifacts:"
	versionSearchPage   = 200
	experimentPageLimit = 1000
)

type client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a RunStore talking to a tracking server's REST API.
// Each invocation builds its own client; nothing is shared process-wide.
func NewClient(cfg *config.TrackingConfig) ports.RunStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &client{
		baseURL: strings.TrimSuffix(cfg.URI, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ============================================================================
// Experiments
// ============================================================================

func (c *client) CreateExperiment(ctx context.Context, name string) (string, error) {
	var resp createExperimentResponse
	if err := c.call(ctx, http.MethodPost, "experiments/create", nil, createExperimentRequest{Name: name}, &resp); err != nil {
		return "", fmt.Errorf("create experiment: %w", err)
	}
	return resp.ExperimentID, nil
}

func (c *client) GetExperimentByName(ctx context.Context, name string) (*domain.Experiment, error) {
	var resp getExperimentResponse
	q := url.Values{"experiment_name": {name}}
	if err := c.call(ctx, http.MethodGet, "experiments/get-by-name", q, nil, &resp); err != nil {
		if isDoesNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get experiment by name: %w", err)
	}
	return toExperiment(resp.Experiment), nil
}

func (c *client) SearchExperiments(ctx context.Context) ([]*domain.Experiment, error) {
	var out []*domain.Experiment
	req := searchExperimentsRequest{MaxResults: experimentPageLimit, ViewType: "ACTIVE_ONLY"}
	for {
		var resp searchExperimentsResponse
		if err := c.call(ctx, http.MethodPost, "experiments/search", nil, req, &resp); err != nil {
			return nil, fmt.Errorf("search experiments: %w", err)
		}
		for _, e := range resp.Experiments {
			out = append(out, toExperiment(e))
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		req.PageToken = resp.NextPageToken
	}
}

// ============================================================================
// Runs
// ============================================================================

func (c *client) SearchRuns(ctx context.Context, search ports.RunSearch) ([]*domain.Run, error) {
	req := searchRunsRequest{
		ExperimentIDs: search.ExperimentIDs,
		Filter:        search.Filter,
		RunViewType:   "ACTIVE_ONLY",
		MaxResults:    search.MaxResults,
		OrderBy:       search.OrderBy,
	}
	var resp searchRunsResponse
	if err := c.call(ctx, http.MethodPost, "runs/search", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("search runs: %w", err)
	}

	runs := make([]*domain.Run, 0, len(resp.Runs))
	for _, r := range resp.Runs {
		runs = append(runs, toRun(r))
	}
	return runs, nil
}

func (c *client) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	var resp getRunResponse
	if err := c.call(ctx, http.MethodGet, "runs/get", url.Values{"run_id": {runID}}, nil, &resp); err != nil {
		return nil, mapNotFound(fmt.Errorf("get run %s: %w", runID, err), domain.ErrRunNotFound)
	}
	return toRun(resp.Run), nil
}

// ============================================================================
// Artifacts
// ============================================================================

func (c *client) ListArtifacts(ctx context.Context, runID, path string) ([]domain.Artifact, error) {
	q := url.Values{"run_id": {runID}}
	if path != "" {
		q.Set("path", path)
	}
	var resp listArtifactsResponse
	if err := c.call(ctx, http.MethodGet, "artifacts/list", q, nil, &resp); err != nil {
		return nil, mapNotFound(fmt.Errorf("list artifacts: %w", err), domain.ErrRunNotFound)
	}

	artifacts := make([]domain.Artifact, 0, len(resp.Files))
	for _, f := range resp.Files {
		artifacts = append(artifacts, domain.Artifact{Path: f.Path, IsDir: f.IsDir, FileSize: f.FileSize})
	}
	return artifacts, nil
}

func (c *client) DownloadArtifact(ctx context.Context, runID, path string) ([]byte, error) {
	q := url.Values{"path": {path}, "run_uuid": {runID}}
	endpoint := c.baseURL + artifactDownload + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create artifact request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrArtifactNotFound)
	}
	if resp.StatusCode >= 400 {
		err := decodeError(resp)
		return nil, mapNotFound(fmt.Errorf("download %s: %w", path, err), domain.ErrArtifactNotFound)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.StoreUnreachableError{Endpoint: c.baseURL, Err: err}
	}
	return data, nil
}

// LogArtifact uploads data under the run's artifact root through the
// tracking server's artifact proxy. Runs whose artifacts live outside the
// proxy cannot be written to from here.
func (c *client) LogArtifact(ctx context.Context, runID, path string, data []byte) error {
	run, err := c.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	root, err := proxiedRoot(run.ArtifactURI)
	if err != nil {
		return fmt.Errorf("log artifact %s to run %s: %w", path, runID, err)
	}

	endpoint := c.baseURL + artifactProxy + escapeSegments(root+"/"+strings.TrimPrefix(path, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create artifact upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("upload %s: %w", path, decodeError(resp))
	}
	return nil
}

// proxiedRoot strips the mlflow-artifacts scheme (and optional authority)
// from a run's artifact URI.
func proxiedRoot(artifactURI string) (string, error) {
	if !strings.HasPrefix(artifactURI, proxiedScheme) {
		return "", fmt.Errorf("artifact root %q is not served by the tracking server", artifactURI)
	}
	rest := strings.TrimPrefix(artifactURI, proxiedScheme)
	if strings.HasPrefix(rest, "//") {
		rest = strings.TrimPrefix(rest, "//")
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[i:]
		} else {
			rest = ""
		}
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", fmt.Errorf("artifact root %q has no path", artifactURI)
	}
	return rest, nil
}

func escapeSegments(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// ============================================================================
// Registry
// ============================================================================

func (c *client) CreateRegisteredModel(ctx context.Context, name string) (*domain.RegisteredModel, error) {
	var resp registeredModelResponse
	if err := c.call(ctx, http.MethodPost, "registered-models/create", nil, registeredModelRequest{Name: name}, &resp); err != nil {
		return nil, fmt.Errorf("create registered model: %w", err)
	}
	return toRegisteredModel(resp.RegisteredModel), nil
}

func (c *client) GetRegisteredModel(ctx context.Context, name string) (*domain.RegisteredModel, error) {
	var resp registeredModelResponse
	if err := c.call(ctx, http.MethodGet, "registered-models/get", url.Values{"name": {name}}, nil, &resp); err != nil {
		return nil, mapNotFound(fmt.Errorf("get registered model %q: %w", name, err), domain.ErrModelNotFound)
	}
	return toRegisteredModel(resp.RegisteredModel), nil
}

func (c *client) CreateModelVersion(ctx context.Context, name, source, runID string) (*domain.ModelVersion, error) {
	req := createModelVersionRequest{Name: name, Source: source, RunID: runID}
	var resp modelVersionResponse
	if err := c.call(ctx, http.MethodPost, "model-versions/create", nil, req, &resp); err != nil {
		return nil, mapNotFound(fmt.Errorf("create model version: %w", err), domain.ErrModelNotFound)
	}
	return toModelVersion(resp.ModelVersion), nil
}

func (c *client) GetModelVersion(ctx context.Context, name, version string) (*domain.ModelVersion, error) {
	var resp modelVersionResponse
	q := url.Values{"name": {name}, "version": {version}}
	if err := c.call(ctx, http.MethodGet, "model-versions/get", q, nil, &resp); err != nil {
		return nil, mapNotFound(fmt.Errorf("get version %s of %q: %w", version, name, err), domain.ErrVersionNotFound)
	}
	return toModelVersion(resp.ModelVersion), nil
}

func (c *client) SearchModelVersions(ctx context.Context, name string) ([]*domain.ModelVersion, error) {
	q := url.Values{
		"filter":      {fmt.Sprintf("name='%s'", strings.ReplaceAll(name, "'", "\\'"))},
		"max_results": {fmt.Sprint(versionSearchPage)},
	}

	var out []*domain.ModelVersion
	for {
		var resp searchModelVersionsResponse
		if err := c.call(ctx, http.MethodGet, "model-versions/search", q, nil, &resp); err != nil {
			return nil, fmt.Errorf("search model versions: %w", err)
		}
		for _, v := range resp.ModelVersions {
			out = append(out, toModelVersion(v))
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		q.Set("page_token", resp.NextPageToken)
	}
}

// ============================================================================
// Tags
// ============================================================================

func (c *client) SetRegisteredModelTag(ctx context.Context, name, key, value string) error {
	req := setTagRequest{Name: name, Key: key, Value: value}
	if err := c.call(ctx, http.MethodPost, "registered-models/set-tag", nil, req, nil); err != nil {
		return mapNotFound(fmt.Errorf("set registered model tag: %w", err), domain.ErrModelNotFound)
	}
	return nil
}

func (c *client) DeleteRegisteredModelTag(ctx context.Context, name, key string) error {
	req := setTagRequest{Name: name, Key: key}
	if err := c.call(ctx, http.MethodDelete, "registered-models/delete-tag", nil, req, nil); err != nil {
		return mapNotFound(fmt.Errorf("delete registered model tag: %w", err), domain.ErrModelNotFound)
	}
	return nil
}

func (c *client) SetModelVersionTag(ctx context.Context, name, version, key, value string) error {
	req := setTagRequest{Name: name, Version: version, Key: key, Value: value}
	if err := c.call(ctx, http.MethodPost, "model-versions/set-tag", nil, req, nil); err != nil {
		return mapNotFound(fmt.Errorf("set model version tag: %w", err), domain.ErrVersionNotFound)
	}
	return nil
}

func (c *client) DeleteModelVersionTag(ctx context.Context, name, version, key string) error {
	req := setTagRequest{Name: name, Version: version, Key: key}
	if err := c.call(ctx, http.MethodDelete, "model-versions/delete-tag", nil, req, nil); err != nil {
		return mapNotFound(fmt.Errorf("delete model version tag: %w", err), domain.ErrVersionNotFound)
	}
	return nil
}

// ============================================================================
// Transport
// ============================================================================

// call sends one REST request. GET requests carry the query; other
// methods carry body as JSON.
func (c *client) call(ctx context.Context, method, endpoint string, query url.Values, body, out interface{}) error {
	reqURL := c.baseURL + apiPrefix + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// do executes the request and folds transport failures and gateway errors
// into StoreUnreachableError.
func (c *client) do(req *http.Request) (*http.Response, error) {
	log.WithFields(log.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}).Debug("tracking server request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.StoreUnreachableError{Endpoint: c.baseURL, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		resp.Body.Close()
		return nil, &domain.StoreUnreachableError{
			Endpoint: c.baseURL,
			Err:      fmt.Errorf("gateway status %d", resp.StatusCode),
		}
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	storeErr := &domain.StoreError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.ErrorCode != "" {
		storeErr.Code = apiErr.ErrorCode
		storeErr.Message = apiErr.Message
	} else {
		storeErr.Message = strings.TrimSpace(string(raw))
	}
	if storeErr.Code == "" && resp.StatusCode == http.StatusNotFound {
		storeErr.Code = domain.CodeResourceDoesNotExist
	}
	return storeErr
}

func isDoesNotExist(err error) bool {
	var storeErr *domain.StoreError
	return errors.As(err, &storeErr) && storeErr.Code == domain.CodeResourceDoesNotExist
}

// mapNotFound turns RESOURCE_DOES_NOT_EXIST into the given sentinel so
// callers can test with errors.Is.
func mapNotFound(err error, sentinel error) error {
	if isDoesNotExist(err) {
		return fmt.Errorf("%w: %w", err, sentinel)
	}
	return err
}

// Ensure interface compliance
var _ ports.RunStore = (*client)(nil)
