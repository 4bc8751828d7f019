package mlflow

import (
	"time"

	"mlflow-registry-workflow/internal/core/domain"
)

// Tracking server REST payloads.

type apiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type keyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type metric struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp,omitempty"`
	Step      int64   `json:"step,omitempty"`
}

type experiment struct {
	ExperimentID     string `json:"experiment_id"`
	Name             string `json:"name"`
	ArtifactLocation string `json:"artifact_location,omitempty"`
	LifecycleStage   string `json:"lifecycle_stage"`
}

type runInfo struct {
	RunID          string `json:"run_id"`
	RunName        string `json:"run_name,omitempty"`
	ExperimentID   string `json:"experiment_id"`
	Status         string `json:"status"`
	StartTime      int64  `json:"start_time,omitempty"`
	EndTime        int64  `json:"end_time,omitempty"`
	ArtifactURI    string `json:"artifact_uri,omitempty"`
	LifecycleStage string `json:"lifecycle_stage,omitempty"`
}

type runData struct {
	Metrics []metric   `json:"metrics,omitempty"`
	Params  []keyValue `json:"params,omitempty"`
	Tags    []keyValue `json:"tags,omitempty"`
}

type run struct {
	Info runInfo `json:"info"`
	Data runData `json:"data"`
}

type fileInfo struct {
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	FileSize int64  `json:"file_size,omitempty"`
}

type registeredModel struct {
	Name                 string         `json:"name"`
	CreationTimestamp    int64          `json:"creation_timestamp,omitempty"`
	LastUpdatedTimestamp int64          `json:"last_updated_timestamp,omitempty"`
	Description          string         `json:"description,omitempty"`
	Tags                 []keyValue     `json:"tags,omitempty"`
	LatestVersions       []modelVersion `json:"latest_versions,omitempty"`
}

type modelVersion struct {
	Name              string     `json:"name"`
	Version           string     `json:"version"`
	CreationTimestamp int64      `json:"creation_timestamp,omitempty"`
	CurrentStage      string     `json:"current_stage,omitempty"`
	Source            string     `json:"source,omitempty"`
	RunID             string     `json:"run_id,omitempty"`
	Status            string     `json:"status,omitempty"`
	Tags              []keyValue `json:"tags,omitempty"`
}

// Requests and responses

type createExperimentRequest struct {
	Name string `json:"name"`
}

type createExperimentResponse struct {
	ExperimentID string `json:"experiment_id"`
}

type getExperimentResponse struct {
	Experiment experiment `json:"experiment"`
}

type searchExperimentsRequest struct {
	MaxResults int64  `json:"max_results,omitempty"`
	ViewType   string `json:"view_type,omitempty"`
	PageToken  string `json:"page_token,omitempty"`
}

type searchExperimentsResponse struct {
	Experiments   []experiment `json:"experiments"`
	NextPageToken string       `json:"next_page_token,omitempty"`
}

type searchRunsRequest struct {
	ExperimentIDs []string `json:"experiment_ids"`
	Filter        string   `json:"filter,omitempty"`
	RunViewType   string   `json:"run_view_type,omitempty"`
	MaxResults    int      `json:"max_results,omitempty"`
	OrderBy       []string `json:"order_by,omitempty"`
}

type searchRunsResponse struct {
	Runs          []run  `json:"runs"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

type getRunResponse struct {
	Run run `json:"run"`
}

type listArtifactsResponse struct {
	RootURI string     `json:"root_uri"`
	Files   []fileInfo `json:"files"`
}

type registeredModelRequest struct {
	Name string `json:"name"`
}

type registeredModelResponse struct {
	RegisteredModel registeredModel `json:"registered_model"`
}

type createModelVersionRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	RunID  string `json:"run_id,omitempty"`
}

type modelVersionResponse struct {
	ModelVersion modelVersion `json:"model_version"`
}

type searchModelVersionsResponse struct {
	ModelVersions []modelVersion `json:"model_versions"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type setTagRequest struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
}

// Mapping to domain

func toExperiment(e experiment) *domain.Experiment {
	return &domain.Experiment{
		ID:               e.ExperimentID,
		Name:             e.Name,
		LifecycleStage:   domain.LifecycleStage(e.LifecycleStage),
		ArtifactLocation: e.ArtifactLocation,
	}
}

func toRun(r run) *domain.Run {
	out := &domain.Run{
		ID:           r.Info.RunID,
		ExperimentID: r.Info.ExperimentID,
		Name:         r.Info.RunName,
		Status:       domain.RunStatus(r.Info.Status),
		StartTime:    fromMillis(r.Info.StartTime),
		EndTime:      fromMillis(r.Info.EndTime),
		ArtifactURI:  r.Info.ArtifactURI,
		Params:       toMap(r.Data.Params),
		Tags:         toMap(r.Data.Tags),
		Metrics:      make(map[string]float64, len(r.Data.Metrics)),
	}
	for _, m := range r.Data.Metrics {
		out.Metrics[m.Key] = m.Value
	}
	return out
}

func toRegisteredModel(m registeredModel) *domain.RegisteredModel {
	return &domain.RegisteredModel{
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   fromMillis(m.CreationTimestamp),
		UpdatedAt:   fromMillis(m.LastUpdatedTimestamp),
		Tags:        toMap(m.Tags),
	}
}

func toModelVersion(v modelVersion) *domain.ModelVersion {
	return &domain.ModelVersion{
		Name:      v.Name,
		Version:   v.Version,
		Source:    v.Source,
		RunID:     v.RunID,
		Stage:     v.CurrentStage,
		Status:    domain.VersionStatus(v.Status),
		CreatedAt: fromMillis(v.CreationTimestamp),
		Tags:      toMap(v.Tags),
	}
}

func toMap(kvs []keyValue) map[string]string {
	m := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
