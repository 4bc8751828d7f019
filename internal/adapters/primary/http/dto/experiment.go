package dto

import (
	"time"

	"mlflow-registry-workflow/internal/core/domain"
)

type EnsureExperimentRequest struct {
	Name string `json:"name" binding:"required"`
}

type ExperimentResponse struct {
	ID               string `json:"experiment_id"`
	Name             string `json:"name"`
	LifecycleStage   string `json:"lifecycle_stage"`
	ArtifactLocation string `json:"artifact_location,omitempty"`
}

func ToExperimentResponse(e *domain.Experiment) ExperimentResponse {
	return ExperimentResponse{
		ID:               e.ID,
		Name:             e.Name,
		LifecycleStage:   string(e.LifecycleStage),
		ArtifactLocation: e.ArtifactLocation,
	}
}

type BestRunRequest struct {
	Strategy        string   `json:"strategy"`
	Metric          string   `json:"metric"`
	Hyperparameters []string `json:"hyperparameters"`
	ParentRunID     string   `json:"parent_run_id"`
	MaxResults      int      `json:"max_results"`
}

func (r BestRunRequest) ToCriteria() domain.SearchCriteria {
	return domain.SearchCriteria{
		Strategy:        domain.SelectionStrategy(r.Strategy),
		Metric:          r.Metric,
		Hyperparameters: r.Hyperparameters,
		ParentRunID:     r.ParentRunID,
		MaxResults:      r.MaxResults,
	}
}

type RunResponse struct {
	ID           string             `json:"run_id"`
	ExperimentID string             `json:"experiment_id"`
	Name         string             `json:"run_name"`
	Status       string             `json:"status"`
	StartTime    string             `json:"start_time,omitempty"`
	EndTime      string             `json:"end_time,omitempty"`
	ArtifactURI  string             `json:"artifact_uri,omitempty"`
	Params       map[string]string  `json:"params"`
	Metrics      map[string]float64 `json:"metrics"`
	Tags         map[string]string  `json:"tags"`
}

type BestRunResponse struct {
	Experiment ExperimentResponse `json:"experiment"`
	Run        RunResponse        `json:"run"`
	Summary    string             `json:"summary"`
}

func ToRunResponse(r *domain.Run) RunResponse {
	return RunResponse{
		ID:           r.ID,
		ExperimentID: r.ExperimentID,
		Name:         r.DisplayName(),
		Status:       string(r.Status),
		StartTime:    formatTime(r.StartTime),
		EndTime:      formatTime(r.EndTime),
		ArtifactURI:  r.ArtifactURI,
		Params:       r.Params,
		Metrics:      r.Metrics,
		Tags:         r.Tags,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
