package dto

import (
	"time"

	"mlflow-registry-workflow/internal/core/domain"
)

type CreateRegistrationRequest struct {
	RunID         string            `json:"run_id" binding:"required"`
	ArtifactPath  string            `json:"artifact_path"`
	ArtifactIndex *int              `json:"artifact_index"`
	ModelName     string            `json:"model_name" binding:"required"`
	ModelTags     map[string]string `json:"model_tags"`
	VersionTags   map[string]string `json:"version_tags"`
}

type ModelVersionResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	ModelURI  string            `json:"model_uri"`
	Source    string            `json:"source,omitempty"`
	RunID     string            `json:"run_id,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	Status    string            `json:"status,omitempty"`
	CreatedAt string            `json:"created_at,omitempty"`
	Tags      map[string]string `json:"tags"`
}

func ToModelVersionResponse(v *domain.ModelVersion) ModelVersionResponse {
	tags := v.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	return ModelVersionResponse{
		Name:      v.Name,
		Version:   v.Version,
		ModelURI:  v.URI(),
		Source:    v.Source,
		RunID:     v.RunID,
		Stage:     v.Stage,
		Status:    string(v.Status),
		CreatedAt: formatTime(v.CreatedAt),
		Tags:      tags,
	}
}

type ListModelVersionsResponse struct {
	Items []ModelVersionResponse `json:"items"`
	Total int                    `json:"total"`
}

type RegistrationResponse struct {
	ArtifactPath string               `json:"artifact_path"`
	Version      ModelVersionResponse `json:"version"`
}

type RegistrationEventResponse struct {
	ID          string            `json:"id"`
	CreatedAt   string            `json:"created_at"`
	ModelName   string            `json:"model_name"`
	Version     string            `json:"version"`
	ModelURI    string            `json:"model_uri"`
	Source      string            `json:"source"`
	RunID       string            `json:"run_id"`
	ModelTags   map[string]string `json:"model_tags"`
	VersionTags map[string]string `json:"version_tags"`
}

func ToRegistrationEventResponse(e *domain.RegistrationEvent) RegistrationEventResponse {
	return RegistrationEventResponse{
		ID:          e.ID,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		ModelName:   e.ModelName,
		Version:     e.Version,
		ModelURI:    e.ModelURI,
		Source:      e.Source,
		RunID:       e.RunID,
		ModelTags:   e.ModelTags,
		VersionTags: e.VersionTags,
	}
}

type ListRegistrationsResponse struct {
	Items    []RegistrationEventResponse `json:"items"`
	Total    int                         `json:"total"`
	PageSize int                         `json:"page_size"`
}

type SetTagRequest struct {
	Value string `json:"value"`
}

type TagsResponse struct {
	Name    string            `json:"name"`
	Version string            `json:"version,omitempty"`
	Tags    map[string]string `json:"tags"`
}
