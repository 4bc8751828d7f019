package dto

import "mlflow-registry-workflow/internal/core/domain"

type ArtifactTreeResponse struct {
	RunID      string                `json:"run_id"`
	Nodes      []domain.ArtifactNode `json:"nodes"`
	Candidates []string              `json:"candidates"`
}

func ToArtifactTreeResponse(tree *domain.ArtifactTree) ArtifactTreeResponse {
	dirs := tree.Directories()
	candidates := make([]string, len(dirs))
	for i, d := range dirs {
		candidates[i] = d.Path
	}
	nodes := tree.Nodes
	if nodes == nil {
		nodes = []domain.ArtifactNode{}
	}
	return ArtifactTreeResponse{
		RunID:      tree.RunID,
		Nodes:      nodes,
		Candidates: candidates,
	}
}
