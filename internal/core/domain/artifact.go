package domain

// Artifact is a file or directory under a run's artifact root. Path is
// relative to that root.
type Artifact struct {
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	FileSize int64  `json:"file_size,omitempty"`
}

// ArtifactNode is a root-level artifact with, for directories, its direct
// children.
type ArtifactNode struct {
	Artifact
	Children []Artifact `json:"children,omitempty"`
}

// ArtifactTree is the two-level view of a run's artifacts.
type ArtifactTree struct {
	RunID string         `json:"run_id"`
	Nodes []ArtifactNode `json:"nodes"`
}

// Directories returns the root-level directory artifacts in listing order.
func (t *ArtifactTree) Directories() []Artifact {
	dirs := make([]Artifact, 0, len(t.Nodes))
	for _, n := range t.Nodes {
		if n.IsDir {
			dirs = append(dirs, n.Artifact)
		}
	}
	return dirs
}

// ResolvedArtifact is the model directory picked for registration.
type ResolvedArtifact struct {
	RunID string        `json:"run_id"`
	Path  string        `json:"artifact_path"`
	URI   string        `json:"model_uri"`
	Tree  *ArtifactTree `json:"tree,omitempty"`
}
