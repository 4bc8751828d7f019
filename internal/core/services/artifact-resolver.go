package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

// DirectoryChooser disambiguates between several candidate model
// directories by returning the index of the chosen one.
type DirectoryChooser interface {
	ChooseDirectory(ctx context.Context, candidates []domain.Artifact) (int, error)
}

// ChooseIndex is a DirectoryChooser with a decision made up front.
type ChooseIndex int

func (i ChooseIndex) ChooseDirectory(_ context.Context, candidates []domain.Artifact) (int, error) {
	if int(i) < 0 || int(i) >= len(candidates) {
		return 0, fmt.Errorf("%w: index %d out of %d candidates", domain.ErrInvalidSelection, int(i), len(candidates))
	}
	return int(i), nil
}

// ArtifactResolver finds the model directory among a run's artifacts.
type ArtifactResolver struct {
	store ports.RunStore
}

func NewArtifactResolver(store ports.RunStore) *ArtifactResolver {
	return &ArtifactResolver{store: store}
}

// Tree lists the run's root artifacts and the direct children of each
// root directory.
func (r *ArtifactResolver) Tree(ctx context.Context, runID string) (*domain.ArtifactTree, error) {
	if runID == "" {
		return nil, domain.ErrInvalidRunID
	}

	root, err := r.store.ListArtifacts(ctx, runID, "")
	if err != nil {
		return nil, fmt.Errorf("list artifacts of run %s: %w", runID, err)
	}

	tree := &domain.ArtifactTree{RunID: runID, Nodes: make([]domain.ArtifactNode, 0, len(root))}
	for _, a := range root {
		node := domain.ArtifactNode{Artifact: a}
		if a.IsDir {
			children, err := r.store.ListArtifacts(ctx, runID, a.Path)
			if err != nil {
				return nil, fmt.Errorf("list artifacts of run %s under %s: %w", runID, a.Path, err)
			}
			node.Children = children
		}
		tree.Nodes = append(tree.Nodes, node)
	}
	return tree, nil
}

// Resolve picks the model directory. One directory is returned as is;
// several go to the chooser, and without a chooser the result is an
// AmbiguousModelError.
func (r *ArtifactResolver) Resolve(ctx context.Context, runID string, chooser DirectoryChooser) (*domain.ResolvedArtifact, error) {
	tree, err := r.Tree(ctx, runID)
	if err != nil {
		return nil, err
	}

	dirs := tree.Directories()
	var picked domain.Artifact
	switch {
	case len(dirs) == 0:
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNoModelFound)
	case len(dirs) == 1:
		picked = dirs[0]
	case chooser == nil:
		candidates := make([]string, len(dirs))
		for i, d := range dirs {
			candidates[i] = d.Path
		}
		return nil, &domain.AmbiguousModelError{RunID: runID, Candidates: candidates}
	default:
		idx, err := chooser.ChooseDirectory(ctx, dirs)
		if err != nil {
			return nil, err
		}
		picked = dirs[idx]
	}

	log.WithFields(log.Fields{
		"run_id":        runID,
		"artifact_path": picked.Path,
		"candidates":    len(dirs),
	}).Debug("model directory resolved")

	return &domain.ResolvedArtifact{
		RunID: runID,
		Path:  picked.Path,
		URI:   domain.RunsURI(runID, picked.Path),
		Tree:  tree,
	}, nil
}

// ResolvePath checks that an explicitly named directory exists at the root
// of the run's artifacts.
func (r *ArtifactResolver) ResolvePath(ctx context.Context, runID, artifactPath string) (*domain.ResolvedArtifact, error) {
	root, err := r.store.ListArtifacts(ctx, runID, "")
	if err != nil {
		return nil, fmt.Errorf("list artifacts of run %s: %w", runID, err)
	}
	for _, a := range root {
		if a.Path == artifactPath && a.IsDir {
			return &domain.ResolvedArtifact{
				RunID: runID,
				Path:  a.Path,
				URI:   domain.RunsURI(runID, a.Path),
			}, nil
		}
	}
	return nil, fmt.Errorf("directory %q in run %s: %w", artifactPath, runID, domain.ErrArtifactNotFound)
}
