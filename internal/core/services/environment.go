package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

const (
	PythonEnvFile    = "python_env.yaml"
	CondaEnvFile     = "conda.yaml"
	RequirementsFile = "requirements.txt"
)

// EnvFetchRequest locates a run by experiment and run name. ModelDir is
// resolved from the run's artifacts when empty.
type EnvFetchRequest struct {
	ExperimentName string
	RunName        string
	ModelDir       string
	OutputDir      string
}

// EnvFetchResult lists the files written to the output directory.
type EnvFetchResult struct {
	RunID    string
	ModelDir string
	Files    []string
}

// EnvironmentService copies a logged model's environment files out of the
// tracking server.
type EnvironmentService struct {
	store       ports.RunStore
	experiments *ExperimentService
	selector    *SearchSelector
	resolver    *ArtifactResolver
}

func NewEnvironmentService(store ports.RunStore, experiments *ExperimentService, selector *SearchSelector, resolver *ArtifactResolver) *EnvironmentService {
	return &EnvironmentService{
		store:       store,
		experiments: experiments,
		selector:    selector,
		resolver:    resolver,
	}
}

// Fetch writes python_env.yaml and conda.yaml when present and
// requirements.txt, which is mandatory. At least one of the two environment
// files must exist.
func (s *EnvironmentService) Fetch(ctx context.Context, req EnvFetchRequest, chooser DirectoryChooser) (*EnvFetchResult, error) {
	exp, err := s.experiments.Require(ctx, req.ExperimentName)
	if err != nil {
		return nil, err
	}
	log.WithField("experiment", exp.Name).Info("found experiment")

	run, err := s.selector.FindRunByName(ctx, exp.ID, req.RunName)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"run_name": req.RunName, "run_id": run.ID}).Info("found run")

	modelDir := req.ModelDir
	if modelDir == "" {
		resolved, err := s.resolver.Resolve(ctx, run.ID, chooser)
		if err != nil {
			return nil, err
		}
		modelDir = resolved.Path
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	result := &EnvFetchResult{RunID: run.ID, ModelDir: modelDir}

	foundEnv := false
	for _, name := range []string{PythonEnvFile, CondaEnvFile} {
		written, err := s.copyArtifact(ctx, run.ID, path.Join(modelDir, name), filepath.Join(outputDir, name))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		foundEnv = true
		result.Files = append(result.Files, written)
	}

	written, err := s.copyArtifact(ctx, run.ID, path.Join(modelDir, RequirementsFile), filepath.Join(outputDir, RequirementsFile))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RequirementsFile, err)
	}
	result.Files = append(result.Files, written)

	if !foundEnv {
		return result, domain.ErrMissingEnvFile
	}
	return result, nil
}

func (s *EnvironmentService) copyArtifact(ctx context.Context, runID, artifactPath, dest string) (string, error) {
	data, err := s.store.DownloadArtifact(ctx, runID, artifactPath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	log.WithFields(log.Fields{"artifact": artifactPath, "dest": dest}).Info("copied artifact")
	return dest, nil
}
