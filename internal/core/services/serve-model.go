package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

const (
	DefaultServePort       = 5001
	DefaultServeHost       = "0.0.0.0"
	DefaultServeEnvManager = "local"
)

// VersionChooser drives a VersionSelection that is awaiting a choice
// until it resolves.
type VersionChooser interface {
	ChooseVersion(ctx context.Context, selection *VersionSelection) error
}

// ServeRequest identifies the model to serve. An empty Version means
// auto-select or ask the chooser.
type ServeRequest struct {
	ModelName  string
	Version    string
	Host       string
	Port       int
	EnvManager string
}

// ServerLauncher resolves a registered version and hands it to a
// ModelServer. It never retries a failed serve.
type ServerLauncher struct {
	store  ports.RunStore
	server ports.ModelServer
}

func NewServerLauncher(store ports.RunStore, server ports.ModelServer) *ServerLauncher {
	return &ServerLauncher{store: store, server: server}
}

// ListVersions returns every version of the model, oldest first.
func (l *ServerLauncher) ListVersions(ctx context.Context, modelName string) ([]*domain.ModelVersion, error) {
	if modelName == "" {
		return nil, domain.ErrInvalidModelName
	}
	versions, err := l.store.SearchModelVersions(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("list versions of %q: %w", modelName, err)
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Number() < versions[j].Number()
	})
	return versions, nil
}

// Select resolves the version to serve.
func (l *ServerLauncher) Select(ctx context.Context, modelName, explicit string, chooser VersionChooser) (*domain.ModelVersion, error) {
	versions, err := l.ListVersions(ctx, modelName)
	if err != nil {
		return nil, err
	}

	selection, err := NewVersionSelection(modelName, versions, explicit)
	if err != nil {
		return nil, err
	}

	if selection.State() == StateAwaitingChoice {
		if chooser == nil {
			return nil, fmt.Errorf("%w: model %q has %d versions, pass one explicitly", domain.ErrInvalidSelection, modelName, len(versions))
		}
		if err := chooser.ChooseVersion(ctx, selection); err != nil {
			return nil, err
		}
		if selection.State() != StateResolved {
			return nil, fmt.Errorf("%w: no version chosen", domain.ErrInvalidSelection)
		}
	}
	return selection.Chosen(), nil
}

// Launch serves models:/<name>/<version> and blocks until the server stops.
func (l *ServerLauncher) Launch(ctx context.Context, req ServeRequest, chooser VersionChooser) error {
	version, err := l.Select(ctx, req.ModelName, req.Version, chooser)
	if err != nil {
		return err
	}

	spec := domain.ServeSpec{
		ModelName:  req.ModelName,
		Version:    version.Version,
		ModelURI:   domain.ModelsURI(req.ModelName, version.Version),
		Source:     version.Source,
		Host:       req.Host,
		Port:       req.Port,
		EnvManager: req.EnvManager,
	}
	if spec.Host == "" {
		spec.Host = DefaultServeHost
	}
	if spec.Port == 0 {
		spec.Port = DefaultServePort
	}
	if spec.EnvManager == "" {
		spec.EnvManager = DefaultServeEnvManager
	}

	log.WithFields(log.Fields{
		"model_uri": spec.ModelURI,
		"host":      spec.Host,
		"port":      spec.Port,
	}).Info("serving model")

	if err := l.server.Serve(ctx, spec); err != nil {
		var failure *domain.ServeFailure
		if errors.As(err, &failure) {
			return err
		}
		return &domain.ServeFailure{ModelURI: spec.ModelURI, ExitCode: -1, Err: err}
	}
	return nil
}
