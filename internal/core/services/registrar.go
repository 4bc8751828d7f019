package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

// RegisterRequest describes one registration.
type RegisterRequest struct {
	ModelURI    string
	ModelName   string
	ModelTags   map[string]string
	VersionTags map[string]string
}

// Registrar publishes resolved artifacts as registered model versions.
type Registrar struct {
	store  ports.RunStore
	ledger ports.RegistrationLedger
	now    func() time.Time
}

// NewRegistrar builds a Registrar. ledger may be nil.
func NewRegistrar(store ports.RunStore, ledger ports.RegistrationLedger) *Registrar {
	return &Registrar{store: store, ledger: ledger, now: time.Now}
}

// Register creates the registered model if needed and appends a version.
// Every store failure comes back as *domain.RegistrationError.
func (r *Registrar) Register(ctx context.Context, req RegisterRequest) (*domain.ModelVersion, error) {
	if strings.TrimSpace(req.ModelName) == "" {
		return nil, domain.ErrInvalidModelName
	}
	if req.ModelURI == "" {
		return nil, domain.ErrInvalidModelURI
	}

	fail := func(err error) error {
		return &domain.RegistrationError{ModelName: req.ModelName, ModelURI: req.ModelURI, Err: err}
	}

	logger := log.WithFields(log.Fields{
		"model_uri":  req.ModelURI,
		"model_name": req.ModelName,
	})
	logger.Info("registering model")

	source, runID, err := r.source(ctx, req.ModelURI)
	if err != nil {
		return nil, fail(err)
	}

	if _, err := r.store.CreateRegisteredModel(ctx, req.ModelName); err != nil && !isAlreadyExists(err) {
		return nil, fail(fmt.Errorf("create registered model: %w", err))
	}

	version, err := r.store.CreateModelVersion(ctx, req.ModelName, source, runID)
	if err != nil {
		return nil, fail(fmt.Errorf("create model version: %w", err))
	}
	logger = logger.WithField("version", version.Version)
	logger.Info("model registered")

	for k, v := range req.ModelTags {
		if err := r.store.SetRegisteredModelTag(ctx, req.ModelName, k, v); err != nil {
			return version, fail(fmt.Errorf("set registered model tag %s: %w", k, err))
		}
	}
	if version.Tags == nil {
		version.Tags = make(map[string]string, len(req.VersionTags))
	}
	for k, v := range req.VersionTags {
		if err := r.store.SetModelVersionTag(ctx, req.ModelName, version.Version, k, v); err != nil {
			return version, fail(fmt.Errorf("set model version tag %s: %w", k, err))
		}
		version.Tags[k] = v
	}

	if r.ledger != nil {
		event := &domain.RegistrationEvent{
			ID:          uuid.New().String(),
			CreatedAt:   r.now(),
			ModelName:   req.ModelName,
			Version:     version.Version,
			ModelURI:    req.ModelURI,
			Source:      source,
			RunID:       runID,
			ModelTags:   req.ModelTags,
			VersionTags: req.VersionTags,
		}
		if err := r.ledger.Record(ctx, event); err != nil {
			logger.WithError(err).Warn("record registration in ledger failed")
		}
	}

	return version, nil
}

// source maps a runs:/ URI to the run's underlying artifact location.
// Other URIs are passed through untouched.
func (r *Registrar) source(ctx context.Context, modelURI string) (string, string, error) {
	runID, artifactPath, ok := domain.ParseRunsURI(modelURI)
	if !ok {
		return modelURI, "", nil
	}
	run, err := r.store.GetRun(ctx, runID)
	if err != nil {
		return "", "", fmt.Errorf("get source run: %w", err)
	}
	if run.ArtifactURI == "" {
		return modelURI, runID, nil
	}
	return strings.TrimSuffix(run.ArtifactURI, "/") + "/" + artifactPath, runID, nil
}

func isAlreadyExists(err error) bool {
	var storeErr *domain.StoreError
	return errors.As(err, &storeErr) && storeErr.Code == domain.CodeResourceAlreadyExists
}

// History lists ledger entries.
func (r *Registrar) History(ctx context.Context, filter ports.RegistrationFilter) ([]*domain.RegistrationEvent, error) {
	if r.ledger == nil {
		return nil, domain.ErrLedgerNotConfigured
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return r.ledger.List(ctx, filter)
}
