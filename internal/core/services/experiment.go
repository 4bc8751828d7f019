package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

const deletedExperimentSuffixLayout = "20060102_150405"

type ExperimentService struct {
	store ports.RunStore
	now   func() time.Time
}

func NewExperimentService(store ports.RunStore) *ExperimentService {
	return &ExperimentService{store: store, now: time.Now}
}

// Ensure returns an active experiment for name, creating it when missing.
// A soft-deleted experiment is left alone and a timestamped sibling is
// created instead.
func (s *ExperimentService) Ensure(ctx context.Context, name string) (*domain.Experiment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidExperiment
	}

	existing, err := s.store.GetExperimentByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get experiment %q: %w", name, err)
	}
	if existing != nil && !existing.IsDeleted() {
		return existing, nil
	}

	target := name
	if existing != nil {
		target = fmt.Sprintf("%s_%s", name, s.now().Format(deletedExperimentSuffixLayout))
		log.WithFields(log.Fields{
			"experiment":  name,
			"replacement": target,
		}).Warn("experiment is deleted, creating a replacement")
	}

	id, err := s.store.CreateExperiment(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("create experiment %q: %w", target, err)
	}
	log.WithFields(log.Fields{"experiment": target, "experiment_id": id}).Info("experiment created")

	return &domain.Experiment{ID: id, Name: target, LifecycleStage: domain.LifecycleActive}, nil
}

// Require fetches an existing experiment. The not-found error names the
// experiments that do exist.
func (s *ExperimentService) Require(ctx context.Context, name string) (*domain.Experiment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidExperiment
	}

	exp, err := s.store.GetExperimentByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get experiment %q: %w", name, err)
	}
	if exp != nil {
		return exp, nil
	}

	all, err := s.store.SearchExperiments(ctx)
	if err != nil {
		return nil, fmt.Errorf("experiment %q: %w (listing experiments: %w)", name, domain.ErrExperimentNotFound, err)
	}
	names := make([]string, 0, len(all))
	for _, e := range all {
		names = append(names, e.Name)
	}
	return nil, fmt.Errorf("experiment %q (available: %s): %w", name, strings.Join(names, ", "), domain.ErrExperimentNotFound)
}
