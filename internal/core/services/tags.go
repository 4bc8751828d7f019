package services

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

// TagService manages registry tags. Name-level and version-level tags are
// separate namespaces and are never read or written through each other.
type TagService struct {
	store ports.RunStore
}

func NewTagService(store ports.RunStore) *TagService {
	return &TagService{store: store}
}

func (s *TagService) Set(ctx context.Context, target domain.TagTarget, key, value string) error {
	if err := validateTagTarget(target, key); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"model_name": target.ModelName,
		"version":    target.Version,
		"scope":      target.Scope(),
		"key":        key,
	}).Debug("setting tag")

	if target.Scope() == domain.TagScopeVersion {
		return s.store.SetModelVersionTag(ctx, target.ModelName, target.Version, key, value)
	}
	return s.store.SetRegisteredModelTag(ctx, target.ModelName, key, value)
}

func (s *TagService) Delete(ctx context.Context, target domain.TagTarget, key string) error {
	if err := validateTagTarget(target, key); err != nil {
		return err
	}
	if target.Scope() == domain.TagScopeVersion {
		return s.store.DeleteModelVersionTag(ctx, target.ModelName, target.Version, key)
	}
	return s.store.DeleteRegisteredModelTag(ctx, target.ModelName, key)
}

func (s *TagService) List(ctx context.Context, target domain.TagTarget) (map[string]string, error) {
	if target.ModelName == "" {
		return nil, domain.ErrInvalidModelName
	}
	if target.Scope() == domain.TagScopeVersion {
		v, err := s.store.GetModelVersion(ctx, target.ModelName, target.Version)
		if err != nil {
			return nil, err
		}
		return nonNilTags(v.Tags), nil
	}
	m, err := s.store.GetRegisteredModel(ctx, target.ModelName)
	if err != nil {
		return nil, err
	}
	return nonNilTags(m.Tags), nil
}

func validateTagTarget(target domain.TagTarget, key string) error {
	if target.ModelName == "" {
		return domain.ErrInvalidModelName
	}
	if strings.TrimSpace(key) == "" {
		return domain.ErrInvalidTag
	}
	return nil
}

func nonNilTags(tags map[string]string) map[string]string {
	if tags == nil {
		return map[string]string{}
	}
	return tags
}
