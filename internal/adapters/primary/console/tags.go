package console

import (
	"context"
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/core/domain"
	"mlflow-registry-workflow/internal/core/services"
)

// TagMenu runs the interactive tag manager for one target until the user
// picks exit. Store errors are reported and the menu carries on; closed
// input or a cancelled context ends it.
func (p *Prompter) TagMenu(ctx context.Context, tags *services.TagService, target domain.TagTarget) error {
	label := fmt.Sprintf("model %s", target.ModelName)
	if target.Scope() == domain.TagScopeVersion {
		label = fmt.Sprintf("model %s version %s", target.ModelName, target.Version)
	}

	for {
		fmt.Fprintf(p.out, "\nTag management for %s:\n", label)
		for i, a := range services.TagActions {
			fmt.Fprintf(p.out, "%d. %s\n", i+1, a)
		}

		answer, err := p.Ask(ctx, "\nSelect an option: ")
		if err != nil {
			return err
		}
		action, err := services.ParseTagAction(answer)
		if err != nil {
			fmt.Fprintln(p.out, invalidMessage(err))
			continue
		}

		switch action {
		case services.TagActionSet:
			key, err := p.Ask(ctx, "Enter tag key: ")
			if err != nil {
				return err
			}
			value, err := p.Ask(ctx, "Enter tag value: ")
			if err != nil {
				return err
			}
			if err := tags.Set(ctx, target, key, value); err != nil {
				if err := p.reportTagError(ctx, err); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(p.out, "Tag '%s' set to '%s'\n", key, value)

		case services.TagActionDelete:
			key, err := p.Ask(ctx, "Enter tag key to delete: ")
			if err != nil {
				return err
			}
			if err := tags.Delete(ctx, target, key); err != nil {
				if err := p.reportTagError(ctx, err); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(p.out, "Tag '%s' deleted\n", key)

		case services.TagActionList:
			current, err := tags.List(ctx, target)
			if err != nil {
				if err := p.reportTagError(ctx, err); err != nil {
					return err
				}
				continue
			}
			p.printTags(current)

		case services.TagActionExit:
			log.WithField("model_name", target.ModelName).Debug("tag management finished")
			return nil
		}
	}
}

// reportTagError prints a failed tag operation and returns nil when the
// menu can continue.
func (p *Prompter) reportTagError(ctx context.Context, err error) error {
	if errors.Is(err, ErrInputClosed) || ctx.Err() != nil {
		return err
	}
	if errors.Is(err, domain.ErrInvalidTag) {
		fmt.Fprintln(p.out, "Tag key must not be empty.")
		return nil
	}
	log.WithError(err).Warn("tag operation failed")
	fmt.Fprintf(p.out, "Error: %v\n", err)
	return nil
}

func (p *Prompter) printTags(tags map[string]string) {
	if len(tags) == 0 {
		fmt.Fprintln(p.out, "No tags set.")
		return
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(p.out, "Current tags:")
	for _, k := range keys {
		fmt.Fprintf(p.out, "  %s: %s\n", k, tags[k])
	}
}
