package services

import (
	"fmt"
	"strconv"
	"strings"

	"mlflow-registry-workflow/internal/core/domain"
)

// SelectIndex turns a 1-based choice among n candidates into a 0-based
// index. Anything non-numeric or out of range is ErrInvalidSelection.
func SelectIndex(n int, input string) (int, error) {
	choice, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("%w: please enter a valid number", domain.ErrInvalidSelection)
	}
	if choice < 1 || choice > n {
		return 0, fmt.Errorf("%w: please enter a number between 1 and %d", domain.ErrInvalidSelection, n)
	}
	return choice - 1, nil
}

// SelectionState is the state of a VersionSelection.
type SelectionState string

const (
	StateListed         SelectionState = "LISTED"
	StateAwaitingChoice SelectionState = "AWAITING_CHOICE"
	StateResolved       SelectionState = "RESOLVED"
)

// VersionSelection decides which model version to serve. It resolves
// immediately for an explicit version or a single candidate, otherwise it
// waits for Submit to receive a valid choice.
type VersionSelection struct {
	candidates []*domain.ModelVersion
	state      SelectionState
	chosen     *domain.ModelVersion
}

// NewVersionSelection starts in Listed and transitions once. An explicit
// version that is not among the candidates fails with ErrVersionNotFound.
func NewVersionSelection(modelName string, candidates []*domain.ModelVersion, explicit string) (*VersionSelection, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no versions for model %q: %w", modelName, domain.ErrVersionNotFound)
	}

	s := &VersionSelection{candidates: candidates, state: StateListed}

	if explicit != "" {
		for _, v := range candidates {
			if v.Version == explicit {
				s.resolve(v)
				return s, nil
			}
		}
		return nil, fmt.Errorf("version %s of model %q: %w", explicit, modelName, domain.ErrVersionNotFound)
	}

	if len(candidates) == 1 {
		s.resolve(candidates[0])
		return s, nil
	}

	s.state = StateAwaitingChoice
	return s, nil
}

func (s *VersionSelection) resolve(v *domain.ModelVersion) {
	s.chosen = v
	s.state = StateResolved
}

func (s *VersionSelection) State() SelectionState { return s.state }

func (s *VersionSelection) Candidates() []*domain.ModelVersion { return s.candidates }

// Submit applies a 1-based choice. Invalid input leaves the selection in
// AwaitingChoice.
func (s *VersionSelection) Submit(input string) error {
	if s.state != StateAwaitingChoice {
		return fmt.Errorf("%w: selection is %s", domain.ErrInvalidSelection, s.state)
	}
	idx, err := SelectIndex(len(s.candidates), input)
	if err != nil {
		return err
	}
	s.resolve(s.candidates[idx])
	return nil
}

// Chosen returns the resolved version, nil until Resolved.
func (s *VersionSelection) Chosen() *domain.ModelVersion { return s.chosen }

// TagAction is one entry of the tag management menu.
type TagAction int

const (
	TagActionSet TagAction = iota + 1
	TagActionDelete
	TagActionList
	TagActionExit
)

func (a TagAction) String() string {
	switch a {
	case TagActionSet:
		return "Add/Update tag"
	case TagActionDelete:
		return "Delete tag"
	case TagActionList:
		return "List current tags"
	case TagActionExit:
		return "Exit tag management"
	}
	return "unknown"
}

// TagActions lists the menu in display order.
var TagActions = []TagAction{TagActionSet, TagActionDelete, TagActionList, TagActionExit}

// ParseTagAction maps a menu choice to its action.
func ParseTagAction(input string) (TagAction, error) {
	idx, err := SelectIndex(len(TagActions), input)
	if err != nil {
		return 0, err
	}
	return TagActions[idx], nil
}
