package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlflow-registry-workflow/internal/core/domain"
)

func versions(vs ...string) []*domain.ModelVersion {
	out := make([]*domain.ModelVersion, 0, len(vs))
	for _, v := range vs {
		out = append(out, &domain.ModelVersion{Name: "rf_apples", Version: v})
	}
	return out
}

func TestSelectIndex(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		input   string
		want    int
		wantErr bool
	}{
		{"first", 3, "1", 0, false},
		{"last with spaces", 3, " 3 \n", 2, false},
		{"zero", 3, "0", 0, true},
		{"too large", 3, "4", 0, true},
		{"not a number", 3, "two", 0, true},
		{"empty", 3, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectIndex(tt.n, tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidSelection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionSelection_SingleCandidateResolves(t *testing.T) {
	sel, err := NewVersionSelection("rf_apples", versions("1"), "")
	require.NoError(t, err)
	assert.Equal(t, StateResolved, sel.State())
	assert.Equal(t, "1", sel.Chosen().Version)
}

func TestVersionSelection_ExplicitVersion(t *testing.T) {
	sel, err := NewVersionSelection("rf_apples", versions("1", "2", "3"), "2")
	require.NoError(t, err)
	assert.Equal(t, StateResolved, sel.State())
	assert.Equal(t, "2", sel.Chosen().Version)
}

func TestVersionSelection_ExplicitVersionMissing(t *testing.T) {
	_, err := NewVersionSelection("rf_apples", versions("1", "2"), "9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionSelection_NoCandidates(t *testing.T) {
	_, err := NewVersionSelection("rf_apples", nil, "")
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}

func TestVersionSelection_LoopsOnInvalidInput(t *testing.T) {
	sel, err := NewVersionSelection("rf_apples", versions("1", "2"), "")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingChoice, sel.State())
	assert.Nil(t, sel.Chosen())

	assert.ErrorIs(t, sel.Submit("abc"), domain.ErrInvalidSelection)
	assert.Equal(t, StateAwaitingChoice, sel.State())

	assert.ErrorIs(t, sel.Submit("3"), domain.ErrInvalidSelection)
	assert.Equal(t, StateAwaitingChoice, sel.State())

	require.NoError(t, sel.Submit("2"))
	assert.Equal(t, StateResolved, sel.State())
	assert.Equal(t, "2", sel.Chosen().Version)

	assert.ErrorIs(t, sel.Submit("1"), domain.ErrInvalidSelection)
	assert.Equal(t, "2", sel.Chosen().Version)
}

func TestParseTagAction(t *testing.T) {
	action, err := ParseTagAction("1")
	require.NoError(t, err)
	assert.Equal(t, TagActionSet, action)

	action, err = ParseTagAction("4")
	require.NoError(t, err)
	assert.Equal(t, TagActionExit, action)
	assert.Equal(t, "Exit tag management", action.String())

	_, err = ParseTagAction("5")
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
}
