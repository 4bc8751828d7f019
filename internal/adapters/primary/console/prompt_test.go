package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mlflow-registry-workflow/internal/core/domain"
	"mlflow-registry-workflow/internal/core/services"
	"mlflow-registry-workflow/internal/testutil"
)

func newPrompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return NewPrompter(strings.NewReader(input), &out), &out
}

func TestChooseDirectory_RepromptsOnInvalidInput(t *testing.T) {
	p, out := newPrompter("abc\n7\n2\n")
	candidates := []domain.Artifact{{Path: "rf_apples", IsDir: true}, {Path: "rf_pears", IsDir: true}}

	idx, err := p.ChooseDirectory(context.Background(), candidates)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	assert.Contains(t, out.String(), "1. rf_apples")
	assert.Contains(t, out.String(), "Invalid choice, please enter a valid number.")
	assert.Contains(t, out.String(), "Invalid choice, please enter a number between 1 and 2.")
}

func TestChooseDirectory_EOF(t *testing.T) {
	p, _ := newPrompter("9\n")

	_, err := p.ChooseDirectory(context.Background(), []domain.Artifact{{Path: "a"}, {Path: "b"}})
	assert.ErrorIs(t, err, ErrInputClosed)
}

func TestChooseVersion(t *testing.T) {
	p, out := newPrompter("0\n2")
	sel, err := services.NewVersionSelection("rf_apples", []*domain.ModelVersion{
		{Name: "rf_apples", Version: "1"},
		{Name: "rf_apples", Version: "2", Stage: "Production"},
	}, "")
	require.NoError(t, err)

	require.NoError(t, p.ChooseVersion(context.Background(), sel))
	assert.Equal(t, services.StateResolved, sel.State())
	assert.Equal(t, "2", sel.Chosen().Version)
	assert.Contains(t, out.String(), "1. Version 1 (Stage: None)")
	assert.Contains(t, out.String(), "2. Version 2 (Stage: Production)")
}

func TestConfirm(t *testing.T) {
	p, _ := newPrompter("Y\nno\n")

	yes, err := p.Confirm(context.Background(), "Manage tags?")
	require.NoError(t, err)
	assert.True(t, yes)

	yes, err = p.Confirm(context.Background(), "Manage tags?")
	require.NoError(t, err)
	assert.False(t, yes)
}

func TestTagMenu(t *testing.T) {
	store := new(testutil.MockRunStore)
	tags := services.NewTagService(store)
	target := domain.TagTarget{ModelName: "rf_apples", Version: "2"}

	store.On("SetModelVersionTag", mock.Anything, "rf_apples", "2", "validated", "true").Return(nil)
	store.On("DeleteModelVersionTag", mock.Anything, "rf_apples", "2", "old").Return(nil)
	store.On("GetModelVersion", mock.Anything, "rf_apples", "2").
		Return(&domain.ModelVersion{Name: "rf_apples", Version: "2", Tags: map[string]string{"validated": "true"}}, nil)

	input := strings.Join([]string{
		"5", // invalid, re-prompted
		"1", "validated", "true",
		"2", "old",
		"3",
		"4",
	}, "\n") + "\n"
	p, out := newPrompter(input)

	require.NoError(t, p.TagMenu(context.Background(), tags, target))

	assert.Contains(t, out.String(), "Tag management for model rf_apples version 2")
	assert.Contains(t, out.String(), "Invalid choice, please enter a number between 1 and 4.")
	assert.Contains(t, out.String(), "Tag 'validated' set to 'true'")
	assert.Contains(t, out.String(), "Tag 'old' deleted")
	assert.Contains(t, out.String(), "  validated: true")
	store.AssertNotCalled(t, "SetRegisteredModelTag", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTagMenu_EmptyKeyIsReprompted(t *testing.T) {
	store := new(testutil.MockRunStore)
	p, out := newPrompter("1\n\nx\n4\n")

	err := p.TagMenu(context.Background(), services.NewTagService(store), domain.TagTarget{ModelName: "rf_apples"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Tag key must not be empty.")
}

func TestTagMenu_StoreErrorKeepsMenuOpen(t *testing.T) {
	store := new(testutil.MockRunStore)
	target := domain.TagTarget{ModelName: "rf_apples", Version: "2"}

	store.On("SetModelVersionTag", mock.Anything, "rf_apples", "2", "validated", "true").
		Return(&domain.StoreError{Code: "PERMISSION_DENIED", Message: "read-only registry", StatusCode: 403}).Once()
	store.On("SetModelVersionTag", mock.Anything, "rf_apples", "2", "validated", "true").Return(nil).Once()
	store.On("GetModelVersion", mock.Anything, "rf_apples", "2").
		Return(nil, &domain.StoreUnreachableError{Endpoint: "http://mlflow:5000", Err: errors.New("connection refused")})

	p, out := newPrompter("1\nvalidated\ntrue\n3\n1\nvalidated\ntrue\n4\n")

	require.NoError(t, p.TagMenu(context.Background(), services.NewTagService(store), target))
	assert.Contains(t, out.String(), "Error: ")
	assert.Contains(t, out.String(), "read-only registry")
	assert.Contains(t, out.String(), "Tag 'validated' set to 'true'")
	store.AssertNumberOfCalls(t, "SetModelVersionTag", 2)
}

func TestTagMenu_ClosedInputEndsMenu(t *testing.T) {
	store := new(testutil.MockRunStore)
	store.On("GetRegisteredModel", mock.Anything, "rf_apples").
		Return(nil, &domain.StoreUnreachableError{Endpoint: "http://mlflow:5000", Err: errors.New("connection refused")})

	p, out := newPrompter("3\n")

	err := p.TagMenu(context.Background(), services.NewTagService(store), domain.TagTarget{ModelName: "rf_apples"})
	assert.ErrorIs(t, err, ErrInputClosed)
	assert.Contains(t, out.String(), "Error: ")
}
