package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// Lookup Errors
// ============================================================================

var (
	ErrNotFound           = errors.New("not found")
	ErrExperimentNotFound = fmt.Errorf("experiment %w", ErrNotFound)
	ErrRunNotFound        = fmt.Errorf("run %w", ErrNotFound)
	ErrModelNotFound      = fmt.Errorf("registered model %w", ErrNotFound)
	ErrVersionNotFound    = fmt.Errorf("model version %w", ErrNotFound)
	ErrArtifactNotFound   = fmt.Errorf("artifact %w", ErrNotFound)
)

// ============================================================================
// Artifact Resolution Errors
// ============================================================================

var (
	ErrNoModelFound   = errors.New("no model directory found in run artifacts")
	ErrAmbiguousModel = errors.New("multiple model directories found, a choice is required")
)

// AmbiguousModelError lists the candidate directories when the resolver
// cannot pick one on its own.
type AmbiguousModelError struct {
	RunID      string
	Candidates []string
}

func (e *AmbiguousModelError) Error() string {
	return fmt.Sprintf("run %s: %s: %s", e.RunID, ErrAmbiguousModel.Error(), strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousModelError) Is(target error) bool {
	return target == ErrAmbiguousModel
}

// ============================================================================
// Store Errors
// ============================================================================

var ErrUnreachableStore = errors.New("tracking store unreachable")

// StoreUnreachableError is returned for transport failures and timeouts
// talking to the tracking server.
type StoreUnreachableError struct {
	Endpoint string
	Err      error
}

func (e *StoreUnreachableError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrUnreachableStore.Error(), e.Endpoint, e.Err)
}

func (e *StoreUnreachableError) Unwrap() error { return e.Err }

func (e *StoreUnreachableError) Is(target error) bool {
	return target == ErrUnreachableStore
}

// Error codes of the tracking server REST API.
const (
	CodeResourceDoesNotExist  = "RESOURCE_DOES_NOT_EXIST"
	CodeResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	CodeInvalidParameterValue = "INVALID_PARAMETER_VALUE"
)

// StoreError carries an error_code returned by the tracking server that has
// no dedicated sentinel.
type StoreError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("tracking store error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// ============================================================================
// Registration Errors
// ============================================================================

var ErrRegistration = errors.New("model registration failed")

// RegistrationError wraps the store-side cause of a failed registration.
type RegistrationError struct {
	ModelName string
	ModelURI  string
	Err       error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s as %q: %v", e.ModelURI, e.ModelName, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

func (e *RegistrationError) Is(target error) bool {
	return target == ErrRegistration
}

// ============================================================================
// Serving Errors
// ============================================================================

var ErrServeFailure = errors.New("model server failed")

// ServeFailure reports a serving process that exited non-zero or could not
// be started. ExitCode is -1 when no exit status exists.
type ServeFailure struct {
	ModelURI string
	ExitCode int
	Err      error
}

func (e *ServeFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("serve %s: exit status %d", e.ModelURI, e.ExitCode)
	}
	return fmt.Sprintf("serve %s: exit status %d: %v", e.ModelURI, e.ExitCode, e.Err)
}

func (e *ServeFailure) Unwrap() error { return e.Err }

func (e *ServeFailure) Is(target error) bool {
	return target == ErrServeFailure
}

// ============================================================================
// Validation Errors
// ============================================================================

var (
	ErrInvalidSelection     = errors.New("invalid selection")
	ErrInvalidModelName     = errors.New("model name is required")
	ErrInvalidExperiment    = errors.New("experiment name is required")
	ErrInvalidRunID         = errors.New("run ID is required")
	ErrInvalidModelURI      = errors.New("model URI is required")
	ErrInvalidStrategy      = errors.New("unknown selection strategy")
	ErrInvalidTag           = errors.New("tag must be in key=value form")
	ErrMissingEnvFile       = errors.New("neither python_env.yaml nor conda.yaml found in artifacts")
	ErrLedgerNotConfigured  = errors.New("registration ledger is not configured")
	ErrClusterNotConfigured = errors.New("kubernetes serving is not configured")
)
