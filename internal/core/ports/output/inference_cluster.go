package ports

import (
	"context"

	"mlflow-registry-workflow/internal/core/domain"
)

// InferenceDeployment identifies the InferenceService created for a
// model version.
type InferenceDeployment struct {
	Name      string
	Namespace string
	UID       string
}

// InferenceStatus is the observed readiness of an InferenceService. Error
// and Reason describe a Ready condition that is False. A False condition is
// normal while the predictor starts; only Failed means it will not recover.
type InferenceStatus struct {
	URL    string
	Ready  bool
	Failed bool
	Reason string
	Error  string
}

// InferenceCluster runs registered versions on a Kubernetes cluster with
// the KServe mlflow runtime.
type InferenceCluster interface {
	Deploy(ctx context.Context, namespace string, spec domain.ServeSpec) (*InferenceDeployment, error)
	Undeploy(ctx context.Context, namespace, name string) error
	GetStatus(ctx context.Context, namespace, name string) (*InferenceStatus, error)

	// IsAvailable is false when cluster serving is not configured.
	IsAvailable() bool
}
