package kserve

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/config"
	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

// Server serves a model version on the cluster as an InferenceService.
// Serve returns once the service reports Ready.
type Server struct {
	client       ports.InferenceCluster
	namespace    string
	readyTimeout time.Duration
	pollInterval time.Duration
}

func NewServer(client ports.InferenceCluster, cfg *config.KubernetesConfig) *Server {
	s := &Server{
		client:       client,
		namespace:    cfg.DefaultNS,
		readyTimeout: cfg.ReadyTimeout,
		pollInterval: cfg.PollInterval,
	}
	if s.readyTimeout <= 0 {
		s.readyTimeout = 10 * time.Minute
	}
	if s.pollInterval <= 0 {
		s.pollInterval = 5 * time.Second
	}
	return s
}

func (s *Server) Serve(ctx context.Context, spec domain.ServeSpec) error {
	if !s.client.IsAvailable() {
		return &domain.ServeFailure{ModelURI: spec.ModelURI, ExitCode: -1, Err: domain.ErrClusterNotConfigured}
	}

	deployment, err := s.client.Deploy(ctx, s.namespace, spec)
	if err != nil {
		return &domain.ServeFailure{ModelURI: spec.ModelURI, ExitCode: -1, Err: err}
	}

	logger := log.WithFields(log.Fields{
		"model_uri": spec.ModelURI,
		"name":      deployment.Name,
		"namespace": deployment.Namespace,
		"uid":       deployment.UID,
	})
	logger.Info("inference service created, waiting for ready")

	status, err := s.waitReady(ctx, deployment)
	if err != nil {
		logger.WithError(err).Error("inference service did not become ready")
		if undeployErr := s.client.Undeploy(context.WithoutCancel(ctx), deployment.Namespace, deployment.Name); undeployErr != nil {
			logger.WithError(undeployErr).Warn("cleanup of inference service failed")
		}
		return &domain.ServeFailure{ModelURI: spec.ModelURI, ExitCode: -1, Err: err}
	}

	logger.WithField("url", status.URL).Info("inference service ready")
	return nil
}

func (s *Server) waitReady(ctx context.Context, deployment *ports.InferenceDeployment) (*ports.InferenceStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.readyTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var last string
	for {
		status, err := s.client.GetStatus(ctx, deployment.Namespace, deployment.Name)
		switch {
		case err != nil:
			log.WithError(err).Debug("poll inference service status")
		case status.Ready:
			return status, nil
		case status.Failed:
			return nil, fmt.Errorf("inference service failed (%s): %s", status.Reason, status.Error)
		case status.Error != "":
			if status.Error != last {
				log.WithFields(log.Fields{
					"name":   deployment.Name,
					"reason": status.Reason,
				}).Debug(status.Error)
			}
			last = status.Error
		}

		select {
		case <-ctx.Done():
			if last != "" {
				return nil, fmt.Errorf("wait for %s/%s (last status: %s): %w", deployment.Namespace, deployment.Name, last, ctx.Err())
			}
			return nil, fmt.Errorf("wait for %s/%s: %w", deployment.Namespace, deployment.Name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Ensure interface compliance
var _ ports.ModelServer = (*Server)(nil)
