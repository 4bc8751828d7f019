package ports

import (
	"context"

	"mlflow-registry-workflow/internal/core/domain"
)

// ModelServer hosts a registered model version. Serve blocks until the
// server stops; a server that exits non-zero yields *domain.ServeFailure.
type ModelServer interface {
	Serve(ctx context.Context, spec domain.ServeSpec) error
}
