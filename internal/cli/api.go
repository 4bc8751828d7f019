package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mlflow-registry-workflow/internal/adapters/primary/http/handlers"
	"mlflow-registry-workflow/internal/adapters/primary/http/middleware"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the workflow over HTTP",
	Long: `Expose experiment, run selection, registration and tag operations as a
JSON API under /api/v1/workflow. Listens on API_HOST:API_PORT.`,
	RunE: runAPI,
}

func runAPI(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		router := newRouter(app)

		addr := fmt.Sprintf("%s:%d", app.Config.API.Host, app.Config.API.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Infof("starting server on %s", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced shutdown: %w", err)
		}
		log.Info("server stopped")
		return nil
	})
}

func newRouter(app *AppContext) *gin.Engine {
	h := handlers.New(app.Experiments, app.Selector, app.Resolver, app.Registrar, app.Tags, app.Launcher)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/workflow")
	h.RegisterRoutes(api)

	// Health check with tracking server and ledger reachability
	router.GET("/healthz", func(c *gin.Context) {
		if _, err := app.Store.SearchExperiments(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		if app.pool != nil {
			if err := app.pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
