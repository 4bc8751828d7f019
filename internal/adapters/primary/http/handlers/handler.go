package handlers

import (
	"mlflow-registry-workflow/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	experimentSvc *services.ExperimentService
	selector      *services.SearchSelector
	resolver      *services.ArtifactResolver
	registrar     *services.Registrar
	tagSvc        *services.TagService
	launcher      *services.ServerLauncher
}

func New(
	experimentSvc *services.ExperimentService,
	selector *services.SearchSelector,
	resolver *services.ArtifactResolver,
	registrar *services.Registrar,
	tagSvc *services.TagService,
	launcher *services.ServerLauncher,
) *Handler {
	return &Handler{
		experimentSvc: experimentSvc,
		selector:      selector,
		resolver:      resolver,
		registrar:     registrar,
		tagSvc:        tagSvc,
		launcher:      launcher,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Experiments and runs
	r.POST("/experiments", h.EnsureExperiment)
	r.POST("/experiments/:name/best-run", h.SelectBestRun)
	r.GET("/runs/:id/artifacts", h.ListRunArtifacts)

	// Registrations
	r.POST("/registrations", h.CreateRegistration)
	r.GET("/registrations", h.ListRegistrations)

	// Registered models
	r.GET("/models/:name/versions", h.ListModelVersions)

	// Name-level tags
	r.GET("/models/:name/tags", h.ListModelTags)
	r.PUT("/models/:name/tags/:key", h.SetModelTag)
	r.DELETE("/models/:name/tags/:key", h.DeleteModelTag)

	// Version-level tags
	r.GET("/models/:name/versions/:version/tags", h.ListVersionTags)
	r.PUT("/models/:name/versions/:version/tags/:key", h.SetVersionTag)
	r.DELETE("/models/:name/versions/:version/tags/:key", h.DeleteVersionTag)
}
