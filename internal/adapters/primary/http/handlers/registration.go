package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/adapters/primary/http/dto"
	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
	"mlflow-registry-workflow/internal/core/services"
)

func (h *Handler) CreateRegistration(c *gin.Context) {
	var req dto.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	var (
		resolved *domain.ResolvedArtifact
		err      error
	)
	switch {
	case req.ArtifactPath != "":
		resolved, err = h.resolver.ResolvePath(ctx, req.RunID, req.ArtifactPath)
	case req.ArtifactIndex != nil:
		resolved, err = h.resolver.Resolve(ctx, req.RunID, services.ChooseIndex(*req.ArtifactIndex))
	default:
		resolved, err = h.resolver.Resolve(ctx, req.RunID, nil)
	}
	if err != nil {
		log.WithError(err).WithField("run_id", req.RunID).Warn("resolve model artifact failed")
		mapDomainError(c, err)
		return
	}

	version, err := h.registrar.Register(ctx, services.RegisterRequest{
		ModelURI:    resolved.URI,
		ModelName:   req.ModelName,
		ModelTags:   req.ModelTags,
		VersionTags: req.VersionTags,
	})
	if err != nil {
		log.WithError(err).Error("register model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.RegistrationResponse{
		ArtifactPath: resolved.Path,
		Version:      dto.ToModelVersionResponse(version),
	})
}

func (h *Handler) ListRegistrations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	events, err := h.registrar.History(c.Request.Context(), ports.RegistrationFilter{
		ModelName: c.Query("model_name"),
		Limit:     limit,
	})
	if err != nil {
		log.WithError(err).Error("list registrations failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.RegistrationEventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, dto.ToRegistrationEventResponse(e))
	}

	c.JSON(http.StatusOK, dto.ListRegistrationsResponse{
		Items:    items,
		Total:    len(items),
		PageSize: limit,
	})
}
