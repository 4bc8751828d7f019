package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/adapters/primary/http/dto"
	"mlflow-registry-workflow/internal/core/domain"
)

func (h *Handler) ListModelVersions(c *gin.Context) {
	versions, err := h.launcher.ListVersions(c.Request.Context(), c.Param("name"))
	if err != nil {
		log.WithError(err).Error("list model versions failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ModelVersionResponse, 0, len(versions))
	for _, v := range versions {
		items = append(items, dto.ToModelVersionResponse(v))
	}

	c.JSON(http.StatusOK, dto.ListModelVersionsResponse{Items: items, Total: len(items)})
}

func (h *Handler) ListModelTags(c *gin.Context) {
	h.listTags(c, domain.TagTarget{ModelName: c.Param("name")})
}

func (h *Handler) SetModelTag(c *gin.Context) {
	h.setTag(c, domain.TagTarget{ModelName: c.Param("name")})
}

func (h *Handler) DeleteModelTag(c *gin.Context) {
	h.deleteTag(c, domain.TagTarget{ModelName: c.Param("name")})
}

func (h *Handler) ListVersionTags(c *gin.Context) {
	h.listTags(c, versionTarget(c))
}

func (h *Handler) SetVersionTag(c *gin.Context) {
	h.setTag(c, versionTarget(c))
}

func (h *Handler) DeleteVersionTag(c *gin.Context) {
	h.deleteTag(c, versionTarget(c))
}

func versionTarget(c *gin.Context) domain.TagTarget {
	return domain.TagTarget{ModelName: c.Param("name"), Version: c.Param("version")}
}

func (h *Handler) listTags(c *gin.Context, target domain.TagTarget) {
	tags, err := h.tagSvc.List(c.Request.Context(), target)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TagsResponse{Name: target.ModelName, Version: target.Version, Tags: tags})
}

func (h *Handler) setTag(c *gin.Context, target domain.TagTarget) {
	var req dto.SetTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tagSvc.Set(c.Request.Context(), target, c.Param("key"), req.Value); err != nil {
		log.WithError(err).Error("set tag failed")
		mapDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteTag(c *gin.Context, target domain.TagTarget) {
	if err := h.tagSvc.Delete(c.Request.Context(), target, c.Param("key")); err != nil {
		log.WithError(err).Error("delete tag failed")
		mapDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
