package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/adapters/primary/http/dto"
	"mlflow-registry-workflow/internal/core/domain"
)

func (h *Handler) EnsureExperiment(c *gin.Context) {
	var req dto.EnsureExperimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.experimentSvc.Ensure(c.Request.Context(), req.Name)
	if err != nil {
		log.WithError(err).Error("ensure experiment failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToExperimentResponse(exp))
}

func (h *Handler) SelectBestRun(c *gin.Context) {
	var req dto.BestRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	criteria := req.ToCriteria()
	if criteria.Strategy != "" && !criteria.Strategy.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidStrategy.Error()})
		return
	}

	exp, err := h.experimentSvc.Require(c.Request.Context(), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	run, err := h.selector.SelectBest(c.Request.Context(), exp.ID, criteria)
	if err != nil {
		log.WithError(err).WithField("experiment", exp.Name).Error("select best run failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BestRunResponse{
		Experiment: dto.ToExperimentResponse(exp),
		Run:        dto.ToRunResponse(run),
		Summary:    h.selector.Summarize(exp.Name, run, criteria.Hyperparameters),
	})
}

func (h *Handler) ListRunArtifacts(c *gin.Context) {
	tree, err := h.resolver.Tree(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.WithError(err).Error("list run artifacts failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToArtifactTreeResponse(tree))
}
