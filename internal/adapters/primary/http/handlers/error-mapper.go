package handlers

import (
	"errors"
	"net/http"

	"mlflow-registry-workflow/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	var ambiguous *domain.AmbiguousModelError

	switch {
	// Ambiguous artifacts carry the candidates so the caller can pick one
	case errors.As(err, &ambiguous):
		c.JSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"candidates": ambiguous.Candidates,
		})

	// Not found errors
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrNoModelFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrInvalidSelection),
		errors.Is(err, domain.ErrInvalidModelName),
		errors.Is(err, domain.ErrInvalidExperiment),
		errors.Is(err, domain.ErrInvalidRunID),
		errors.Is(err, domain.ErrInvalidModelURI),
		errors.Is(err, domain.ErrInvalidStrategy),
		errors.Is(err, domain.ErrInvalidTag):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Service unavailable errors
	case errors.Is(err, domain.ErrUnreachableStore),
		errors.Is(err, domain.ErrLedgerNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrRegistration):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
