package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	appErrors "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/errors"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/response"
)

type progressService interface {
	Progress(ctx context.Context, memberID string, claims *models.JWTClaims) (*models.DocumentProgress, error)
}

// ProgressHandler serves document completion progress.
type ProgressHandler struct {
	service progressService
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service progressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// Get godoc
// @Summary Mandatory document progress of a member
// @Tags Documents
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /members/{id}/progress [get]
func (h *ProgressHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	progress, err := h.service.Progress(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
