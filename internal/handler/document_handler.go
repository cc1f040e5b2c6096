package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/dto"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	appErrors "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/errors"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/response"
)

type documentService interface {
	Create(ctx context.Context, req dto.CreateDocumentRequest, claims *models.JWTClaims) (*models.Document, error)
	Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Document, error)
	List(ctx context.Context, query dto.DocumentQuery, claims *models.JWTClaims) (*dto.DocumentPage, error)
	History(ctx context.Context, id string, claims *models.JWTClaims) ([]models.DocumentReview, error)
	Decide(ctx context.Context, id string, req dto.DecideDocumentRequest, claims *models.JWTClaims) (*models.Document, error)
	Replace(ctx context.Context, id string, req dto.ReplaceDocumentRequest, claims *models.JWTClaims) (*models.Document, error)
	Delete(ctx context.Context, id string, expectedVersion int64, claims *models.JWTClaims) error
}

// DocumentHandler exposes member document endpoints.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service documentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Create godoc
// @Summary Upload a member document
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.CreateDocumentRequest true "Document metadata and file reference"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid document payload"))
		return
	}
	doc, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusCreated, doc, doc.Version)
}

// List godoc
// @Summary List documents visible to the caller
// @Tags Documents
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param kind query string false "Document kind"
// @Param memberId query string false "Owner member"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.DocumentQuery{
		Kind:     models.DocumentKind(strings.ToUpper(strings.TrimSpace(c.Query("kind")))),
		MemberID: strings.TrimSpace(c.Query("memberId")),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
				query.Status = append(query.Status, models.DocumentStatus(part))
			}
		}
	}
	page, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination)
}

// Get godoc
// @Summary Get a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doc, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, doc, doc.Version)
}

// History godoc
// @Summary List review decisions of a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/reviews [get]
func (h *DocumentHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	reviews, err := h.service.History(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// Decide godoc
// @Summary Approve or reject a pending document
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.DecideDocumentRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents/{id}/decide [post]
func (h *DocumentHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecideDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	if req.Version == 0 {
		if version, ok := versionFromIfMatch(c); ok {
			req.Version = version
		}
	}
	doc, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, doc, doc.Version)
}

// Replace godoc
// @Summary Replace the file of a rejected document
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.ReplaceDocumentRequest true "New file reference"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents/{id}/replace [post]
func (h *DocumentHandler) Replace(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReplaceDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid replace payload"))
		return
	}
	if req.Version == 0 {
		if version, ok := versionFromIfMatch(c); ok {
			req.Version = version
		}
	}
	doc, err := h.service.Replace(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Versioned(c, http.StatusOK, doc, doc.Version)
}

// Delete godoc
// @Summary Delete a document
// @Tags Documents
// @Param id path string true "Document ID"
// @Param If-Match header string false "Expected document version"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var expected int64
	if c.GetHeader("If-Match") != "" {
		version, ok := versionFromIfMatch(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "If-Match must carry a document version"))
			return
		}
		expected = version
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), expected, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
