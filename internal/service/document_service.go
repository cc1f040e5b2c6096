package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/dto"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/repository"
	appErrors "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/errors"
)

const maxDocumentPageSize = 100

type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error)
	Count(ctx context.Context, filter models.DocumentFilter) (int, error)
	HasActiveSlot(ctx context.Context, ownerID string, kind models.DocumentKind, excludeID string) (bool, error)
	ApplyDecision(ctx context.Context, params repository.DecisionParams) (*models.Document, error)
	ReplaceFile(ctx context.Context, params repository.ReplaceParams) (*models.Document, error)
	Delete(ctx context.Context, id string, expectedVersion int64) error
}

type documentReviewReader interface {
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentReview, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type documentEventEmitter interface {
	Emit(ctx context.Context, event models.DocumentEvent)
}

// DocumentConfig holds upload metadata limits.
type DocumentConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	DefaultPageSize  int
}

// DocumentService owns the member document lifecycle: upload, scoped reads,
// review decisions, replacement of rejected files and deletion.
type DocumentService struct {
	repo       documentStore
	reviews    documentReviewReader
	areas      memberAreaResolver
	audit      auditLogger
	events     documentEventEmitter
	eventAreas memberAreaResolver
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	config     DocumentConfig
	now        func() time.Time
}

// DocumentServiceOption configures the service.
type DocumentServiceOption func(*DocumentService)

// WithDocumentReviews enables the review history endpoint.
func WithDocumentReviews(reviews documentReviewReader) DocumentServiceOption {
	return func(s *DocumentService) {
		s.reviews = reviews
	}
}

// WithDocumentEvents routes decided/replaced events to emitter.
func WithDocumentEvents(emitter documentEventEmitter) DocumentServiceOption {
	return func(s *DocumentService) {
		s.events = emitter
	}
}

// WithDocumentEventAreas sets the lookup used to tag events with the owner's
// area. It may be cached; authorization never reads it.
func WithDocumentEventAreas(areas memberAreaResolver) DocumentServiceOption {
	return func(s *DocumentService) {
		s.eventAreas = areas
	}
}

// WithDocumentMetrics records decision and conflict counters.
func WithDocumentMetrics(metrics *MetricsService) DocumentServiceOption {
	return func(s *DocumentService) {
		s.metrics = metrics
	}
}

// WithDocumentClock overrides the time source.
func WithDocumentClock(now func() time.Time) DocumentServiceOption {
	return func(s *DocumentService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDocumentService constructs the service. areas must read the membership
// tables directly since it decides what area reviewers may see.
func NewDocumentService(repo documentStore, areas memberAreaResolver, audit auditLogger, validate *validator.Validate, logger *zap.Logger, config DocumentConfig, opts ...DocumentServiceOption) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = 20
	}
	svc := &DocumentService{
		repo:      repo,
		areas:     areas,
		audit:     audit,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create stores a new PENDING document. Members upload for themselves; global
// reviewers may upload on behalf of req.MemberID. Area reviewers cannot upload.
func (s *DocumentService) Create(ctx context.Context, req dto.CreateDocumentRequest, claims *models.JWTClaims) (*models.Document, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	req.Kind = models.DocumentKind(strings.ToUpper(strings.TrimSpace(string(req.Kind))))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}

	ownerID, err := s.resolveOwner(ctx, scope, strings.TrimSpace(req.MemberID))
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		if req.Kind == models.DocumentKindOther {
			return nil, appErrors.ErrMissingTitle
		}
		title = req.Kind.DefaultTitle()
	}
	if err := s.checkFileMetadata(req.MimeType, req.SizeBytes); err != nil {
		return nil, err
	}

	if req.Kind.IsSlot() {
		taken, err := s.repo.HasActiveSlot(ctx, ownerID, req.Kind, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check document slot")
		}
		if taken {
			return nil, appErrors.ErrDuplicateSlot
		}
	}

	doc := &models.Document{
		OwnerID:     ownerID,
		Kind:        req.Kind,
		Title:       title,
		FileName:    strings.TrimSpace(req.FileName),
		FileRef:     strings.TrimSpace(req.FileRef),
		MimeType:    optionalString(req.MimeType),
		SizeBytes:   optionalSize(req.SizeBytes),
		SubmittedAt: s.now(),
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.ErrDuplicateSlot
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document")
	}

	s.emitAudit(ctx, scope.ActorID, models.AuditActionDocumentCreate, doc.ID, nil, doc)
	return doc, nil
}

// Get returns a single document visible to the caller.
func (s *DocumentService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Document, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	return s.loadVisible(ctx, scope, id)
}

// List returns a page of documents restricted to the caller's scope. The
// scope is part of the query so totals never count hidden rows.
func (s *DocumentService) List(ctx context.Context, query dto.DocumentQuery, claims *models.JWTClaims) (*dto.DocumentPage, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}

	for _, status := range query.Status {
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter: "+string(status))
		}
	}
	if query.Kind != "" && !query.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown kind filter: "+string(query.Kind))
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = s.config.DefaultPageSize
	}
	if size > maxDocumentPageSize {
		size = maxDocumentPageSize
	}

	filter := models.DocumentFilter{
		Scope:    scope,
		Status:   query.Status,
		Kind:     query.Kind,
		MemberID: strings.TrimSpace(query.MemberID),
		Limit:    size,
		Offset:   (page - 1) * size,
	}
	docs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return &dto.DocumentPage{
		Items:      docs,
		Pagination: models.Pagination{Page: page, PageSize: size, TotalCount: total},
	}, nil
}

// Delete removes a document. Only global reviewers may delete. A positive
// expectedVersion must match the stored version; otherwise the version just
// read is used for the compare-and-set.
func (s *DocumentService) Delete(ctx context.Context, id string, expectedVersion int64, claims *models.JWTClaims) error {
	scope, err := ResolveScope(claims)
	if err != nil {
		return err
	}
	if scope.Kind != models.ScopeGlobal {
		return appErrors.ErrForbidden
	}

	doc, err := s.loadVisible(ctx, scope, id)
	if err != nil {
		return err
	}
	if expectedVersion > 0 && expectedVersion != doc.Version {
		s.metrics.RecordConflict("delete")
		return appErrors.ErrConflict
	}

	if err := s.repo.Delete(ctx, doc.ID, doc.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordConflict("delete")
			return appErrors.ErrConflict
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}

	s.emitAudit(ctx, scope.ActorID, models.AuditActionDocumentDelete, doc.ID, doc, nil)
	return nil
}

// History returns the decision log of a visible document, oldest first.
func (s *DocumentService) History(ctx context.Context, id string, claims *models.JWTClaims) ([]models.DocumentReview, error) {
	scope, err := ResolveScope(claims)
	if err != nil {
		return nil, err
	}
	doc, err := s.loadVisible(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if s.reviews == nil {
		return []models.DocumentReview{}, nil
	}
	reviews, err := s.reviews.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review history")
	}
	if reviews == nil {
		reviews = []models.DocumentReview{}
	}
	return reviews, nil
}

// loadVisible fetches id and checks it against scope. Outside the global scope
// a missing document is reported exactly like an invisible one. Ids that are
// not UUIDs cannot exist and are treated as missing.
func (s *DocumentService) loadVisible(ctx context.Context, scope models.Scope, id string) (*models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, missingDocument(scope)
	}
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, missingDocument(scope)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	visible, err := canSee(ctx, s.areas, scope, doc.OwnerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve member area")
	}
	if !visible {
		return nil, appErrors.ErrForbidden
	}
	return doc, nil
}

func missingDocument(scope models.Scope) error {
	if scope.Kind == models.ScopeGlobal {
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return appErrors.ErrForbidden
}

func (s *DocumentService) resolveOwner(ctx context.Context, scope models.Scope, memberID string) (string, error) {
	switch scope.Kind {
	case models.ScopeOwn:
		if memberID != "" && memberID != scope.MemberID {
			return "", appErrors.ErrForbidden
		}
		return scope.MemberID, nil
	case models.ScopeGlobal:
		if memberID == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "memberId is required when uploading for a member")
		}
		if _, err := s.areas.ResolveArea(ctx, memberID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrNotFound, "member not found")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve member")
		}
		return memberID, nil
	}
	return "", appErrors.ErrForbidden
}

func (s *DocumentService) checkFileMetadata(mimeType string, sizeBytes int64) error {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType != "" && len(s.config.AllowedMIMEs) > 0 {
		allowed := false
		for _, candidate := range s.config.AllowedMIMEs {
			if strings.EqualFold(candidate, mimeType) {
				allowed = true
				break
			}
		}
		if !allowed {
			return appErrors.Clone(appErrors.ErrValidation, "file type is not allowed")
		}
	}
	if s.config.MaxFileSizeBytes > 0 && sizeBytes > s.config.MaxFileSizeBytes {
		return appErrors.Clone(appErrors.ErrValidation, "file exceeds the maximum allowed size")
	}
	return nil
}

func (s *DocumentService) emit(ctx context.Context, scope models.Scope, eventType string, doc *models.Document) {
	if s.events == nil {
		return
	}
	areaID := scope.AreaID
	if areaID == "" && s.eventAreas != nil {
		resolved, err := s.eventAreas.ResolveArea(ctx, doc.OwnerID)
		if err != nil {
			s.logger.Debug("event area unresolved", zap.String("member_id", doc.OwnerID), zap.Error(err))
		}
		areaID = resolved
	}
	s.events.Emit(ctx, models.DocumentEvent{
		Type:       eventType,
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		AreaID:     areaID,
		Kind:       doc.Kind,
		Outcome:    doc.Status,
		ActorID:    scope.ActorID,
		Version:    doc.Version,
		OccurredAt: doc.UpdatedAt,
	})
}

func (s *DocumentService) emitAudit(ctx context.Context, actorID, action, documentID string, before, after *models.Document) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "member_document",
		ResourceID: &documentID,
		IPAddress:  "system",
		UserAgent:  "document-service",
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		entry.NewValues, _ = json.Marshal(after)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", action), zap.String("document_id", documentID), zap.Error(err))
	}
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}

func optionalSize(value int64) *int64 {
	if value <= 0 {
		return nil
	}
	return &value
}
