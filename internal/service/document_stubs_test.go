package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/repository"
)

// documentStoreStub mimics the Postgres repository: compare-and-set on
// version and the partial unique index on active slots.
type documentStoreStub struct {
	mu            sync.Mutex
	docs          map[string]*models.Document
	reviews       []models.DocumentReview
	areas         map[string]string
	lastFilter    models.DocumentFilter
	skipSlotCheck bool
	gets          int
}

func newDocumentStoreStub(areas map[string]string) *documentStoreStub {
	return &documentStoreStub{docs: make(map[string]*models.Document), areas: areas}
}

func (s *documentStoreStub) put(doc models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = &doc
}

func (s *documentStoreStub) slotTakenLocked(ownerID string, kind models.DocumentKind, excludeID string) bool {
	if !kind.IsSlot() {
		return false
	}
	for _, doc := range s.docs {
		if doc.ID != excludeID && doc.OwnerID == ownerID && doc.Kind == kind && doc.Active() {
			return true
		}
	}
	return false
}

func (s *documentStoreStub) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slotTakenLocked(doc.OwnerID, doc.Kind, "") {
		return repository.ErrSlotTaken
	}
	doc.ID = uuid.NewString()
	doc.Status = models.DocumentStatusPending
	doc.Version = 1
	doc.UpdatedAt = doc.SubmittedAt
	stored := *doc
	s.docs[doc.ID] = &stored
	return nil
}

func (s *documentStoreStub) GetByID(_ context.Context, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	doc, ok := s.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *doc
	return &copied, nil
}

func (s *documentStoreStub) matching(filter models.DocumentFilter) []models.Document {
	all := make([]models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		all = append(all, *doc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if !filter.Scope.Valid() {
		return nil
	}
	visible := FilterDocuments(filter.Scope, all, func(owner string) string { return s.areas[owner] })
	result := make([]models.Document, 0, len(visible))
	for _, doc := range visible {
		if filter.Kind != "" && doc.Kind != filter.Kind {
			continue
		}
		if filter.MemberID != "" && doc.OwnerID != filter.MemberID {
			continue
		}
		if len(filter.Status) > 0 {
			found := false
			for _, status := range filter.Status {
				found = found || status == doc.Status
			}
			if !found {
				continue
			}
		}
		result = append(result, doc)
	}
	return result
}

func (s *documentStoreStub) List(_ context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter
	if !filter.Scope.Valid() {
		return nil, repository.ErrInvalidScope
	}
	docs := s.matching(filter)
	if filter.Offset >= len(docs) {
		return []models.Document{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[filter.Offset:end], nil
}

func (s *documentStoreStub) Count(_ context.Context, filter models.DocumentFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !filter.Scope.Valid() {
		return 0, repository.ErrInvalidScope
	}
	return len(s.matching(filter)), nil
}

func (s *documentStoreStub) HasActiveSlot(_ context.Context, ownerID string, kind models.DocumentKind, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skipSlotCheck {
		return false, nil
	}
	return s.slotTakenLocked(ownerID, kind, excludeID), nil
}

func (s *documentStoreStub) ApplyDecision(_ context.Context, params repository.DecisionParams) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[params.ID]
	if !ok || doc.Version != params.ExpectedVersion || doc.Status != models.DocumentStatusPending {
		return nil, sql.ErrNoRows
	}
	if params.AreaID != "" && s.areas[doc.OwnerID] != params.AreaID {
		return nil, sql.ErrNoRows
	}
	decidedAt := params.DecidedAt
	decidedBy := params.DecidedBy
	doc.Status = params.Status
	doc.ReviewNote = params.Note
	doc.DecidedAt = &decidedAt
	doc.DecidedBy = &decidedBy
	doc.Version++
	doc.UpdatedAt = decidedAt
	s.reviews = append(s.reviews, models.DocumentReview{
		ID:         fmt.Sprintf("rev-%d", len(s.reviews)+1),
		DocumentID: doc.ID,
		Version:    doc.Version,
		Outcome:    doc.Status,
		Note:       doc.ReviewNote,
		FileRef:    doc.FileRef,
		DecidedBy:  decidedBy,
		DecidedAt:  decidedAt,
	})
	copied := *doc
	return &copied, nil
}

func (s *documentStoreStub) ReplaceFile(_ context.Context, params repository.ReplaceParams) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[params.ID]
	if !ok || doc.Version != params.ExpectedVersion || doc.Status != models.DocumentStatusRejected {
		return nil, sql.ErrNoRows
	}
	if s.slotTakenLocked(doc.OwnerID, doc.Kind, doc.ID) {
		return nil, repository.ErrSlotTaken
	}
	doc.FileName = params.FileName
	doc.FileRef = params.FileRef
	doc.MimeType = params.MimeType
	doc.SizeBytes = params.SizeBytes
	doc.Status = models.DocumentStatusPending
	doc.ReviewNote = nil
	doc.DecidedAt = nil
	doc.DecidedBy = nil
	doc.SubmittedAt = params.SubmittedAt
	doc.UpdatedAt = params.SubmittedAt
	doc.Version++
	copied := *doc
	return &copied, nil
}

func (s *documentStoreStub) Delete(_ context.Context, id string, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.Version != expectedVersion {
		return sql.ErrNoRows
	}
	delete(s.docs, id)
	return nil
}

func (s *documentStoreStub) ListApprovedKinds(_ context.Context, memberID string) ([]models.DocumentKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[models.DocumentKind]bool)
	kinds := make([]models.DocumentKind, 0, 3)
	for _, doc := range s.docs {
		if doc.OwnerID == memberID && doc.Status == models.DocumentStatusApproved && doc.Kind.IsSlot() && !seen[doc.Kind] {
			seen[doc.Kind] = true
			kinds = append(kinds, doc.Kind)
		}
	}
	return kinds, nil
}

func (s *documentStoreStub) ListByDocument(_ context.Context, documentID string) ([]models.DocumentReview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DocumentReview, 0)
	for _, review := range s.reviews {
		if review.DocumentID == documentID {
			out = append(out, review)
		}
	}
	return out, nil
}

type areaStub struct {
	mu    sync.Mutex
	areas map[string]string
	calls int
	err   error
}

func (a *areaStub) ResolveArea(_ context.Context, memberID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	area, ok := a.areas[memberID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return area, nil
}

type documentAuditStub struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (a *documentAuditStub) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return a.err
}

func (a *documentAuditStub) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, log := range a.logs {
		out = append(out, log.Action)
	}
	return out
}

type eventRecorder struct {
	mu     sync.Mutex
	events []models.DocumentEvent
}

func (r *eventRecorder) Emit(_ context.Context, event models.DocumentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) Publish(ctx context.Context, event models.DocumentEvent) error {
	r.Emit(ctx, event)
	return nil
}

func (r *eventRecorder) snapshot() []models.DocumentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.DocumentEvent(nil), r.events...)
}

// Members m-a1 and m-a2 live in area A, m-b1 in area B.
var testMemberAreas = map[string]string{"m-a1": "A", "m-a2": "A", "m-b1": "B"}

// absentDocumentID is a well-formed id that no fixture ever stores.
const absentDocumentID = "0b7f4c7e-3d0a-4c55-9a43-5a2f0f3c9e11"

const concurrentDocumentID = "5d1e8a2b-6f4c-4b7e-9c3d-2a8b7e6f1c40"

type documentFixture struct {
	store  *documentStoreStub
	areas  *areaStub
	audit  *documentAuditStub
	events *eventRecorder
	svc    *DocumentService
}

func newDocumentFixture(opts ...DocumentServiceOption) *documentFixture {
	membership := make(map[string]string, len(testMemberAreas))
	for member, area := range testMemberAreas {
		membership[member] = area
	}
	store := newDocumentStoreStub(membership)
	areas := &areaStub{areas: membership}
	audit := &documentAuditStub{}
	events := &eventRecorder{}
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := NewDocumentService(store, areas, audit, nil, nil, DocumentConfig{
		MaxFileSizeBytes: 5 * 1024 * 1024,
		AllowedMIMEs:     []string{"application/pdf", "image/jpeg", "image/png"},
		DefaultPageSize:  20,
	},
		append([]DocumentServiceOption{
			WithDocumentReviews(store),
			WithDocumentEvents(events),
			WithDocumentClock(func() time.Time { return clock }),
		}, opts...)...,
	)
	return &documentFixture{store: store, areas: areas, audit: audit, events: events, svc: svc}
}

func memberClaims(memberID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-" + memberID, Role: models.RoleJemaat, MemberID: memberID}
}

func majelisClaims(areaID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "majelis-" + areaID, Role: models.RoleMajelis, AreaID: areaID}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

// moveMember re-homes memberID's household to areaID in the membership tables.
func (f *documentFixture) moveMember(memberID, areaID string) {
	f.areas.mu.Lock()
	defer f.areas.mu.Unlock()
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.areas.areas[memberID] = areaID
}

// moveBeforeDecision re-homes a household between the visibility check and
// the compare-and-set of a decision.
type moveBeforeDecision struct {
	*documentStoreStub
	move func()
}

func (m *moveBeforeDecision) ApplyDecision(ctx context.Context, params repository.DecisionParams) (*models.Document, error) {
	m.move()
	return m.documentStoreStub.ApplyDecision(ctx, params)
}
