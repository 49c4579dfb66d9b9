package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"formrank-service/internal/domain"
)

// FormStore persists forms, their questions and the response reports.
type FormStore interface {
	CreateForm(ctx context.Context, form *domain.Form) error
	GetForm(ctx context.Context, formID int64) (domain.Form, error)
	UpdateForm(ctx context.Context, formID int64, title, description string, deadline time.Time) error
	DeleteForm(ctx context.Context, formID int64) error
	ListForms(ctx context.Context) ([]domain.FormSummary, error)
	ListOpenForms(ctx context.Context, now time.Time) ([]domain.Form, error)
	// SetFormActive flips the accepting flag. The first activation stamps
	// ActivatedAt; later reactivations must not reset it.
	SetFormActive(ctx context.Context, formID int64, active bool, now time.Time) error

	CreateQuestion(ctx context.Context, q *domain.Question) error
	GetQuestion(ctx context.Context, questionID int64) (domain.Question, error)
	UpdateQuestion(ctx context.Context, q domain.Question) error
	DeleteQuestion(ctx context.Context, questionID int64) error
	ReorderQuestion(ctx context.Context, formID, questionID int64, order int) error
	ListQuestions(ctx context.Context, formID int64) ([]domain.Question, error)

	ListFormResponses(ctx context.Context, formID int64) ([]domain.FormResponse, error)
	ResponseDetail(ctx context.Context, envelopeID int64) ([]domain.ResponseAnswer, error)
}

// SnapshotSource serves the public read view of a form. The Redis cache
// implements it in front of the store; the store itself is the fallback.
type SnapshotSource interface {
	FormSnapshot(ctx context.Context, formID int64) (domain.FormSnapshot, error)
}

// SnapshotInvalidator is implemented by caching snapshot sources so admin
// edits show up before the TTL runs out.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, formID int64) error
}

// FormService covers administration of forms and questions plus the public
// read paths.
type FormService struct {
	store     FormStore
	snapshots SnapshotSource
}

func NewFormService(store FormStore, snapshots SnapshotSource) *FormService {
	return &FormService{store: store, snapshots: snapshots}
}

// CreateForm registers a new, initially inactive form owned by adminID.
func (s *FormService) CreateForm(ctx context.Context, title, description string, deadline time.Time, adminID int64, now time.Time) (domain.Form, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Form{}, errors.New("form title is required")
	}
	if deadline.IsZero() {
		return domain.Form{}, errors.New("form deadline is required")
	}
	form := domain.Form{
		Title:       title,
		Description: strings.TrimSpace(description),
		Deadline:    deadline,
		CreatedBy:   adminID,
		CreatedAt:   now,
	}
	if err := s.store.CreateForm(ctx, &form); err != nil {
		return domain.Form{}, err
	}
	return form, nil
}

// UpdateForm edits title, description and deadline of an existing form.
func (s *FormService) UpdateForm(ctx context.Context, formID int64, title, description string, deadline time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("form title is required")
	}
	if err := s.store.UpdateForm(ctx, formID, title, strings.TrimSpace(description), deadline); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, formID)
	return nil
}

// DeleteForm removes the form and, by cascade, its questions.
func (s *FormService) DeleteForm(ctx context.Context, formID int64) error {
	if err := s.store.DeleteForm(ctx, formID); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, formID)
	return nil
}

// Activate opens a form for responses. The scoring clock starts at the first
// activation and survives deactivate/reactivate cycles.
func (s *FormService) Activate(ctx context.Context, formID int64, now time.Time) error {
	return s.setActive(ctx, formID, true, now)
}

// Deactivate closes a form for responses without touching the scoring clock.
func (s *FormService) Deactivate(ctx context.Context, formID int64, now time.Time) error {
	return s.setActive(ctx, formID, false, now)
}

func (s *FormService) setActive(ctx context.Context, formID int64, active bool, now time.Time) error {
	if err := s.store.SetFormActive(ctx, formID, active, now); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, formID)
	return nil
}

func (s *FormService) invalidateSnapshot(ctx context.Context, formID int64) {
	if inv, ok := s.snapshots.(SnapshotInvalidator); ok {
		_ = inv.Invalidate(ctx, formID)
	}
}

// ListForms is the admin listing with creator names and response counts.
func (s *FormService) ListForms(ctx context.Context) ([]domain.FormSummary, error) {
	return s.store.ListForms(ctx)
}

// GetForm returns one form with its ordered questions, for administration.
func (s *FormService) GetForm(ctx context.Context, formID int64) (domain.FormSnapshot, error) {
	form, err := s.store.GetForm(ctx, formID)
	if err != nil {
		return domain.FormSnapshot{}, err
	}
	questions, err := s.store.ListQuestions(ctx, formID)
	if err != nil {
		return domain.FormSnapshot{}, err
	}
	return domain.FormSnapshot{Form: form, Questions: questions}, nil
}

// ListOpenForms returns the forms currently accepting responses.
func (s *FormService) ListOpenForms(ctx context.Context, now time.Time) ([]domain.Form, error) {
	return s.store.ListOpenForms(ctx, now)
}

// PublicForm serves the participant-facing view of an open form, via the
// snapshot cache when one is configured. The submission path re-checks
// availability against the store, so a stale snapshot can never let a closed
// form accept answers.
func (s *FormService) PublicForm(ctx context.Context, formID int64, now time.Time) (domain.FormSnapshot, error) {
	snapshot, err := s.snapshots.FormSnapshot(ctx, formID)
	if err != nil {
		return domain.FormSnapshot{}, err
	}
	if !snapshot.Form.AcceptsResponses(now) {
		return domain.FormSnapshot{}, domain.ErrFormUnavailable
	}
	return snapshot, nil
}

// AddQuestion appends a question to a form. Orders are unique within the
// form; multiple-choice questions must carry at least two options.
func (s *FormService) AddQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := validateQuestion(q); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.store.GetForm(ctx, q.FormID); err != nil {
		return domain.Question{}, err
	}
	existing, err := s.store.ListQuestions(ctx, q.FormID)
	if err != nil {
		return domain.Question{}, err
	}
	for _, other := range existing {
		if other.Order == q.Order {
			return domain.Question{}, domain.ErrOrderTaken
		}
	}
	if err := s.store.CreateQuestion(ctx, &q); err != nil {
		return domain.Question{}, err
	}
	s.invalidateSnapshot(ctx, q.FormID)
	return q, nil
}

// UpdateQuestion edits title, type, options and the required flag.
func (s *FormService) UpdateQuestion(ctx context.Context, questionID int64, title string, qtype domain.QuestionType, options []string, required bool) error {
	current, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	current.Title = strings.TrimSpace(title)
	current.Type = qtype
	current.Options = options
	current.Required = required
	if err := validateQuestion(current); err != nil {
		return err
	}
	if err := s.store.UpdateQuestion(ctx, current); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, current.FormID)
	return nil
}

// DeleteQuestion removes a question from its form.
func (s *FormService) DeleteQuestion(ctx context.Context, questionID int64) error {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, q.FormID)
	return nil
}

// ReorderQuestion moves a question to a new order slot. When another
// question already holds the slot the two swap, keeping orders unique.
func (s *FormService) ReorderQuestion(ctx context.Context, questionID int64, order int) error {
	if order <= 0 {
		return errors.New("question order must be positive")
	}
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if err := s.store.ReorderQuestion(ctx, q.FormID, questionID, order); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, q.FormID)
	return nil
}

// FormResponses lists a form's envelopes, newest first.
func (s *FormService) FormResponses(ctx context.Context, formID int64) ([]domain.FormResponse, error) {
	if _, err := s.store.GetForm(ctx, formID); err != nil {
		return nil, err
	}
	return s.store.ListFormResponses(ctx, formID)
}

// ResponseDetail returns the answers of one envelope in question order.
func (s *FormService) ResponseDetail(ctx context.Context, envelopeID int64) ([]domain.ResponseAnswer, error) {
	return s.store.ResponseDetail(ctx, envelopeID)
}

func validateQuestion(q domain.Question) error {
	if strings.TrimSpace(q.Title) == "" {
		return errors.New("question title is required")
	}
	if !q.Type.Valid() {
		return errors.New("unknown question type")
	}
	if q.Order <= 0 {
		return errors.New("question order must be positive")
	}
	if q.Type == domain.QuestionMultipleChoice && len(q.Options) < 2 {
		return errors.New("multiple choice needs at least two options")
	}
	if q.Type != domain.QuestionMultipleChoice && len(q.Options) > 0 {
		return errors.New("options are only valid for multiple choice")
	}
	return nil
}
