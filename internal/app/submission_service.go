package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"formrank-service/internal/domain"
)

// LedgerStore is the persistence surface the submission path needs. The
// uniqueness of (form, participant) envelopes is enforced by the store, not
// by a check here: RecordSubmission must reject a second envelope for the
// same pair with domain.ErrDuplicateSubmission even under concurrent calls.
type LedgerStore interface {
	GetForm(ctx context.Context, formID int64) (domain.Form, error)
	FindParticipantByEmail(ctx context.Context, email string) (domain.Participant, error)
	CreateParticipant(ctx context.Context, p *domain.Participant) error
	RenameParticipant(ctx context.Context, participantID int64, name string) error
	HasResponded(ctx context.Context, formID, participantID int64) (bool, error)
	// RecordSubmission atomically inserts the envelope and its answers and
	// recomputes the participant's derived totals.
	RecordSubmission(ctx context.Context, env *domain.ResponseEnvelope, answers []domain.Answer) error
}

// SubmissionService is the response ledger: it gatekeeps submission
// eligibility, awards points and persists the result.
type SubmissionService struct {
	store LedgerStore
}

func NewSubmissionService(store LedgerStore) *SubmissionService {
	return &SubmissionService{store: store}
}

// Submit records one participant's answers to a form and returns the points
// awarded. The participant is resolved by email and created on first contact;
// on later submissions the stored name follows the submitted one.
func (s *SubmissionService) Submit(ctx context.Context, formID int64, name, email string, answers []domain.AnswerInput, now time.Time) (int, error) {
	form, err := s.store.GetForm(ctx, formID)
	if err != nil {
		return 0, err
	}
	if !form.AcceptsResponses(now) {
		return 0, domain.ErrFormUnavailable
	}

	participant, err := s.resolveParticipant(ctx, name, email, now)
	if err != nil {
		return 0, err
	}

	env := domain.ResponseEnvelope{
		FormID:        formID,
		ParticipantID: participant.ID,
		SubmittedAt:   now,
		Points:        domain.ComputeAward(form.ActivatedAt, now),
	}
	if err := s.store.RecordSubmission(ctx, &env, keptAnswers(answers)); err != nil {
		return 0, err
	}
	return env.Points, nil
}

// HasResponded reports whether the email already has an envelope for the form.
// An unknown email trivially has not responded.
func (s *SubmissionService) HasResponded(ctx context.Context, formID int64, email string) (bool, error) {
	participant, err := s.store.FindParticipantByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrParticipantNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.store.HasResponded(ctx, formID, participant.ID)
}

func (s *SubmissionService) resolveParticipant(ctx context.Context, name, email string, now time.Time) (domain.Participant, error) {
	email = normalizeEmail(email)
	participant, err := s.store.FindParticipantByEmail(ctx, email)
	switch {
	case err == nil:
		if participant.Name != name {
			if err := s.store.RenameParticipant(ctx, participant.ID, name); err != nil {
				return domain.Participant{}, err
			}
			participant.Name = name
		}
		return participant, nil
	case errors.Is(err, domain.ErrParticipantNotFound):
		created := domain.Participant{Name: name, Email: email, RegisteredAt: now}
		err := s.store.CreateParticipant(ctx, &created)
		if err == nil {
			return created, nil
		}
		// Lost a creation race: the row now exists, fall back to lookup.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return s.store.FindParticipantByEmail(ctx, email)
		}
		return domain.Participant{}, err
	default:
		return domain.Participant{}, err
	}
}

// keptAnswers trims answer text and drops answers that are empty afterwards.
func keptAnswers(inputs []domain.AnswerInput) []domain.Answer {
	kept := make([]domain.Answer, 0, len(inputs))
	for _, in := range inputs {
		text := strings.TrimSpace(in.Text)
		if in.QuestionID == 0 || text == "" {
			continue
		}
		kept = append(kept, domain.Answer{QuestionID: in.QuestionID, Text: text})
	}
	return kept
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
