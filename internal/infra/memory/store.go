package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"formrank-service/internal/domain"
)

// Store is an in-memory implementation of the app persistence interfaces.
// It backs unit tests and runs the service without Postgres, enforcing the
// same invariants the SQL schema does: unique participant emails, unique
// (form, participant) envelopes, derived totals.
type Store struct {
	mu sync.RWMutex

	nextFormID     int64
	nextQuestionID int64
	nextPartID     int64
	nextEnvID      int64
	nextAdminID    int64

	forms        map[int64]domain.Form
	questions    map[int64]domain.Question
	participants map[int64]domain.Participant
	envelopes    map[int64]domain.ResponseEnvelope
	answers      map[int64][]domain.Answer
	admins       map[int64]domain.Administrator
}

func NewStore() *Store {
	return &Store{
		forms:        make(map[int64]domain.Form),
		questions:    make(map[int64]domain.Question),
		participants: make(map[int64]domain.Participant),
		envelopes:    make(map[int64]domain.ResponseEnvelope),
		answers:      make(map[int64][]domain.Answer),
		admins:       make(map[int64]domain.Administrator),
	}
}

// ---- forms ----

func (s *Store) CreateForm(_ context.Context, form *domain.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextFormID++
	form.ID = s.nextFormID
	s.forms[form.ID] = *form
	return nil
}

func (s *Store) GetForm(_ context.Context, formID int64) (domain.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	form, ok := s.forms[formID]
	if !ok {
		return domain.Form{}, domain.ErrFormNotFound
	}
	return form, nil
}

func (s *Store) UpdateForm(_ context.Context, formID int64, title, description string, deadline time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.forms[formID]
	if !ok {
		return domain.ErrFormNotFound
	}
	form.Title = title
	form.Description = description
	form.Deadline = deadline
	s.forms[formID] = form
	return nil
}

func (s *Store) DeleteForm(_ context.Context, formID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[formID]; !ok {
		return domain.ErrFormNotFound
	}
	delete(s.forms, formID)
	for id, q := range s.questions {
		if q.FormID == formID {
			delete(s.questions, id)
		}
	}
	for id, env := range s.envelopes {
		if env.FormID == formID {
			delete(s.envelopes, id)
			delete(s.answers, id)
		}
	}
	return nil
}

func (s *Store) ListForms(_ context.Context) ([]domain.FormSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]domain.FormSummary, 0, len(s.forms))
	for _, form := range s.forms {
		summary := domain.FormSummary{Form: form}
		if admin, ok := s.admins[form.CreatedBy]; ok {
			summary.CreatorName = admin.Name
		}
		for _, env := range s.envelopes {
			if env.FormID == form.ID {
				summary.ResponseCount++
			}
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID > summaries[j].ID
	})
	return summaries, nil
}

func (s *Store) ListOpenForms(_ context.Context, now time.Time) ([]domain.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	open := make([]domain.Form, 0)
	for _, form := range s.forms {
		if form.AcceptsResponses(now) {
			open = append(open, form)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].CreatedAt.After(open[j].CreatedAt)
		}
		return open[i].ID > open[j].ID
	})
	return open, nil
}

func (s *Store) SetFormActive(_ context.Context, formID int64, active bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.forms[formID]
	if !ok {
		return domain.ErrFormNotFound
	}
	form.Active = active
	if active && form.ActivatedAt == nil {
		stamp := now
		form.ActivatedAt = &stamp
	}
	s.forms[formID] = form
	return nil
}

// FormSnapshot serves the public form view straight from the store.
func (s *Store) FormSnapshot(ctx context.Context, formID int64) (domain.FormSnapshot, error) {
	form, err := s.GetForm(ctx, formID)
	if err != nil {
		return domain.FormSnapshot{}, err
	}
	questions, err := s.ListQuestions(ctx, formID)
	if err != nil {
		return domain.FormSnapshot{}, err
	}
	return domain.FormSnapshot{Form: form, Questions: questions}, nil
}

// ---- questions ----

func (s *Store) CreateQuestion(_ context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[q.FormID]; !ok {
		return domain.ErrFormNotFound
	}
	s.nextQuestionID++
	q.ID = s.nextQuestionID
	s.questions[q.ID] = *q
	return nil
}

func (s *Store) GetQuestion(_ context.Context, questionID int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *Store) UpdateQuestion(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.questions[q.ID] = q
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, questionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[questionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, questionID)
	return nil
}

func (s *Store) ReorderQuestion(_ context.Context, formID, questionID int64, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	moving, ok := s.questions[questionID]
	if !ok || moving.FormID != formID {
		return domain.ErrQuestionNotFound
	}
	for id, other := range s.questions {
		if other.FormID == formID && other.Order == order && id != questionID {
			other.Order = moving.Order
			s.questions[id] = other
			break
		}
	}
	moving.Order = order
	s.questions[questionID] = moving
	return nil
}

func (s *Store) ListQuestions(_ context.Context, formID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.FormID == formID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	return questions, nil
}

// ---- participants ----

func (s *Store) FindParticipantByEmail(_ context.Context, email string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants {
		if p.Email == email {
			return p, nil
		}
	}
	return domain.Participant{}, domain.ErrParticipantNotFound
}

func (s *Store) CreateParticipant(_ context.Context, p *domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.participants {
		if existing.Email == p.Email {
			return domain.ErrDuplicateEmail
		}
	}
	s.nextPartID++
	p.ID = s.nextPartID
	s.participants[p.ID] = *p
	return nil
}

func (s *Store) RenameParticipant(_ context.Context, participantID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	p.Name = name
	s.participants[participantID] = p
	return nil
}

// ---- submissions ----

func (s *Store) HasResponded(_ context.Context, formID, participantID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasRespondedLocked(formID, participantID), nil
}

func (s *Store) hasRespondedLocked(formID, participantID int64) bool {
	for _, env := range s.envelopes {
		if env.FormID == formID && env.ParticipantID == participantID {
			return true
		}
	}
	return false
}

func (s *Store) RecordSubmission(_ context.Context, env *domain.ResponseEnvelope, answers []domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[env.ParticipantID]; !ok {
		return domain.ErrParticipantNotFound
	}
	if s.hasRespondedLocked(env.FormID, env.ParticipantID) {
		return domain.ErrDuplicateSubmission
	}
	s.nextEnvID++
	env.ID = s.nextEnvID
	s.envelopes[env.ID] = *env

	kept := make([]domain.Answer, 0, len(answers))
	for _, a := range answers {
		a.EnvelopeID = env.ID
		kept = append(kept, a)
	}
	s.answers[env.ID] = kept

	s.recomputeTotalsLocked(env.ParticipantID)
	return nil
}

func (s *Store) recomputeTotalsLocked(participantID int64) {
	p := s.participants[participantID]
	p.TotalScore = 0
	p.TotalForms = 0
	for _, env := range s.envelopes {
		if env.ParticipantID == participantID {
			p.TotalScore += env.Points
			p.TotalForms++
		}
	}
	s.participants[participantID] = p
}

// ---- reporting ----

func (s *Store) ListFormResponses(_ context.Context, formID int64) ([]domain.FormResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	responses := make([]domain.FormResponse, 0)
	for _, env := range s.envelopes {
		if env.FormID != formID {
			continue
		}
		r := domain.FormResponse{
			EnvelopeID:  env.ID,
			SubmittedAt: env.SubmittedAt,
			Points:      env.Points,
		}
		if p, ok := s.participants[env.ParticipantID]; ok {
			r.ParticipantName = p.Name
			r.ParticipantEmail = p.Email
		}
		responses = append(responses, r)
	}
	sort.Slice(responses, func(i, j int) bool {
		if !responses[i].SubmittedAt.Equal(responses[j].SubmittedAt) {
			return responses[i].SubmittedAt.After(responses[j].SubmittedAt)
		}
		return responses[i].EnvelopeID > responses[j].EnvelopeID
	})
	return responses, nil
}

func (s *Store) ResponseDetail(_ context.Context, envelopeID int64) ([]domain.ResponseAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.envelopes[envelopeID]; !ok {
		return nil, domain.ErrResponseNotFound
	}
	detail := make([]domain.ResponseAnswer, 0)
	for _, a := range s.answers[envelopeID] {
		ra := domain.ResponseAnswer{Text: a.Text}
		if q, ok := s.questions[a.QuestionID]; ok {
			ra.QuestionTitle = q.Title
			ra.QuestionType = q.Type
			ra.QuestionOrder = q.Order
		}
		detail = append(detail, ra)
	}
	sort.Slice(detail, func(i, j int) bool { return detail[i].QuestionOrder < detail[j].QuestionOrder })
	return detail, nil
}

// ---- ranking ----

func (s *Store) GlobalRanking(_ context.Context) ([]domain.RankingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rankingLocked(), nil
}

func (s *Store) TopParticipants(_ context.Context, limit int) ([]domain.RankingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ranking := s.rankingLocked()
	if limit < len(ranking) {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// rankingLocked orders by score desc, registration asc, id asc; the id key
// keeps the order total even when score and registration instant collide.
func (s *Store) rankingLocked() []domain.RankingEntry {
	ranked := make([]domain.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if p.TotalScore > 0 {
			ranked = append(ranked, p)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		if !ranked[i].RegisteredAt.Equal(ranked[j].RegisteredAt) {
			return ranked[i].RegisteredAt.Before(ranked[j].RegisteredAt)
		}
		return ranked[i].ID < ranked[j].ID
	})
	entries := make([]domain.RankingEntry, len(ranked))
	for i, p := range ranked {
		entries[i] = domain.RankingEntry{
			Name:       p.Name,
			Email:      p.Email,
			TotalScore: p.TotalScore,
			TotalForms: p.TotalForms,
			Position:   i + 1,
		}
	}
	return entries
}

func (s *Store) Overview(_ context.Context) (domain.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var o domain.Overview
	for _, form := range s.forms {
		o.TotalForms++
		if form.Active {
			o.ActiveForms++
		}
	}
	for _, p := range s.participants {
		if p.TotalScore > 0 {
			o.RankedParticipants++
		}
	}
	sum := 0
	for _, env := range s.envelopes {
		o.TotalResponses++
		sum += env.Points
	}
	if o.TotalResponses > 0 {
		o.AveragePoints = float64(sum) / float64(o.TotalResponses)
	}
	return o, nil
}

// ---- administrators ----

func (s *Store) FindAdminByEmail(_ context.Context, email string) (domain.Administrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return domain.Administrator{}, domain.ErrAdminNotFound
}

// SeedAdmin registers an administrator account, for tests and the memory-only mode.
func (s *Store) SeedAdmin(admin domain.Administrator) domain.Administrator {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAdminID++
	admin.ID = s.nextAdminID
	s.admins[admin.ID] = admin
	return admin
}
