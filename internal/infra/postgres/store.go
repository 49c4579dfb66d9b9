package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"formrank-service/internal/domain"
)

// Store is the bun-backed persistence layer. The (form_id, participant_id)
// unique index on response_envelopes is the authority for the
// one-envelope-per-pair invariant; this code only translates its violations.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// ---- forms ----

func (s *Store) CreateForm(ctx context.Context, form *domain.Form) error {
	row := formRow{
		Title:       form.Title,
		Description: form.Description,
		Deadline:    form.Deadline,
		Active:      form.Active,
		CreatedBy:   form.CreatedBy,
		CreatedAt:   form.CreatedAt,
		ActivatedAt: form.ActivatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert form: %w", err)
	}
	form.ID = row.ID
	return nil
}

func (s *Store) GetForm(ctx context.Context, formID int64) (domain.Form, error) {
	var row formRow
	err := s.db.NewSelect().Model(&row).Where("f.id = ?", formID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Form{}, domain.ErrFormNotFound
	}
	if err != nil {
		return domain.Form{}, fmt.Errorf("select form: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateForm(ctx context.Context, formID int64, title, description string, deadline time.Time) error {
	res, err := s.db.NewUpdate().Model((*formRow)(nil)).
		Set("title = ?", title).
		Set("description = ?", description).
		Set("deadline = ?", deadline).
		Where("id = ?", formID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	return requireAffected(res, domain.ErrFormNotFound)
}

func (s *Store) DeleteForm(ctx context.Context, formID int64) error {
	res, err := s.db.NewDelete().Model((*formRow)(nil)).Where("id = ?", formID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	return requireAffected(res, domain.ErrFormNotFound)
}

func (s *Store) ListForms(ctx context.Context) ([]domain.FormSummary, error) {
	var rows []formSummaryRow
	err := s.db.NewSelect().Model(&rows).
		ColumnExpr("f.*").
		ColumnExpr("COALESCE(u.name, '') AS creator_name").
		ColumnExpr("(SELECT COUNT(*) FROM response_envelopes r WHERE r.form_id = f.id) AS response_count").
		Join("LEFT JOIN administrators AS u ON u.id = f.created_by").
		OrderExpr("f.created_at DESC, f.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	summaries := make([]domain.FormSummary, len(rows))
	for i, row := range rows {
		summaries[i] = domain.FormSummary{
			Form:          row.toDomain(),
			CreatorName:   row.CreatorName,
			ResponseCount: row.ResponseCount,
		}
	}
	return summaries, nil
}

func (s *Store) ListOpenForms(ctx context.Context, now time.Time) ([]domain.Form, error) {
	var rows []formRow
	err := s.db.NewSelect().Model(&rows).
		Where("f.active").
		Where("f.deadline > ?", now).
		OrderExpr("f.created_at DESC, f.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open forms: %w", err)
	}
	forms := make([]domain.Form, len(rows))
	for i, row := range rows {
		forms[i] = row.toDomain()
	}
	return forms, nil
}

func (s *Store) SetFormActive(ctx context.Context, formID int64, active bool, now time.Time) error {
	q := s.db.NewUpdate().Model((*formRow)(nil)).Set("active = ?", active).Where("id = ?", formID)
	if active {
		// First activation starts the scoring clock; reactivation keeps it.
		q = q.Set("activated_at = COALESCE(activated_at, ?)", now)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("set form active: %w", err)
	}
	return requireAffected(res, domain.ErrFormNotFound)
}

// FormSnapshot loads a form with its ordered questions, for the public view
// and as the loader behind the Redis snapshot cache.
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

func (s *Store) CreateQuestion(ctx context.Context, q *domain.Question) error {
	row := questionRow{
		FormID:   q.FormID,
		Title:    q.Title,
		Type:     string(q.Type),
		Options:  q.Options,
		Order:    q.Order,
		Required: q.Required,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	q.ID = row.ID
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, questionID int64) (domain.Question, error) {
	var row questionRow
	err := s.db.NewSelect().Model(&row).Where("q.id = ?", questionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("select question: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q domain.Question) error {
	row := questionRow{
		ID:       q.ID,
		Title:    q.Title,
		Type:     string(q.Type),
		Options:  q.Options,
		Required: q.Required,
	}
	res, err := s.db.NewUpdate().Model(&row).
		Column("title", "type", "options", "required").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID int64) error {
	res, err := s.db.NewDelete().Model((*questionRow)(nil)).Where("id = ?", questionID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

// ReorderQuestion moves a question to the given slot, swapping with the
// current occupant so orders stay unique within the form.
func (s *Store) ReorderQuestion(ctx context.Context, formID, questionID int64, order int) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var moving questionRow
		err := tx.NewSelect().Model(&moving).
			Where("q.id = ? AND q.form_id = ?", questionID, formID).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrQuestionNotFound
		}
		if err != nil {
			return fmt.Errorf("select question: %w", err)
		}
		if moving.Order == order {
			return nil
		}
		if _, err := tx.NewUpdate().Model((*questionRow)(nil)).
			Set("ord = ?", moving.Order).
			Where("form_id = ? AND ord = ? AND id != ?", formID, order, questionID).
			Exec(ctx); err != nil {
			return fmt.Errorf("swap question order: %w", err)
		}
		if _, err := tx.NewUpdate().Model((*questionRow)(nil)).
			Set("ord = ?", order).
			Where("id = ?", questionID).
			Exec(ctx); err != nil {
			return fmt.Errorf("move question: %w", err)
		}
		return nil
	})
}

func (s *Store) ListQuestions(ctx context.Context, formID int64) ([]domain.Question, error) {
	var rows []questionRow
	err := s.db.NewSelect().Model(&rows).
		Where("q.form_id = ?", formID).
		Order("q.ord ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questions := make([]domain.Question, len(rows))
	for i, row := range rows {
		questions[i] = row.toDomain()
	}
	return questions, nil
}

// ---- participants ----

func (s *Store) FindParticipantByEmail(ctx context.Context, email string) (domain.Participant, error) {
	var row participantRow
	err := s.db.NewSelect().Model(&row).Where("p.email = ?", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("select participant: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateParticipant(ctx context.Context, p *domain.Participant) error {
	row := participantRow{
		Name:         p.Name,
		Email:        p.Email,
		RegisteredAt: p.RegisteredAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return translateConstraint(err, "insert participant")
	}
	p.ID = row.ID
	return nil
}

func (s *Store) RenameParticipant(ctx context.Context, participantID int64, name string) error {
	res, err := s.db.NewUpdate().Model((*participantRow)(nil)).
		Set("name = ?", name).
		Where("id = ?", participantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rename participant: %w", err)
	}
	return requireAffected(res, domain.ErrParticipantNotFound)
}

// ---- submissions ----

func (s *Store) HasResponded(ctx context.Context, formID, participantID int64) (bool, error) {
	exists, err := s.db.NewSelect().Model((*envelopeRow)(nil)).
		Where("r.form_id = ? AND r.participant_id = ?", formID, participantID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check envelope: %w", err)
	}
	return exists, nil
}

// RecordSubmission inserts the envelope and its answers and recomputes the
// participant totals in a single transaction. A unique-index violation on
// (form_id, participant_id) surfaces as domain.ErrDuplicateSubmission.
func (s *Store) RecordSubmission(ctx context.Context, env *domain.ResponseEnvelope, answers []domain.Answer) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row := envelopeRow{
			FormID:        env.FormID,
			ParticipantID: env.ParticipantID,
			SubmittedAt:   env.SubmittedAt,
			Points:        env.Points,
		}
		if _, err := tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			return translateConstraint(err, "insert envelope")
		}
		env.ID = row.ID

		if len(answers) > 0 {
			rows := make([]answerRow, len(answers))
			for i, a := range answers {
				rows[i] = answerRow{
					EnvelopeID: row.ID,
					QuestionID: a.QuestionID,
					Text:       a.Text,
				}
			}
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert answers: %w", err)
			}
		}

		_, err := tx.NewUpdate().Model((*participantRow)(nil)).
			Set("total_score = (SELECT COALESCE(SUM(points), 0) FROM response_envelopes WHERE participant_id = ?)", env.ParticipantID).
			Set("total_forms = (SELECT COUNT(*) FROM response_envelopes WHERE participant_id = ?)", env.ParticipantID).
			Where("id = ?", env.ParticipantID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("recompute totals: %w", err)
		}
		return nil
	})
}

// ---- reporting ----

func (s *Store) ListFormResponses(ctx context.Context, formID int64) ([]domain.FormResponse, error) {
	var rows []formResponseRow
	err := s.db.NewSelect().Model(&rows).
		ColumnExpr("r.*").
		ColumnExpr("COALESCE(p.name, '') AS participant_name").
		ColumnExpr("COALESCE(p.email, '') AS participant_email").
		Join("LEFT JOIN participants AS p ON p.id = r.participant_id").
		Where("r.form_id = ?", formID).
		OrderExpr("r.submitted_at DESC, r.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	responses := make([]domain.FormResponse, len(rows))
	for i, row := range rows {
		responses[i] = domain.FormResponse{
			EnvelopeID:       row.ID,
			SubmittedAt:      row.SubmittedAt,
			Points:           row.Points,
			ParticipantName:  row.ParticipantName,
			ParticipantEmail: row.ParticipantEmail,
		}
	}
	return responses, nil
}

func (s *Store) ResponseDetail(ctx context.Context, envelopeID int64) ([]domain.ResponseAnswer, error) {
	exists, err := s.db.NewSelect().Model((*envelopeRow)(nil)).Where("r.id = ?", envelopeID).Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check envelope: %w", err)
	}
	if !exists {
		return nil, domain.ErrResponseNotFound
	}

	var rows []responseAnswerRow
	err = s.db.NewSelect().Model(&rows).
		ColumnExpr("a.*").
		ColumnExpr("COALESCE(q.title, '') AS question_title").
		ColumnExpr("COALESCE(q.type, '') AS question_type").
		ColumnExpr("COALESCE(q.ord, 0) AS question_order").
		Join("LEFT JOIN questions AS q ON q.id = a.question_id").
		Where("a.envelope_id = ?", envelopeID).
		OrderExpr("q.ord ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	detail := make([]domain.ResponseAnswer, len(rows))
	for i, row := range rows {
		detail[i] = domain.ResponseAnswer{
			QuestionTitle: row.QuestionTitle,
			QuestionType:  domain.QuestionType(row.QuestionType),
			QuestionOrder: row.QuestionOrder,
			Text:          row.Text,
		}
	}
	return detail, nil
}

// ---- administrators ----

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (domain.Administrator, error) {
	var row adminRow
	err := s.db.NewSelect().Model(&row).Where("lower(u.email) = lower(?)", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Administrator{}, domain.ErrAdminNotFound
	}
	if err != nil {
		return domain.Administrator{}, fmt.Errorf("select administrator: %w", err)
	}
	return row.toDomain(), nil
}

// CreateAdmin registers an administrator account, for the seed command.
func (s *Store) CreateAdmin(ctx context.Context, admin *domain.Administrator) error {
	row := adminRow{
		Name:         admin.Name,
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		Active:       admin.Active,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return translateConstraint(err, "insert administrator")
	}
	admin.ID = row.ID
	return nil
}

// ---- helpers ----

// translateConstraint maps Postgres unique violations (SQLSTATE 23505) onto
// the domain error for the constraint that fired.
func translateConstraint(err error, op string) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		constraint := pgErr.Field('n')
		switch {
		case strings.Contains(constraint, "participants_email"):
			return domain.ErrDuplicateEmail
		case strings.Contains(constraint, "response_envelopes_form_id_participant_id"):
			return domain.ErrDuplicateSubmission
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
