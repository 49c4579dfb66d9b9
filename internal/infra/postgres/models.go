package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"formrank-service/internal/domain"
)

type formRow struct {
	bun.BaseModel `bun:"table:forms,alias:f"`

	ID          int64      `bun:"id,pk,autoincrement"`
	Title       string     `bun:"title,notnull"`
	Description string     `bun:"description,notnull"`
	Deadline    time.Time  `bun:"deadline,notnull"`
	Active      bool       `bun:"active,notnull"`
	CreatedBy   int64      `bun:"created_by,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,notnull"`
	ActivatedAt *time.Time `bun:"activated_at"`
}

func (r formRow) toDomain() domain.Form {
	return domain.Form{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Deadline:    r.Deadline,
		Active:      r.Active,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		ActivatedAt: r.ActivatedAt,
	}
}

type formSummaryRow struct {
	formRow

	CreatorName   string `bun:"creator_name,scanonly"`
	ResponseCount int    `bun:"response_count,scanonly"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID       int64    `bun:"id,pk,autoincrement"`
	FormID   int64    `bun:"form_id,notnull"`
	Title    string   `bun:"title,notnull"`
	Type     string   `bun:"type,notnull"`
	Options  []string `bun:"options,type:jsonb,nullzero"`
	Order    int      `bun:"ord,notnull"`
	Required bool     `bun:"required,notnull"`
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:       r.ID,
		FormID:   r.FormID,
		Title:    r.Title,
		Type:     domain.QuestionType(r.Type),
		Options:  r.Options,
		Order:    r.Order,
		Required: r.Required,
	}
}

type participantRow struct {
	bun.BaseModel `bun:"table:participants,alias:p"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull"`
	TotalScore   int       `bun:"total_score,notnull"`
	TotalForms   int       `bun:"total_forms,notnull"`
	RegisteredAt time.Time `bun:"registered_at,notnull"`
}

func (r participantRow) toDomain() domain.Participant {
	return domain.Participant{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		TotalScore:   r.TotalScore,
		TotalForms:   r.TotalForms,
		RegisteredAt: r.RegisteredAt,
	}
}

type envelopeRow struct {
	bun.BaseModel `bun:"table:response_envelopes,alias:r"`

	ID            int64     `bun:"id,pk,autoincrement"`
	FormID        int64     `bun:"form_id,notnull"`
	ParticipantID int64     `bun:"participant_id,notnull"`
	SubmittedAt   time.Time `bun:"submitted_at,notnull"`
	Points        int       `bun:"points,notnull"`
}

type formResponseRow struct {
	envelopeRow

	ParticipantName  string `bun:"participant_name,scanonly"`
	ParticipantEmail string `bun:"participant_email,scanonly"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID         int64  `bun:"id,pk,autoincrement"`
	EnvelopeID int64  `bun:"envelope_id,notnull"`
	QuestionID int64  `bun:"question_id,notnull"`
	Text       string `bun:"text,notnull"`
}

type responseAnswerRow struct {
	answerRow

	QuestionTitle string `bun:"question_title,scanonly"`
	QuestionType  string `bun:"question_type,scanonly"`
	QuestionOrder int    `bun:"question_order,scanonly"`
}

type adminRow struct {
	bun.BaseModel `bun:"table:administrators,alias:u"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Name         string `bun:"name,notnull"`
	Email        string `bun:"email,notnull"`
	PasswordHash string `bun:"password_hash,notnull"`
	Active       bool   `bun:"active,notnull"`
}

func (r adminRow) toDomain() domain.Administrator {
	return domain.Administrator{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Active:       r.Active,
	}
}
