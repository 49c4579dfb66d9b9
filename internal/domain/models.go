package domain

import "time"

// QuestionType enumerates the answer widgets a form can ask for.
type QuestionType string

const (
	QuestionFreeText       QuestionType = "free_text"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionScale5         QuestionType = "scale_1_5"
	QuestionScale10        QuestionType = "scale_1_10"
	QuestionYesNo          QuestionType = "yes_no"
	QuestionNumber         QuestionType = "number"
	QuestionDate           QuestionType = "date"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionFreeText, QuestionMultipleChoice, QuestionScale5,
		QuestionScale10, QuestionYesNo, QuestionNumber, QuestionDate:
		return true
	}
	return false
}

// Form is a named, time-bounded questionnaire.
type Form struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    time.Time  `json:"deadline"`
	Active      bool       `json:"active"`
	CreatedBy   int64      `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
}

// AcceptsResponses reports whether the form can take a submission at now.
func (f Form) AcceptsResponses(now time.Time) bool {
	return f.Active && now.Before(f.Deadline)
}

// FormSummary is the admin listing view of a form.
type FormSummary struct {
	Form
	CreatorName   string `json:"creatorName"`
	ResponseCount int    `json:"responseCount"`
}

// Question belongs to a form; Options is set only for multiple choice.
type Question struct {
	ID       int64        `json:"id"`
	FormID   int64        `json:"formId"`
	Title    string       `json:"title"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options,omitempty"`
	Order    int          `json:"order"`
	Required bool         `json:"required"`
}

// FormSnapshot is the public view of a form with its ordered questions.
type FormSnapshot struct {
	Form      Form       `json:"form"`
	Questions []Question `json:"questions"`
}

// Participant is identified by email across all forms. TotalScore and
// TotalForms are derived from the participant's response envelopes.
type Participant struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	TotalScore   int       `json:"totalScore"`
	TotalForms   int       `json:"totalForms"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// ResponseEnvelope records one participant's single submission to one form.
// At most one envelope exists per (FormID, ParticipantID).
type ResponseEnvelope struct {
	ID            int64     `json:"id"`
	FormID        int64     `json:"formId"`
	ParticipantID int64     `json:"participantId"`
	SubmittedAt   time.Time `json:"submittedAt"`
	Points        int       `json:"points"`
}

// Answer is one answered question inside an envelope.
type Answer struct {
	EnvelopeID int64  `json:"envelopeId"`
	QuestionID int64  `json:"questionId"`
	Text       string `json:"text"`
}

// AnswerInput is a raw (question, text) pair arriving with a submission.
type AnswerInput struct {
	QuestionID int64  `json:"questionId"`
	Text       string `json:"text"`
}

// RankingEntry is one row of the global ranking. Position is the 1-based
// gapless rank.
type RankingEntry struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	TotalScore int    `json:"totalScore"`
	TotalForms int    `json:"totalForms"`
	Position   int    `json:"position"`
}

// Standing is a participant's totals plus their ranking position.
// Position is zero when the participant has no points yet.
type Standing struct {
	Participant
	Position int `json:"position"`
}

// FormResponse is the admin view of one envelope within a form report.
type FormResponse struct {
	EnvelopeID       int64     `json:"envelopeId"`
	SubmittedAt      time.Time `json:"submittedAt"`
	Points           int       `json:"points"`
	ParticipantName  string    `json:"participantName"`
	ParticipantEmail string    `json:"participantEmail"`
}

// ResponseAnswer is one answer joined to its question, for response detail.
type ResponseAnswer struct {
	QuestionTitle string       `json:"questionTitle"`
	QuestionType  QuestionType `json:"questionType"`
	QuestionOrder int          `json:"questionOrder"`
	Text          string       `json:"text"`
}

// Overview aggregates platform-wide counters.
type Overview struct {
	ActiveForms        int     `json:"activeForms"`
	TotalForms         int     `json:"totalForms"`
	RankedParticipants int     `json:"rankedParticipants"`
	TotalResponses     int     `json:"totalResponses"`
	AveragePoints      float64 `json:"averagePoints"`
}

// Administrator is a verified back-office identity.
type Administrator struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Active       bool   `json:"active"`
}
