package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"formrank-service/internal/app"
	"formrank-service/internal/domain"
)

// PublicHandler serves the participant-facing routes. None of them require
// authentication.
type PublicHandler struct {
	forms       *app.FormService
	submissions *app.SubmissionService
	ranking     *app.RankingService
	feed        *app.RankingFeed
	log         *logrus.Logger
}

func NewPublicHandler(forms *app.FormService, submissions *app.SubmissionService, ranking *app.RankingService, feed *app.RankingFeed, log *logrus.Logger) *PublicHandler {
	return &PublicHandler{
		forms:       forms,
		submissions: submissions,
		ranking:     ranking,
		feed:        feed,
		log:         log,
	}
}

func (h *PublicHandler) ListOpenForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.forms.ListOpenForms(r.Context(), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, forms)
}

func (h *PublicHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	formID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form id")
		return
	}
	snapshot, err := h.forms.PublicForm(r.Context(), formID, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, snapshot)
}

type participationRequest struct {
	FormID int64  `json:"formId"`
	Email  string `json:"email"`
}

func (h *PublicHandler) CheckParticipation(w http.ResponseWriter, r *http.Request) {
	var req participationRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FormID == 0 || req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "formId and email are required")
		return
	}
	responded, err := h.submissions.HasResponded(r.Context(), req.FormID, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"responded": responded})
}

type submissionRequest struct {
	FormID  int64                `json:"formId"`
	Name    string               `json:"name"`
	Email   string               `json:"email"`
	Answers []domain.AnswerInput `json:"answers"`
}

func (h *PublicHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FormID == 0 || req.Name == "" || req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "formId, name and email are required")
		return
	}

	points, err := h.submissions.Submit(r.Context(), req.FormID, req.Name, req.Email, req.Answers, time.Now())
	if err != nil {
		h.log.WithError(err).WithField("formId", req.FormID).Warn("submission rejected")
		writeError(w, err)
		return
	}

	h.broadcastRanking(r)
	writeData(w, http.StatusCreated, map[string]int{"points": points})
}

// broadcastRanking pushes a fresh snapshot to websocket subscribers after a
// committed submission. Feed errors never fail the submission itself.
func (h *PublicHandler) broadcastRanking(r *http.Request) {
	if h.feed == nil || h.feed.SubscriberCount() == 0 {
		return
	}
	entries, err := h.ranking.GlobalRanking(r.Context())
	if err != nil {
		h.log.WithError(err).Warn("ranking broadcast skipped")
		return
	}
	h.feed.Publish(entries)
}

func (h *PublicHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ranking.GlobalRanking(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (h *PublicHandler) TopRanking(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	entries, err := h.ranking.TopParticipants(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

type standingRequest struct {
	Email string `json:"email"`
}

func (h *PublicHandler) Standing(w http.ResponseWriter, r *http.Request) {
	var req standingRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "email is required")
		return
	}
	standing, err := h.ranking.Standing(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, standing)
}

type publicStats struct {
	RankedParticipants int     `json:"rankedParticipants"`
	TotalResponses     int     `json:"totalResponses"`
	AveragePoints      float64 `json:"averagePoints"`
}

func (h *PublicHandler) Stats(w http.ResponseWriter, r *http.Request) {
	overview, err := h.ranking.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, publicStats{
		RankedParticipants: overview.RankedParticipants,
		TotalResponses:     overview.TotalResponses,
		AveragePoints:      overview.AveragePoints,
	})
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
