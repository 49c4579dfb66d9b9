package http

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"formrank-service/internal/app"
	"formrank-service/internal/domain"
)

// AdminHandler serves the back-office routes. Everything except Login sits
// behind RequireAdmin.
type AdminHandler struct {
	authn   *app.AuthService
	forms   *app.FormService
	ranking *app.RankingService
	log     *logrus.Logger
}

func NewAdminHandler(authn *app.AuthService, forms *app.FormService, ranking *app.RankingService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{authn: authn, forms: forms, ranking: ranking, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string               `json:"token"`
	Admin domain.Administrator `json:"admin"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, admin, err := h.authn.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.WithField("email", req.Email).Warn("login rejected")
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, loginResponse{Token: token, Admin: admin})
}

func (h *AdminHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.forms.ListForms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, forms)
}

type formRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
}

func (h *AdminHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claims, ok := adminClaims(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing admin identity")
		return
	}
	form, err := h.forms.CreateForm(r.Context(), req.Title, req.Description, req.Deadline, claims.AdminID, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, form)
}

func (h *AdminHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	formID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form id")
		return
	}
	snapshot, err := h.forms.GetForm(r.Context(), formID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, snapshot)
}

func (h *AdminHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	formID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form id")
		return
	}
	var req formRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.forms.UpdateForm(r.Context(), formID, req.Title, req.Description, req.Deadline); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "form updated")
}

func (h *AdminHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	formID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form id")
		return
	}
	if err := h.forms.DeleteForm(r.Context(), formID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "form deleted")
}

func (h *AdminHandler) ActivateForm(w http.ResponseWriter, r *http.Request) {
	h.setFormActive(w, r, true)
}

func (h *AdminHandler) DeactivateForm(w http.ResponseWriter, r *http.Request) {
	h.setFormActive(w, r, false)
}

func (h *AdminHandler) setFormActive(w http.ResponseWriter, r *http.Request, active bool) {
	formID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form id")
		return
	}
	if active {
		err = h.forms.Activate(r.Context(), formID, time.Now())
	} else {
		err = h.forms.Deactivate(r.Context(), formID, time.Now())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if active {
		writeMessage(w, http.StatusOK, "form activated")
		return
	}
	writeMessage(w, http.StatusOK, "form deactivated")
}

type questionRequest struct {
	Title    string              `json:"title"`
	Type     domain.QuestionType `json:"type"`
	Options  []string            `json:"options"`
	Order    int                 `json:"order"`
	Required bool                `json:"required"`
}

func (h *AdminHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	formID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form id")
		return
	}
	var req questionRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question, err := h.forms.AddQuestion(r.Context(), domain.Question{
		FormID:   formID,
		Title:    req.Title,
		Type:     req.Type,
		Options:  req.Options,
		Order:    req.Order,
		Required: req.Required,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, question)
}

func (h *AdminHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid question id")
		return
	}
	var req questionRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.forms.UpdateQuestion(r.Context(), questionID, req.Title, req.Type, req.Options, req.Required); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "question updated")
}

func (h *AdminHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid question id")
		return
	}
	if err := h.forms.DeleteQuestion(r.Context(), questionID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "question deleted")
}

type reorderRequest struct {
	Order int `json:"order"`
}

func (h *AdminHandler) ReorderQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid question id")
		return
	}
	var req reorderRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.forms.ReorderQuestion(r.Context(), questionID, req.Order); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "question reordered")
}

func (h *AdminHandler) FormResponses(w http.ResponseWriter, r *http.Request) {
	formID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form id")
		return
	}
	responses, err := h.forms.FormResponses(r.Context(), formID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, responses)
}

func (h *AdminHandler) ResponseDetail(w http.ResponseWriter, r *http.Request) {
	envelopeID, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid response id")
		return
	}
	answers, err := h.forms.ResponseDetail(r.Context(), envelopeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, answers)
}

type dashboard struct {
	Forms    []domain.FormSummary  `json:"forms"`
	Top      []domain.RankingEntry `json:"top"`
	Overview domain.Overview       `json:"overview"`
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	forms, err := h.forms.ListForms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	top, err := h.ranking.TopParticipants(r.Context(), 5)
	if err != nil {
		writeError(w, err)
		return
	}
	overview, err := h.ranking.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, dashboard{Forms: forms, Top: top, Overview: overview})
}
