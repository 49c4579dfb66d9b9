package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"formrank-service/internal/app"
	"formrank-service/internal/auth"
	"formrank-service/internal/domain"
	"formrank-service/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	log := logrus.New()
	log.SetOutput(io.Discard)

	tokens := auth.NewManager("test-secret", time.Hour)
	feed := app.NewRankingFeed()
	forms := app.NewFormService(store, store)
	submissions := app.NewSubmissionService(store)
	ranking := app.NewRankingService(store)
	authn := app.NewAuthService(store, tokens)

	public := NewPublicHandler(forms, submissions, ranking, feed, log)
	admin := NewAdminHandler(authn, forms, ranking, log)
	ws := NewWSHandler(ranking, feed, log)

	server := httptest.NewServer(NewRouter(public, admin, ws, tokens))
	t.Cleanup(server.Close)
	return server, store
}

func seedOpenForm(t *testing.T, store *memory.Store) int64 {
	t.Helper()
	now := time.Now()
	form := domain.Form{
		Title:       "Retro survey",
		Active:      true,
		Deadline:    now.Add(24 * time.Hour),
		ActivatedAt: &now,
	}
	if err := store.CreateForm(context.Background(), &form); err != nil {
		t.Fatalf("create form: %v", err)
	}
	q := domain.Question{FormID: form.ID, Title: "Feedback?", Type: domain.QuestionFreeText, Order: 1}
	if err := store.CreateQuestion(context.Background(), &q); err != nil {
		t.Fatalf("create question: %v", err)
	}
	return form.ID
}

func seedAdmin(t *testing.T, store *memory.Store, email, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.SeedAdmin(domain.Administrator{
		Name:         "Root",
		Email:        email,
		PasswordHash: hash,
		Active:       true,
	})
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) (bool, json.RawMessage, string) {
	t.Helper()
	defer resp.Body.Close()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env.Success, env.Data, env.Message
}

func TestSubmitAndDuplicateOverHTTP(t *testing.T) {
	server, store := newTestServer(t)
	formID := seedOpenForm(t, store)

	body := map[string]any{
		"formId": formID,
		"name":   "Alice",
		"email":  "alice@example.com",
		"answers": []map[string]any{
			{"questionId": 1, "text": "All good"},
		},
	}

	resp := postJSON(t, server.URL+"/public/submissions", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	ok, data, _ := decodeEnvelope(t, resp)
	if !ok {
		t.Fatalf("expected success envelope")
	}
	var award struct {
		Points int `json:"points"`
	}
	if err := json.Unmarshal(data, &award); err != nil {
		t.Fatalf("decode points: %v", err)
	}
	if award.Points != domain.AwardFast {
		t.Fatalf("expected %d points, got %d", domain.AwardFast, award.Points)
	}

	// Same participant, same form: rejected with 409.
	resp = postJSON(t, server.URL+"/public/submissions", body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", resp.StatusCode)
	}
	ok, _, msg := decodeEnvelope(t, resp)
	if ok || msg == "" {
		t.Fatalf("expected failure envelope with message, got success=%v message=%q", ok, msg)
	}
}

func TestParticipationAndStanding(t *testing.T) {
	server, store := newTestServer(t)
	formID := seedOpenForm(t, store)

	check := map[string]any{"formId": formID, "email": "bob@example.com"}
	resp := postJSON(t, server.URL+"/public/participation", check)
	_, data, _ := decodeEnvelope(t, resp)
	var participation struct {
		Responded bool `json:"responded"`
	}
	if err := json.Unmarshal(data, &participation); err != nil {
		t.Fatalf("decode participation: %v", err)
	}
	if participation.Responded {
		t.Fatalf("expected no participation before submitting")
	}

	submit := map[string]any{
		"formId":  formID,
		"name":    "Bob",
		"email":   "bob@example.com",
		"answers": []map[string]any{{"questionId": 1, "text": "fine"}},
	}
	resp = postJSON(t, server.URL+"/public/submissions", submit)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, server.URL+"/public/participation", check)
	_, data, _ = decodeEnvelope(t, resp)
	if err := json.Unmarshal(data, &participation); err != nil {
		t.Fatalf("decode participation: %v", err)
	}
	if !participation.Responded {
		t.Fatalf("expected participation after submitting")
	}

	resp = postJSON(t, server.URL+"/public/standing", map[string]any{"email": "bob@example.com"})
	_, data, _ = decodeEnvelope(t, resp)
	var standing domain.Standing
	if err := json.Unmarshal(data, &standing); err != nil {
		t.Fatalf("decode standing: %v", err)
	}
	if standing.Position != 1 {
		t.Fatalf("expected position 1, got %d", standing.Position)
	}
	if standing.TotalScore != domain.AwardFast {
		t.Fatalf("expected total %d, got %d", domain.AwardFast, standing.TotalScore)
	}
}

func TestStandingUnknownEmail(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/public/standing", map[string]any{"email": "ghost@example.com"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPublicFormHidesClosedForms(t *testing.T) {
	server, store := newTestServer(t)

	form := domain.Form{
		Title:    "Closed",
		Active:   false,
		Deadline: time.Now().Add(time.Hour),
	}
	if err := store.CreateForm(context.Background(), &form); err != nil {
		t.Fatalf("create form: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("%s/public/forms/%d", server.URL, form.ID))
	if err != nil {
		t.Fatalf("get form: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminRoutesRequireToken(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/admin/forms")
	if err != nil {
		t.Fatalf("get admin forms: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminLoginAndDashboard(t *testing.T) {
	server, store := newTestServer(t)
	seedAdmin(t, store, "root@example.com", "s3cret")

	resp := postJSON(t, server.URL+"/admin/login", map[string]any{
		"email":    "root@example.com",
		"password": "s3cret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d", resp.StatusCode)
	}
	_, data, _ := decodeEnvelope(t, resp)
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Token == "" {
		t.Fatalf("expected a token")
	}

	req, err := http.NewRequest(http.MethodGet, server.URL+"/admin/dashboard", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+login.Token)
	dashResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get dashboard: %v", err)
	}
	if dashResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on dashboard, got %d", dashResp.StatusCode)
	}
	ok, _, _ := decodeEnvelope(t, dashResp)
	if !ok {
		t.Fatalf("expected success envelope from dashboard")
	}
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	server, store := newTestServer(t)
	seedAdmin(t, store, "root@example.com", "s3cret")

	resp := postJSON(t, server.URL+"/admin/login", map[string]any{
		"email":    "root@example.com",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminFormLifecycleOverHTTP(t *testing.T) {
	server, store := newTestServer(t)
	seedAdmin(t, store, "root@example.com", "s3cret")
	token := loginToken(t, server.URL)

	deadline := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	resp := authedJSON(t, token, http.MethodPost, server.URL+"/admin/forms", map[string]any{
		"title":       "Pulse check",
		"description": "Weekly pulse",
		"deadline":    deadline,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 on create, got %d", resp.StatusCode)
	}
	_, data, _ := decodeEnvelope(t, resp)
	var form domain.Form
	if err := json.Unmarshal(data, &form); err != nil {
		t.Fatalf("decode form: %v", err)
	}
	if form.Active {
		t.Fatalf("new forms must start inactive")
	}

	resp = authedJSON(t, token, http.MethodPost, fmt.Sprintf("%s/admin/forms/%d/questions", server.URL, form.ID), map[string]any{
		"title":    "How was the week?",
		"type":     "free_text",
		"order":    1,
		"required": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 on question, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = authedJSON(t, token, http.MethodPost, fmt.Sprintf("%s/admin/forms/%d/activate", server.URL, form.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on activate, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The form should now appear on the public side.
	listResp, err := http.Get(server.URL + "/public/forms")
	if err != nil {
		t.Fatalf("list open forms: %v", err)
	}
	_, data, _ = decodeEnvelope(t, listResp)
	var open []domain.Form
	if err := json.Unmarshal(data, &open); err != nil {
		t.Fatalf("decode open forms: %v", err)
	}
	if len(open) != 1 || open[0].Title != "Pulse check" {
		t.Fatalf("expected the activated form public, got %+v", open)
	}
}

func loginToken(t *testing.T, baseURL string) string {
	t.Helper()
	resp := postJSON(t, baseURL+"/admin/login", map[string]any{
		"email":    "root@example.com",
		"password": "s3cret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with %d", resp.StatusCode)
	}
	_, data, _ := decodeEnvelope(t, resp)
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return login.Token
}

func authedJSON(t *testing.T, token, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}
