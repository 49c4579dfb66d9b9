package http

import (
	"net/http"

	"formrank-service/internal/auth"
)

// NewRouter wires all routes. Admin routes except login require a bearer
// token issued by tokens.
func NewRouter(public *PublicHandler, admin *AdminHandler, ws *WSHandler, tokens *auth.Manager) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /public/forms", public.ListOpenForms)
	mux.HandleFunc("GET /public/forms/{id}", public.GetForm)
	mux.HandleFunc("POST /public/participation", public.CheckParticipation)
	mux.HandleFunc("POST /public/submissions", public.Submit)
	mux.HandleFunc("GET /public/ranking", public.Ranking)
	mux.HandleFunc("GET /public/ranking/top", public.TopRanking)
	mux.HandleFunc("POST /public/standing", public.Standing)
	mux.HandleFunc("GET /public/stats", public.Stats)
	mux.HandleFunc("GET /public/ws/ranking", ws.ServeWS)

	mux.HandleFunc("POST /admin/login", admin.Login)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /admin/forms", admin.ListForms)
	protected.HandleFunc("POST /admin/forms", admin.CreateForm)
	protected.HandleFunc("GET /admin/forms/{id}", admin.GetForm)
	protected.HandleFunc("PUT /admin/forms/{id}", admin.UpdateForm)
	protected.HandleFunc("DELETE /admin/forms/{id}", admin.DeleteForm)
	protected.HandleFunc("POST /admin/forms/{id}/activate", admin.ActivateForm)
	protected.HandleFunc("POST /admin/forms/{id}/deactivate", admin.DeactivateForm)
	protected.HandleFunc("POST /admin/forms/{id}/questions", admin.AddQuestion)
	protected.HandleFunc("GET /admin/forms/{id}/responses", admin.FormResponses)
	protected.HandleFunc("PUT /admin/questions/{id}", admin.UpdateQuestion)
	protected.HandleFunc("DELETE /admin/questions/{id}", admin.DeleteQuestion)
	protected.HandleFunc("POST /admin/questions/{id}/reorder", admin.ReorderQuestion)
	protected.HandleFunc("GET /admin/responses/{id}", admin.ResponseDetail)
	protected.HandleFunc("GET /admin/dashboard", admin.Dashboard)

	mux.Handle("/admin/", RequireAdmin(tokens, protected))

	return mux
}
