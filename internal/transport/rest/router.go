package rest

import "net/http"

// Handlers groups every REST handler mounted by NewRouter.
type Handlers struct {
	Health     *HealthHandler
	Profile    *ProfileHandler
	Assignment *AssignmentHandler
	Image      *ImageHandler
	Session    *SessionHandler
	Report     *ReportHandler
	WS         *WSHandler
}

// NewRouter registers all routes. Middleware is applied by the caller.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	if h.WS != nil {
		mux.HandleFunc("GET /ws", h.WS.Serve)
	}

	mux.HandleFunc("POST /admin/profiles", h.Profile.Create)
	mux.HandleFunc("GET /profiles/me", h.Profile.Me)
	mux.HandleFunc("GET /profiles/{id}", h.Profile.Get)

	mux.HandleFunc("POST /assignments", h.Assignment.Assign)
	mux.HandleFunc("DELETE /assignments", h.Assignment.Remove)
	mux.HandleFunc("GET /patients/{id}/caregivers", h.Assignment.Caregivers)
	mux.HandleFunc("GET /caregivers/{id}/availability", h.Assignment.Availability)

	mux.HandleFunc("POST /images/uploads", h.Image.RequestUpload)
	mux.HandleFunc("POST /images", h.Image.Register)
	mux.HandleFunc("GET /images", h.Image.List)
	mux.HandleFunc("PUT /images/{id}/ground-truth", h.Image.PutGroundTruth)
	mux.HandleFunc("GET /images/{id}/ground-truth", h.Image.GetGroundTruth)
	mux.HandleFunc("POST /admin/images/{id}/release", h.Image.Release)

	mux.HandleFunc("POST /sessions", h.Session.Create)
	mux.HandleFunc("GET /sessions/{id}", h.Session.Get)
	mux.HandleFunc("DELETE /sessions/{id}", h.Session.Delete)
	mux.HandleFunc("PUT /sessions/{id}/activation", h.Session.SetActivation)
	mux.HandleFunc("POST /sessions/{id}/descriptions", h.Session.SubmitDescription)
	mux.HandleFunc("POST /sessions/{id}/images/{imageId}/rescore", h.Session.Rescore)
	mux.HandleFunc("POST /sessions/{id}/notes", h.Session.AddNote)
	mux.HandleFunc("PUT /sessions/{id}/notes", h.Session.ReplaceNotes)
	mux.HandleFunc("GET /patients/{id}/sessions", h.Session.ListForPatient)
	mux.HandleFunc("GET /caregivers/{id}/sessions", h.Session.ListForCaregiver)

	mux.HandleFunc("GET /patients/{id}/report", h.Report.Report)
	mux.HandleFunc("GET /patients/{id}/report.xlsx", h.Report.Export)
	mux.HandleFunc("GET /patients/{id}/baseline", h.Report.Baseline)

	return mux
}
