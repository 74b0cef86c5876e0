package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/abtracker/internal/telemetry/tracing"
	"github.com/2beens/abtracker/internal/workout"
	"github.com/2beens/abtracker/internal/workout/catalog"
	"github.com/2beens/abtracker/internal/workout/history"
	"github.com/2beens/abtracker/internal/workout/session"
	"github.com/2beens/abtracker/internal/workout/tracker"
	"github.com/2beens/abtracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=handler_test

type trackerService interface {
	LogSession(ctx context.Context, templateID string, inputs map[string]session.RawInput) (*workout.LogEntry, error)
	Sessions(ctx context.Context) ([]workout.LogEntry, error)
	Progress(ctx context.Context) (history.Histories, error)
	ExerciseProgress(ctx context.Context, exerciseID string) (history.ExerciseHistory, error)
}

type preferencesStore interface {
	AllowPartial(ctx context.Context) (bool, error)
	SetAllowPartial(ctx context.Context, allow bool) error
}

type TemplateResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Exercises []catalog.Exercise `json:"exercises"`
}

type LogSessionRequest struct {
	Inputs map[string]session.RawInput `json:"inputs"`
}

type ExerciseProgressResponse struct {
	Exercise catalog.Exercise       `json:"exercise"`
	Points   []history.SessionPoint `json:"points"`
	Rows     []string               `json:"rows"`
	Min      float64                `json:"min"`
	Max      float64                `json:"max"`
	Range    float64                `json:"range"`
	// only set for single exercise progress
	Normalized []float64 `json:"normalized,omitempty"`
}

type ProgressResponse struct {
	DefaultExerciseID string                     `json:"defaultExerciseId,omitempty"`
	Exercises         []ExerciseProgressResponse `json:"exercises"`
}

type PreferencesResponse struct {
	AllowPartial bool `json:"allowPartial"`
}

type SetPreferencesRequest struct {
	AllowPartial *bool `json:"allowPartial"`
}

type SessionsResponse struct {
	Sessions []workout.LogEntry `json:"sessions"`
	Total    int                `json:"total"`
}

type Handler struct {
	catalog     *catalog.Catalog
	tracker     trackerService
	preferences preferencesStore
}

func NewHandler(
	catalog *catalog.Catalog,
	tracker trackerService,
	preferences preferencesStore,
) *Handler {
	return &Handler{
		catalog:     catalog,
		tracker:     tracker,
		preferences: preferences,
	}
}

// SetupRoutes registers the workout routes. logSessionMiddlewares wrap
// only the session submit route (e.g. rate limiting).
func (handler *Handler) SetupRoutes(router *mux.Router, logSessionMiddlewares ...mux.MiddlewareFunc) {
	router.HandleFunc("/catalog/exercises", handler.HandleExercises).Methods("GET", "OPTIONS").Name("catalog-exercises")
	router.HandleFunc("/catalog/templates", handler.HandleTemplates).Methods("GET", "OPTIONS").Name("catalog-templates")
	router.HandleFunc("/catalog/templates/{id}", handler.HandleTemplate).Methods("GET", "OPTIONS").Name("catalog-template")

	var logSession http.Handler = http.HandlerFunc(handler.HandleLogSession)
	for i := len(logSessionMiddlewares) - 1; i >= 0; i-- {
		logSession = logSessionMiddlewares[i](logSession)
	}
	router.Handle("/sessions/{templateId}", logSession).Methods("POST", "OPTIONS").Name("log-session")
	router.HandleFunc("/sessions", handler.HandleSessions).Methods("GET", "OPTIONS").Name("list-sessions")

	router.HandleFunc("/progress", handler.HandleProgress).Methods("GET", "OPTIONS").Name("progress")
	router.HandleFunc("/progress/{exerciseId}", handler.HandleExerciseProgress).Methods("GET", "OPTIONS").Name("exercise-progress")

	router.HandleFunc("/preferences/partial", handler.HandleGetAllowPartial).Methods("GET", "OPTIONS").Name("get-allow-partial")
	router.HandleFunc("/preferences/partial", handler.HandleSetAllowPartial).Methods("PUT", "OPTIONS").Name("set-allow-partial")
}

func (handler *Handler) HandleExercises(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.exercises")
	defer span.End()

	writeJSON(w, handler.catalog.Exercises(), http.StatusOK)
}

func (handler *Handler) HandleTemplates(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.templates")
	defer span.End()

	templates := handler.catalog.Templates()
	resp := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		resp = append(resp, handler.templateResponse(t))
	}
	writeJSON(w, resp, http.StatusOK)
}

func (handler *Handler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.template")
	defer span.End()

	templateID := mux.Vars(r)["id"]
	t, ok := handler.catalog.Template(templateID)
	if !ok {
		pkg.WriteJSONError(w, "", "template not found", http.StatusNotFound)
		return
	}
	writeJSON(w, handler.templateResponse(t), http.StatusOK)
}

func (handler *Handler) HandleLogSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.logSession")
	defer span.End()

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		pkg.WriteJSONError(w, "", "invalid content type", http.StatusBadRequest)
		return
	}

	templateID := mux.Vars(r)["templateId"]

	var req LogSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("log session, unmarshal json body: %s", err)
		pkg.WriteJSONError(w, "", "invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := handler.tracker.LogSession(ctx, templateID, req.Inputs)
	if err != nil {
		var rejection *tracker.RejectionError
		switch {
		case errors.As(err, &rejection):
			log.Debugf("session for template %s rejected: %s", templateID, rejection.Reason)
			pkg.WriteJSONError(w, rejection.Reason.String(), rejection.Reason.Message(), http.StatusBadRequest)
		case errors.Is(err, tracker.ErrTemplateNotFound):
			pkg.WriteJSONError(w, "", "template not found", http.StatusNotFound)
		default:
			log.Errorf("failed to log session for template %s: %s", templateID, err)
			pkg.WriteJSONError(w, "", "failed to log session", http.StatusInternalServerError)
		}
		return
	}

	log.Debugf("new session logged: %d [%s]", entry.ID, entry.TemplateID)
	writeJSON(w, entry, http.StatusCreated)
}

func (handler *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.sessions")
	defer span.End()

	sessions, err := handler.tracker.Sessions(ctx)
	if err != nil {
		log.Errorf("failed to list sessions: %s", err)
		pkg.WriteJSONError(w, "", "failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []workout.LogEntry{}
	}

	writeJSON(w, SessionsResponse{
		Sessions: sessions,
		Total:    len(sessions),
	}, http.StatusOK)
}

func (handler *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.progress")
	defer span.End()

	histories, err := handler.tracker.Progress(ctx)
	if err != nil {
		log.Errorf("failed to get progress: %s", err)
		pkg.WriteJSONError(w, "", "failed to get progress", http.StatusInternalServerError)
		return
	}

	resp := ProgressResponse{
		Exercises: make([]ExerciseProgressResponse, 0, histories.Len()),
	}
	if def, ok := histories.Default(); ok {
		resp.DefaultExerciseID = def.Exercise.ID
	}
	for _, eh := range histories.List() {
		resp.Exercises = append(resp.Exercises, exerciseProgressResponse(eh))
	}

	writeJSON(w, resp, http.StatusOK)
}

func (handler *Handler) HandleExerciseProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.exerciseProgress")
	defer span.End()

	exerciseID := mux.Vars(r)["exerciseId"]
	eh, err := handler.tracker.ExerciseProgress(ctx, exerciseID)
	if err != nil {
		switch {
		case errors.Is(err, tracker.ErrExerciseNotFound):
			pkg.WriteJSONError(w, "", "exercise not found", http.StatusNotFound)
		case errors.Is(err, tracker.ErrNoHistory):
			pkg.WriteJSONError(w, "", "no history yet", http.StatusNotFound)
		default:
			log.Errorf("failed to get progress for %s: %s", exerciseID, err)
			pkg.WriteJSONError(w, "", "failed to get progress", http.StatusInternalServerError)
		}
		return
	}

	resp := exerciseProgressResponse(eh)
	resp.Normalized = eh.Normalized()
	writeJSON(w, resp, http.StatusOK)
}

func (handler *Handler) HandleGetAllowPartial(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.getAllowPartial")
	defer span.End()

	allow, err := handler.preferences.AllowPartial(ctx)
	if err != nil {
		log.Errorf("failed to get allow partial preference: %s", err)
		pkg.WriteJSONError(w, "", "failed to get preference", http.StatusInternalServerError)
		return
	}
	writeJSON(w, PreferencesResponse{AllowPartial: allow}, http.StatusOK)
}

func (handler *Handler) HandleSetAllowPartial(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.setAllowPartial")
	defer span.End()

	var req SetPreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteJSONError(w, "", "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AllowPartial == nil {
		pkg.WriteJSONError(w, "", "allowPartial missing", http.StatusBadRequest)
		return
	}

	if err := handler.preferences.SetAllowPartial(ctx, *req.AllowPartial); err != nil {
		log.Errorf("failed to set allow partial preference: %s", err)
		pkg.WriteJSONError(w, "", "failed to set preference", http.StatusInternalServerError)
		return
	}

	log.Infof("allow partial sessions set to %t", *req.AllowPartial)
	writeJSON(w, PreferencesResponse{AllowPartial: *req.AllowPartial}, http.StatusOK)
}

func (handler *Handler) templateResponse(t catalog.Template) TemplateResponse {
	return TemplateResponse{
		ID:        t.ID,
		Name:      t.Name,
		Exercises: handler.catalog.TemplateExercises(t),
	}
}

func exerciseProgressResponse(eh history.ExerciseHistory) ExerciseProgressResponse {
	minWeight, maxWeight, rng := eh.Bounds()
	rows := make([]string, 0, len(eh.Points))
	for _, p := range eh.Points {
		rows = append(rows, p.String())
	}
	return ExerciseProgressResponse{
		Exercise: eh.Exercise,
		Points:   eh.Points,
		Rows:     rows,
		Min:      minWeight,
		Max:      maxWeight,
		Range:    rng,
	}
}

func writeJSON(w http.ResponseWriter, v any, statusCode int) {
	respJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal response: %s", err)
		pkg.WriteJSONError(w, "", "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, statusCode)
}
