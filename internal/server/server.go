// Package server exposes the survey builder over HTTP.
//
// All graph mutations go through a per-survey editing session, so the
// invariants enforced by the engine hold for every client. Rendered
// exports are cached by graph hash; two exports of an unchanged survey
// hit the cache.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joey603/surveypro/pkg/cache"
	"github.com/joey603/surveypro/pkg/core/flow"
	"github.com/joey603/surveypro/pkg/core/flow/layout"
	errs "github.com/joey603/surveypro/pkg/errors"
	"github.com/joey603/surveypro/pkg/media"
	"github.com/joey603/surveypro/pkg/observability"
	"github.com/joey603/surveypro/pkg/render"
	"github.com/joey603/surveypro/pkg/session"
	"github.com/joey603/surveypro/pkg/store"
	"github.com/joey603/surveypro/pkg/survey"
)

// artifactTTL bounds how long rendered exports stay cached.
const artifactTTL = 24 * time.Hour

// Options configures the server.
type Options struct {
	Store   store.Store
	Cache   cache.Cache
	Keyer   cache.Keyer
	Deleter media.Deleter
	Layout  layout.Config
	Logger  *log.Logger
}

// Server holds the shared state behind the HTTP handlers.
type Server struct {
	store     store.Store
	cache     cache.Cache
	keyer     cache.Keyer
	deleter   media.Deleter
	layoutCfg layout.Config
	logger    *log.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// New creates a server. Store is required; the cache defaults to
// disabled and the media deleter to a no-op.
func New(opts Options) *Server {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Deleter == nil {
		opts.Deleter = media.NopDeleter{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		store:     opts.Store,
		cache:     opts.Cache,
		keyer:     opts.Keyer,
		deleter:   opts.Deleter,
		layoutCfg: opts.Layout,
		logger:    opts.Logger,
		sessions:  make(map[string]*session.Session),
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/surveys", func(r chi.Router) {
		r.Get("/", s.listSurveys)
		r.Post("/", s.createSurvey)

		r.Route("/{surveyID}", func(r chi.Router) {
			r.Get("/", s.getSurvey)
			r.Delete("/", s.deleteSurvey)
			r.Post("/save", s.saveSurvey)
			r.Post("/reset", s.resetSurvey)
			r.Get("/layout", s.getLayout)
			r.Get("/validate", s.validateSurvey)
			r.Get("/export.dot", s.exportDOT)
			r.Get("/export.svg", s.exportSVG)

			r.Route("/questions", func(r chi.Router) {
				r.Post("/", s.addQuestion)
				r.Patch("/{questionID}", s.updateQuestion)
				r.Delete("/{questionID}", s.deleteQuestion)
			})

			r.Route("/edges", func(r chi.Router) {
				r.Post("/", s.connect)
				r.Patch("/{edgeID}", s.retarget)
				r.Delete("/{edgeID}", s.disconnect)
			})

			r.Post("/preview/step", s.previewStep)
			r.Post("/submit", s.submit)
		})
	})

	return r
}

// Close shuts down every open editing session, waiting for their
// background media releases.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// =============================================================================
// Session Management
// =============================================================================

// openSession returns the live editing session for a survey, loading
// the document from the store on first access.
func (s *Server) openSession(r *http.Request) (*session.Session, string, error) {
	id := chi.URLParam(r, "surveyID")

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, id, nil
	}

	doc, err := s.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, id, errs.New(errs.ErrCodeSurveyNotFound, "survey %s not found", id)
		}
		return nil, id, errs.Wrap(errs.ErrCodeInternal, err, "load survey %s", id)
	}

	sess, err := session.Open(doc, session.Options{
		Layout:  s.layoutCfg,
		Deleter: s.deleter,
		Logger:  s.logger,
	})
	if err != nil {
		return nil, id, errs.Wrap(errs.ErrCodeInvalidGraph, err, "open survey %s", id)
	}
	s.sessions[id] = sess
	return sess, id, nil
}

func (s *Server) dropSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Close()
		delete(s.sessions, id)
	}
}

// =============================================================================
// Survey CRUD
// =============================================================================

type createSurveyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Demographic bool   `json:"demographic"`
	Private     bool   `json:"private"`
}

func (s *Server) createSurvey(w http.ResponseWriter, r *http.Request) {
	var req createSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if err := errs.ValidateTitle(req.Title); err != nil {
		s.respondError(w, r, err)
		return
	}

	doc := survey.New(req.Title)
	doc.Description = req.Description
	doc.Demographic = req.Demographic
	doc.Private = req.Private

	if err := s.store.Save(r.Context(), doc); err != nil {
		s.respondError(w, r, errs.Wrap(errs.ErrCodeInternal, err, "save survey"))
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) listSurveys(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, r, errs.Wrap(errs.ErrCodeInternal, err, "list surveys"))
		return
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) getSurvey(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) saveSurvey(w http.ResponseWriter, r *http.Request) {
	sess, id, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	doc := sess.Snapshot()
	if err := s.store.Save(r.Context(), doc); err != nil {
		s.respondError(w, r, errs.Wrap(errs.ErrCodeInternal, err, "save survey %s", id))
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) deleteSurvey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "surveyID")
	s.dropSession(id)
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, errs.Wrap(errs.ErrCodeInternal, err, "delete survey %s", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetSurvey(w http.ResponseWriter, r *http.Request) {
	sess, id, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	err = sess.Reset()
	observability.Engine().OnMutation(r.Context(), id, "reset", err)
	if err != nil {
		s.respondError(w, r, errs.FromEngine(err))
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Snapshot())
}

// =============================================================================
// Question Mutations
// =============================================================================

type addQuestionRequest struct {
	After string `json:"after"`
}

func (s *Server) addQuestion(w http.ResponseWriter, r *http.Request) {
	sess, surveyID, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req addQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	id, err := sess.AddQuestion(req.After)
	observability.Engine().OnMutation(r.Context(), surveyID, "add_question", err)
	if err != nil {
		s.respondError(w, r, errs.FromEngine(err))
		return
	}

	n, _ := sess.Node(id)
	s.respondJSON(w, http.StatusCreated, n)
}

type updateQuestionRequest struct {
	Type       *string        `json:"type,omitempty"`
	Text       *string        `json:"text,omitempty"`
	Options    *[]string      `json:"options,omitempty"`
	Critical   *bool          `json:"critical,omitempty"`
	Media      *flow.MediaRef `json:"media,omitempty"`
	ClearMedia bool           `json:"clear_media,omitempty"`
}

func (s *Server) updateQuestion(w http.ResponseWriter, r *http.Request) {
	sess, surveyID, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	questionID := chi.URLParam(r, "questionID")

	var req updateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if req.Text != nil {
		if err := errs.ValidateQuestionText(*req.Text); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if req.Media != nil {
		if err := errs.ValidateMediaURL(req.Media.URL); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	patch := flow.Patch{
		Text:       req.Text,
		Options:    req.Options,
		Critical:   req.Critical,
		Media:      req.Media,
		ClearMedia: req.ClearMedia,
	}
	if req.Type != nil {
		typ := flow.QuestionType(*req.Type)
		patch.Type = &typ
	}

	children, err := sess.UpdateQuestion(questionID, patch)
	observability.Engine().OnMutation(r.Context(), surveyID, "update_question", err)
	if err != nil {
		s.respondError(w, r, errs.FromEngine(err))
		return
	}
	if len(children) > 0 {
		observability.Engine().OnSynthesis(r.Context(), surveyID, questionID, len(children))
	}

	n, _ := sess.Node(questionID)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"question": n,
		"children": children,
	})
}

func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	sess, surveyID, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	questionID := chi.URLParam(r, "questionID")

	err = sess.DeleteQuestion(questionID)
	observability.Engine().OnMutation(r.Context(), surveyID, "delete_question", err)
	if err != nil {
		s.respondError(w, r, errs.FromEngine(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Edge Mutations
// =============================================================================

type connectRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	sess, surveyID, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	edgeID, err := sess.Connect(req.From, req.To, req.Label)
	observability.Engine().OnMutation(r.Context(), surveyID, "connect", err)
	if err != nil {
		s.respondError(w, r, errs.FromEngine(err))
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": edgeID})
}

type retargetRequest struct {
	To string `json:"to"`
}

func (s *Server) retarget(w http.ResponseWriter, r *http.Request) {
	sess, surveyID, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	edgeID := chi.URLParam(r, "edgeID")

	var req retargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	err = sess.Retarget(edgeID, req.To)
	observability.Engine().OnMutation(r.Context(), surveyID, "retarget", err)
	if err != nil {
		s.respondError(w, r, errs.FromEngine(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	sess, surveyID, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	edgeID := chi.URLParam(r, "edgeID")

	err = sess.Disconnect(edgeID)
	observability.Engine().OnMutation(r.Context(), surveyID, "disconnect", err)
	if err != nil {
		s.respondError(w, r, errs.FromEngine(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Layout, Validation, Export
// =============================================================================

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	sess, id, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	start := time.Now()
	res := sess.Layout()
	observability.Engine().OnLayoutStart(r.Context(), id, len(res.Levels))
	observability.Engine().OnLayoutComplete(r.Context(), id, time.Since(start))

	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) validateSurvey(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := sess.Validate(); err != nil {
		s.respondJSON(w, http.StatusOK, map[string]any{
			"valid": false,
			"error": errs.UserMessage(errs.FromEngine(err)),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"valid": true})
}

func (s *Server) exportDOT(w http.ResponseWriter, r *http.Request) {
	dot, _, err := s.renderDOT(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.Write([]byte(dot))
}

func (s *Server) exportSVG(w http.ResponseWriter, r *http.Request) {
	dot, graphHash, err := s.renderDOT(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	key := s.keyer.ArtifactKey(graphHash, cache.ArtifactKeyOpts{Format: "svg"})
	if data, hit, _ := s.cache.Get(r.Context(), key); hit {
		observability.Cache().OnCacheHit(r.Context(), "artifact")
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write(data)
		return
	}
	observability.Cache().OnCacheMiss(r.Context(), "artifact")

	svg, err := render.RenderSVG(r.Context(), dot)
	if err != nil {
		s.respondError(w, r, errs.Wrap(errs.ErrCodeInternal, err, "render svg"))
		return
	}
	if err := s.cache.Set(r.Context(), key, svg, artifactTTL); err == nil {
		observability.Cache().OnCacheSet(r.Context(), "artifact", len(svg))
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// renderDOT produces the DOT export for a survey plus the hash of the
// graph it was derived from, used as the artifact cache key.
func (s *Server) renderDOT(r *http.Request) (string, string, error) {
	sess, _, err := s.openSession(r)
	if err != nil {
		return "", "", err
	}

	doc := sess.Snapshot()
	structure, err := json.Marshal(struct {
		Nodes []flow.QuestionNode `json:"nodes"`
		Edges []flow.Edge         `json:"edges"`
	}{doc.Nodes, doc.Edges})
	if err != nil {
		return "", "", errs.Wrap(errs.ErrCodeInternal, err, "hash graph")
	}

	f, err := doc.Flow()
	if err != nil {
		return "", "", errs.Wrap(errs.ErrCodeInvalidGraph, err, "load graph")
	}

	detailed := r.URL.Query().Get("detailed") == "true"
	return render.ToDOT(f, render.Options{Detailed: detailed}), cache.Hash(structure), nil
}

// =============================================================================
// Preview and Submission
// =============================================================================

type previewStepRequest struct {
	Current string            `json:"current"`
	Answers map[string]string `json:"answers"`
}

func (s *Server) previewStep(w http.ResponseWriter, r *http.Request) {
	sess, surveyID, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req previewStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	if req.Current == "" {
		req.Current = flow.RootID
	}
	if _, ok := sess.Node(req.Current); !ok {
		s.respondError(w, r, errs.New(errs.ErrCodeQuestionNotFound, "question %s not found", req.Current))
		return
	}

	next, moved := sess.Step(req.Current, req.Answers)
	pos := req.Current
	if moved {
		pos = next
	}
	remaining := sess.Remaining(pos, req.Answers)
	observability.Engine().OnTraversalStep(r.Context(), surveyID, pos, remaining)

	s.respondJSON(w, http.StatusOK, map[string]any{
		"current":   pos,
		"moved":     moved,
		"remaining": remaining,
	})
}

type submitRequest struct {
	Answers map[string]string `json:"answers"`
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.openSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	path, complete := sess.Walk(req.Answers)
	if !complete {
		s.respondError(w, r, errs.New(errs.ErrCodeInvalidInput,
			"answers do not reach the end of the survey (stopped at %s)", path[len(path)-1]))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"path":      path,
		"questions": len(path),
	})
}

// =============================================================================
// Response Helpers
// =============================================================================

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	s.respondJSON(w, status, map[string]string{
		"code":  string(code),
		"error": errs.UserMessage(err),
	})
}
