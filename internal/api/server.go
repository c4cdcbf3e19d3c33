// Package api serves the project gallery's admin endpoints and uploads.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/bamdow/folio/internal/project"
	"github.com/bamdow/folio/internal/storage"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 64 << 20
)

// Projects is the store the handlers use.
type Projects interface {
	Create(ctx context.Context, in project.Input) (*project.Project, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context, q project.ListQuery) (*project.PageResult, error)
	Update(ctx context.Context, id string, in project.Input) (*project.Project, error)
	Delete(ctx context.Context, ids ...string) error
}

type Server struct {
	projects  Projects
	images    *storage.Images
	log       *zap.Logger
	policy    *bluemonday.Policy
	staticDir string
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStatic serves a built single-page app from dir at /.
func WithStatic(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

func New(projects Projects, images *storage.Images, opts ...Option) *Server {
	s := &Server{
		projects: projects,
		images:   images,
		log:      zap.NewNop(),
		policy:   bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, success(map[string]string{"status": "ok"}))
	})

	r.Route("/api/admin/projects", func(r chi.Router) {
		r.Get("/", s.listProjects)
		r.Post("/", s.createProject)
		r.Delete("/", s.deleteProjects)
		r.Get("/{id}", s.getProject)
		r.Put("/{id}", s.updateProject)
		r.Delete("/{id}", s.deleteProject)
	})
	r.Post("/api/admin/upload/images", s.uploadImages)

	r.Handle(s.images.PublicURL()+"/*", s.images.Handler())

	if s.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}
	return r
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	size, err := queryInt(r, "size")
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	q := project.ListQuery{Page: page, Size: size, Category: project.Category(r.URL.Query().Get("category"))}
	if q.Category != "" && q.Category != project.All && !q.Category.Valid() {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("unknown category %q", q.Category))
		return
	}

	res, err := s.projects.List(r.Context(), q)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success(res))
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success(p))
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	p, err := s.projects.Create(r.Context(), in)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success(p))
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	p, err := s.projects.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success(p))
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success(nil))
}

func (s *Server) deleteProjects(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		s.fail(w, http.StatusBadRequest, errors.New("ids is required"))
		return
	}
	if err := s.projects.Delete(r.Context(), ids...); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success(nil))
}

func (s *Server) uploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	urls := []string{}
	for _, fh := range r.MultipartForm.File["files"] {
		if fh.Size == 0 {
			s.log.Warn("skipping empty upload", zap.String("name", fh.Filename))
			continue
		}
		f, err := fh.Open()
		if err != nil {
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		url, err := s.images.Save(fh.Filename, data)
		if errors.Is(err, storage.ErrEmpty) {
			continue
		}
		if err != nil {
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		urls = append(urls, url)
	}
	s.log.Info("images uploaded", zap.Int("count", len(urls)))
	writeJSON(w, http.StatusOK, success(urls))
}

// decodeInput reads a project body and sanitises its free-text fields.
func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (project.Input, bool) {
	var in project.Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&in); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return in, false
	}
	for _, f := range []*string{&in.Description, &in.Thoughts, &in.AdditionalInfo, &in.Readme, &in.Introduction} {
		*f = s.scrub(*f)
	}
	return in, true
}

const maxScrubPasses = 8

// scrub drops markup the policy rejects but stores the remaining text as
// sent. The policy escapes text on output, so its result is unescaped and
// fed back until nothing changes; an entity-encoded tag cannot survive as
// a literal one.
func (s *Server) scrub(text string) string {
	for i := 0; i < maxScrubPasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(text))
		if next == text {
			return text
		}
		text = next
	}
	return s.policy.Sanitize(text)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, project.ErrNotFound):
		s.fail(w, http.StatusNotFound, err)
	case errors.Is(err, project.ErrInvalid):
		s.fail(w, http.StatusBadRequest, err)
	default:
		s.log.Error("store", zap.Error(err))
		s.fail(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) fail(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, envelope{Code: code, Message: err.Error()})
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
