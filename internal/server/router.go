// internal/server/router.go
//
// Read-only status API over a resolver.
//
// Context
// -------
// Test orchestration (CI matrix jobs, sidecar browsers) asks one long-lived
// process which environment is active and where it lives instead of
// re-reading the table in every job:
//
//	GET /healthz                            → "ok"
//	GET /environments                       → active name + all names
//	GET /environments/{env}                 → base URL, paths, credential keys
//	GET /environments/{env}/urls/{path}     → one absolute URL
//	GET /metrics                            → Prometheus exposition
//
// The literal `active` in place of {env} means the resolver's active
// environment.
//
// Notes
// -----
//   • Passwords and usernames are never served.  Credential keys only.
//   • Unknown environment or path → 404 with a JSON error body listing the
//     valid names.  Other resolver failures → 500.
//   • Oxford commas, two spaces after periods.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/uiauto/internal/envconfig"
	"github.com/yanizio/uiauto/internal/middleware"
)

const activeAlias = "active"

type environmentsView struct {
	Active       string   `json:"active"`
	Environments []string `json:"environments"`
}

type environmentView struct {
	Name           string            `json:"name"`
	BaseURL        string            `json:"base_url"`
	Paths          map[string]string `json:"paths"`
	CredentialKeys []string          `json:"credential_keys"`
}

type urlView struct {
	Environment string `json:"environment"`
	Path        string `json:"path"`
	URL         string `json:"url"`
}

type errorView struct {
	Error string   `json:"error"`
	Valid []string `json:"valid,omitempty"`
}

// NewRouter wires the status routes for res.
func NewRouter(res *envconfig.Resolver, log *zap.SugaredLogger) http.Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	h := &handlers{res: res, log: log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLog(log))

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Security)
		r.Get("/healthz", h.health)
		r.Get("/environments", h.list)
		r.Get("/environments/{env}", h.environment)
		r.Get("/environments/{env}/urls/{path}", h.url)
	})
	return r
}

type handlers struct {
	res *envconfig.Resolver
	log *zap.SugaredLogger
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, environmentsView{
		Active:       h.res.ActiveEnvironment(),
		Environments: h.res.Environments(),
	})
}

func (h *handlers) environment(w http.ResponseWriter, r *http.Request) {
	name := h.envParam(r)
	env, err := h.res.Resolve(name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	base, err := h.res.BaseURL(name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	paths := make(map[string]string, len(env.Paths))
	for k, p := range env.Paths {
		paths[k] = p
	}
	writeJSON(w, http.StatusOK, environmentView{
		Name:           env.Name,
		BaseURL:        base,
		Paths:          paths,
		CredentialKeys: env.CredentialKeys(),
	})
}

func (h *handlers) url(w http.ResponseWriter, r *http.Request) {
	name := h.envParam(r)
	pathKey := chi.URLParam(r, "path")
	u, err := h.res.URL(pathKey, name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if name == "" {
		name = h.res.ActiveEnvironment()
	}
	writeJSON(w, http.StatusOK, urlView{Environment: name, Path: pathKey, URL: u})
}

// envParam maps the "active" alias to "" so the resolver picks the active
// environment.
func (h *handlers) envParam(r *http.Request) string {
	name := chi.URLParam(r, "env")
	if name == activeAlias {
		return ""
	}
	return name
}

func (h *handlers) writeError(w http.ResponseWriter, err error) {
	view := errorView{Error: err.Error()}
	var re *envconfig.ResolveError
	if errors.As(err, &re) {
		view.Valid = re.Available
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, envconfig.ErrUnknownEnvironment),
		errors.Is(err, envconfig.ErrUnknownPath),
		errors.Is(err, envconfig.ErrUnknownCredential):
		status = http.StatusNotFound
	default:
		h.log.Errorw("status request failed", "err", err)
	}
	writeJSON(w, status, view)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
