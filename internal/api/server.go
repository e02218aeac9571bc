// Package api exposes the locator over HTTP: job submission and inspection,
// processing parameters, and result charts.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/microseis/gridloc/internal/config"
	"github.com/microseis/gridloc/internal/db"
	"github.com/microseis/gridloc/internal/httputil"
	"github.com/microseis/gridloc/internal/locate"
	"github.com/microseis/gridloc/internal/runner"
	"github.com/microseis/gridloc/internal/security"
	"github.com/microseis/gridloc/internal/version"
	"github.com/microseis/gridloc/internal/waveform"
)

// defaultListLimit bounds GET /api/jobs when no limit is given.
const defaultListLimit = 50

// Server wires the HTTP handlers to the store, the background runner, and
// the site configuration. Submitted waveform paths must resolve inside
// dataDir.
type Server struct {
	store   *db.DB
	runner  *runner.Runner
	site    *waveform.Site
	params  *config.Processing
	dataDir string
}

// NewServer creates an API server.
func NewServer(store *db.DB, r *runner.Runner, site *waveform.Site, params *config.Processing, dataDir string) *Server {
	return &Server{store: store, runner: r, site: site, params: params, dataDir: dataDir}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/site", s.handleSite)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobByID)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.params)
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.site)
}

// submitRequest is the POST /api/jobs payload: a waveform path on the
// server plus optional per-job parameter overrides.
type submitRequest struct {
	Waveform string             `json:"waveform"`
	Params   *config.Processing `json:"params,omitempty"`
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listJobs(w, r)
	case http.MethodPost:
		s.submitJob(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = v
	}

	jobs, err := s.store.ListJobs(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if jobs == nil {
		jobs = []db.Job{}
	}
	httputil.WriteJSONOK(w, jobs)
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Waveform == "" {
		httputil.BadRequest(w, "waveform path is required")
		return
	}
	if err := security.ValidatePathWithinDirectory(req.Waveform, s.dataDir); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	overrides := "{}"
	if req.Params != nil {
		if err := req.Params.Validate(); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		data, err := json.Marshal(req.Params)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		overrides = string(data)
	}

	job, err := s.store.CreateJob(req.Waveform, overrides)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, job)
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		httputil.NotFound(w, "job id is required")
		return
	}
	jobID := parts[0]

	switch {
	case len(parts) == 1:
		s.showJob(w, jobID)
	case len(parts) == 2 && parts[1] == "logs":
		s.showJobLogs(w, jobID)
	case len(parts) == 2 && parts[1] == "results":
		s.showJobResults(w, jobID)
	case len(parts) == 2 && parts[1] == "chart":
		s.showJobChart(w, r, jobID)
	default:
		httputil.NotFound(w, "unknown job resource")
	}
}

func (s *Server) showJob(w http.ResponseWriter, jobID string) {
	job, err := s.store.GetJob(jobID)
	if errors.Is(err, db.ErrJobNotFound) {
		httputil.NotFound(w, "job not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, job)
}

func (s *Server) showJobLogs(w http.ResponseWriter, jobID string) {
	if _, err := s.store.GetJob(jobID); errors.Is(err, db.ErrJobNotFound) {
		httputil.NotFound(w, "job not found")
		return
	}
	logs, err := s.store.JobLogs(jobID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if logs == nil {
		logs = []db.JobLog{}
	}
	httputil.WriteJSONOK(w, logs)
}

func (s *Server) showJobResults(w http.ResponseWriter, jobID string) {
	if _, err := s.store.GetJob(jobID); errors.Is(err, db.ErrJobNotFound) {
		httputil.NotFound(w, "job not found")
		return
	}
	locations, err := s.store.JobLocations(jobID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if locations == nil {
		locations = []locate.Location{}
	}
	httputil.WriteJSONOK(w, locations)
}
