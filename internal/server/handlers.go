package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	perrors "github.com/matzehuels/pipspec/pkg/errors"
	"github.com/matzehuels/pipspec/pkg/pep440"
	"github.com/matzehuels/pipspec/pkg/pipfile"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ValidateResponse is the body of POST /v1/validate.
type ValidateResponse struct {
	Valid  bool            `json:"valid"`
	Issues []pipfile.Issue `json:"issues"`
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	strict := s.strict
	if raw := r.URL.Query().Get("strict"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, perrors.New(perrors.ErrCodeInvalidInput, "strict must be a boolean, got %q", raw))
			return
		}
		strict = v
	}

	m, ok := s.parseManifest(w, r)
	if !ok {
		return
	}
	report := pipfile.Validate(m, pipfile.Options{Strict: strict})
	issues := report.Issues
	if issues == nil {
		issues = []pipfile.Issue{}
	}
	s.writeJSON(w, http.StatusOK, ValidateResponse{Valid: report.Valid(), Issues: issues})
}

func (s *Server) normalize(w http.ResponseWriter, r *http.Request) {
	m, ok := s.parseManifest(w, r)
	if !ok {
		return
	}
	out, err := pipfile.Marshal(m)
	if err != nil {
		status := http.StatusInternalServerError
		if perrors.Is(err, perrors.ErrCodeInvalidManifest) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}
	w.Header().Set("Content-Type", "application/toml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) parseManifest(w http.ResponseWriter, r *http.Request) (*pipfile.Manifest, bool) {
	body, ok := s.readBody(w, r)
	if !ok {
		return nil, false
	}
	m, err := pipfile.ParseBytes(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return m, true
}

// CheckRequest is the body of POST /v1/check.
type CheckRequest struct {
	Constraint  string   `json:"constraint"`
	Versions    []string `json:"versions"`
	Prereleases bool     `json:"prereleases,omitempty"`
}

// CheckResponse is the answer to a CheckRequest.
type CheckResponse struct {
	Constraint string    `json:"constraint"`
	Results    []Verdict `json:"results"`
	Best       string    `json:"best,omitempty"`
}

// Verdict says whether one version satisfies the constraint.
type Verdict struct {
	Version   string `json:"version"`
	Satisfies bool   `json:"satisfies"`
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req CheckRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "invalid JSON"))
		return
	}

	set, err := pep440.ParseSpecifierSet(req.Constraint)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := CheckResponse{Constraint: set.String(), Results: make([]Verdict, 0, len(req.Versions))}
	parsed := make([]pep440.Version, 0, len(req.Versions))
	for _, raw := range req.Versions {
		v, err := pep440.ParseVersion(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		parsed = append(parsed, v)
		resp.Results = append(resp.Results, Verdict{Version: raw, Satisfies: set.Contains(v, req.Prereleases)})
	}
	if best, ok := set.Best(parsed, req.Prereleases); ok {
		resp.Best = best.String()
	}
	s.writeJSON(w, http.StatusOK, resp)
}
