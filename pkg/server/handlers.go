package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matzehuels/lockscan/pkg/buildinfo"
	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	lsio "github.com/matzehuels/lockscan/pkg/io"
	"github.com/matzehuels/lockscan/pkg/lockfile"
	"github.com/matzehuels/lockscan/pkg/pipeline"
)

// defaultMaxBodyBytes fits one maximal lockfile plus JSON escaping overhead.
const defaultMaxBodyBytes = 2 * lsio.MaxLockfileSize

// defaultMaxFileBytes matches the limit on lockfiles read from disk.
const defaultMaxFileBytes = lsio.MaxLockfileSize

// DetectRequest is the body of POST /v1/detect.
type DetectRequest struct {
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content"`
}

// DetectResponse is the reply to POST /v1/detect.
type DetectResponse struct {
	Format string `json:"format"`
	Known  bool   `json:"known"`
}

// ParseRequest is the body of POST /v1/parse.
type ParseRequest struct {
	Files []lockfile.File `json:"files"`
}

// FileResult summarizes one parsed lockfile.
type FileResult struct {
	Name            string                `json:"name"`
	Format          string                `json:"format"`
	DependencyCount int                   `json:"dependencyCount"`
	Errors          []lockfile.ParseError `json:"errors"`
}

// ParseResponse is the reply to POST /v1/parse.
type ParseResponse struct {
	Dependencies []lockfile.Dependency `json:"dependencies"`
	Files        []FileResult          `json:"files"`
	Conflicts    []lockfile.Conflict   `json:"conflicts,omitempty"`
	Cached       int                   `json:"cached"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Filename != "" {
		if err := lserrors.ValidateLockfileFilename(req.Filename); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	f := lockfile.DetectWithHint(req.Content, req.Filename)
	writeJSON(w, http.StatusOK, DetectResponse{Format: f.String(), Known: f.Known()})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Files) == 0 {
		s.fail(w, r, lserrors.New(lserrors.ErrCodeInvalidInput, "files is required"))
		return
	}
	if len(req.Files) > s.cfg.MaxFiles {
		s.fail(w, r, lserrors.New(lserrors.ErrCodeInvalidInput, "at most %d files per request, got %d", s.cfg.MaxFiles, len(req.Files)))
		return
	}
	for _, f := range req.Files {
		if err := lserrors.ValidatePath(f.Name); err != nil {
			s.fail(w, r, err)
			return
		}
		if len(f.Content) > s.cfg.MaxFileBytes {
			s.fail(w, r, lserrors.New(lserrors.ErrCodeInvalidLockfile,
				"%s exceeds the %d byte lockfile limit", f.Name, s.cfg.MaxFileBytes))
			return
		}
	}

	res, err := s.runner.Parse(r.Context(), pipeline.Options{Files: req.Files, Logger: s.cfg.Logger})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := ParseResponse{
		Dependencies: res.Dependencies,
		Files:        make([]FileResult, len(res.Files)),
		Conflicts:    res.Conflicts,
		Cached:       res.CacheInfo.ParseHits,
	}
	for i, p := range res.Parsed {
		errs := p.Errors
		if errs == nil {
			errs = []lockfile.ParseError{}
		}
		out.Files[i] = FileResult{
			Name:            res.Files[i],
			Format:          p.Format.String(),
			DependencyCount: len(p.Dependencies),
			Errors:          errs,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// decode reads a JSON body into v, writing the error response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, string(lserrors.ErrCodeInvalidInput), "request body too large")
			return false
		}
		s.fail(w, r, lserrors.Wrap(lserrors.ErrCodeInvalidInput, err, "invalid JSON body"))
		return false
	}
	return true
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(lserrors.GetCode(err))
	if status >= http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "id", RequestID(r.Context()), "error", err)
	}
	code := string(lserrors.GetCode(err))
	if code == "" {
		code = string(lserrors.ErrCodeInternal)
	}
	writeError(w, r, status, code, lserrors.UserMessage(err))
}

func statusFor(code lserrors.Code) int {
	switch code {
	case lserrors.ErrCodeInvalidInput, lserrors.ErrCodeInvalidLockfile, lserrors.ErrCodeInvalidPath,
		lserrors.ErrCodeInvalidPackage, lserrors.ErrCodeUnknownFormat, lserrors.ErrCodeNoLockfiles:
		return http.StatusBadRequest
	case lserrors.ErrCodeNotFound, lserrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case lserrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code, RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
