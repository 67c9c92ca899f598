package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/annstore/vecdb/authn"
	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/control"
	"github.com/annstore/vecdb/query"
	"github.com/annstore/vecdb/stats"
	"github.com/annstore/vecdb/store"
	"github.com/golang/glog"
)

// maxBodyBytes bounds a single request body, independent of the metadata
// and batch-size limits enforced deeper in the stack — this is just a
// blunt guard against an unbounded read.
const maxBodyBytes = 64 << 20

// Server is the HTTP/REST front door (§6): it terminates both the native
// path-style surface and the action-coordinate surface over the same
// control/query/builder operations. Grounded on aistore's ais/proxy.go
// method-switch dispatch (bucketHandler/objectHandler) and its
// healthHandler liveness check.
type Server struct {
	Control *control.Plane
	Query   *query.Engine
	Store   store.Adapter
	Stats   *stats.Registry
	Cfg     *cmn.Config
	// Secret, when non-empty, requires every request but /healthz to carry
	// a valid "Authorization: Bearer <token>" header (authn package).
	// Left empty, the front door runs unauthenticated — the posture a
	// single-tenant or already-network-isolated deployment chooses.
	Secret string

	started bool
}

func NewServer(ctrl *control.Plane, eng *query.Engine, s store.Adapter, st *stats.Registry, cfg *cmn.Config, secret string) *Server {
	return &Server{Control: ctrl, Query: eng, Store: s, Stats: st, Cfg: cfg, Secret: secret, started: true}
}

// Handler builds the root http.Handler. One ServeMux entry point dispatches
// everything past /healthz to dispatch, which decides native vs action
// shape from the first path segment.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.healthHandler)
	mux.HandleFunc("/", s.authenticated(s.dispatch))
	return mux
}

// healthHandler is a liveness probe only (§6 "Exit codes / CLI": "liveness
// is a GET /healthz returning 200"); it does not piggy-back cluster state
// onto the response since this service has no cluster to report.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !s.started {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Secret == "" {
			next(w, r)
			return
		}
		const prefix = "Bearer "
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, prefix) {
			writeUnauthorized(w, authn.ErrNoToken)
			return
		}
		if _, err := authn.DecryptToken(strings.TrimPrefix(h, prefix), s.Secret); err != nil {
			writeUnauthorized(w, err)
			return
		}
		next(w, r)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, cmn.ErrValidation("failed to read request body: %v", err)
	}
	if len(raw) > maxBodyBytes {
		return nil, cmn.ErrValidation("request body exceeds %d bytes", maxBodyBytes)
	}
	return raw, nil
}

// dispatch decides between the native path-style surface (first segment
// "buckets") and the action-coordinate surface (first segment is an
// action name), matching aistore's own top-level method-switch handlers.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	if path == "" {
		writeError(w, cmn.ErrValidation("empty request path"))
		return
	}
	segs := strings.Split(path, "/")

	raw, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := decodeBody(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	if segs[0] == "buckets" {
		s.nativeHandler(w, r, segs[1:], body)
		return
	}
	s.actionHandler(w, r, segs[0], body)
}

func init() {
	glog.V(4).Infof("api: front door handlers registered")
}
