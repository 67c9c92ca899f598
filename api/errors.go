package api

import (
	"net/http"
	"strings"

	"github.com/annstore/vecdb/cmn"
)

// errorEnvelope is the wire shape spec.md §6 requires for every error
// response, patterned on original_source/src/app/errors.py.
type errorEnvelope struct {
	Error errorBody `json:"Error"`
}

type errorBody struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// writeError maps err to its HTTP status via cmn.Kind.HTTPStatus and
// writes the JSON envelope. An error that didn't come from cmn is
// classified Internal by cmn.AsError rather than leaking raw text.
func writeError(w http.ResponseWriter, err error) {
	e := cmn.AsError(err)
	writeJSON(w, e.Kind.HTTPStatus(), errorEnvelope{Error: errorBody{
		Code:    e.Kind.String(),
		Message: e.Message,
	}})
}

// writeMethodNotAllowed reports the allowed methods for this resource
// rather than a bare 405.
func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, errorEnvelope{Error: errorBody{
		Code:    "MethodNotAllowedException",
		Message: "method not allowed, expected one of: " + strings.Join(allowed, ", "),
	}})
}

// writeUnauthorized reports a bearer-token failure. Authentication sits
// outside the closed error-kind set §7 defines for the core (it is front
// door ambient, not a core operation failure), so it gets its own status
// rather than being forced into one of cmn.Kind's five buckets.
func writeUnauthorized(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: errorBody{
		Code:    "UnauthorizedException",
		Message: err.Error(),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set(cmn.HdrContentType, cmn.MIMEJSON)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	w.Write(raw)
}
