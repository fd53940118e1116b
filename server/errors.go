package server

import (
	"net/http"

	"github.com/spacemonkeygo/errors"

	"polydawn.net/fperr/actors/foreman"
	"polydawn.net/fperr/codegen"
	"polydawn.net/fperr/def"
	"polydawn.net/fperr/eval"
)

// Most specific class first: a class matches all of its subclasses.
var statusByClass = []struct {
	class  *errors.ErrorClass
	status int
}{
	{def.ParseError, http.StatusBadRequest},
	{def.ValidationError, http.StatusBadRequest},
	{codegen.UnsupportedTargetError, http.StatusBadRequest},
	{foreman.JobNotFoundError, http.StatusNotFound},
	{eval.DomainError, http.StatusUnprocessableEntity},
}

func statusFor(err error) int {
	class := errors.GetClass(err)
	for _, sc := range statusByClass {
		if class.Is(sc.class) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Class string `json:"class"`
	Msg   string `json:"msg"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{errorDetail{
		Class: errors.GetClass(err).String(),
		Msg:   errors.GetMessage(err),
	}})
}
