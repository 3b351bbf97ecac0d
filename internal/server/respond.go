package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

// ReauthRedirect is where clients send a user whose calendar grant expired.
const ReauthRedirect = "/sign-in?reauth=true"

// Error codes returned in the "error" field.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeReauthRequired  = "REAUTH_REQUIRED"
	CodeNotFound        = "NOT_FOUND"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Reauth   bool   `json:"reauth,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error response with the given status code.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, ErrorResponse{Error: errCode, Message: message})
}

// WriteReauth tells the client to send the user back through sign-in.
func WriteReauth(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:    CodeReauthRequired,
		Message:  message,
		Reauth:   true,
		Redirect: ReauthRedirect,
	})
}

// writeAppError maps err onto a status and a client-safe message and logs it.
func writeAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, event string, err error) {
	status := common.HTTPStatus(err)
	log := common.LoggerFromContext(r.Context(), logger)
	if status >= http.StatusInternalServerError {
		log.Error(event, "status", status, "err", err)
	} else {
		log.Warn(event, "status", status, "err", err)
	}

	if errors.Is(err, common.ErrReauthRequired) {
		WriteReauth(w, "Calendar access expired, please sign in again")
		return
	}

	code := common.AppCode(err)
	msg := publicMessage(err)
	switch {
	case errors.Is(err, common.ErrContract):
		code, msg = CodeUpstream, "The model returned an unusable response, please try again"
	case status >= http.StatusInternalServerError:
		if code == "" {
			code = CodeInternal
		}
		msg = "An unexpected error occurred"
		if status == http.StatusBadGateway {
			code = CodeUpstream
			msg = "An upstream service is unavailable, please try again"
		}
	case code == "":
		code = defaultCode(status)
	}
	WriteError(w, status, code, msg)
}

// publicMessage returns the outermost AppError message, which never carries causes.
func publicMessage(err error) string {
	var ae *common.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return http.StatusText(common.HTTPStatus(err))
}

func defaultCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	}
	return CodeInternal
}
