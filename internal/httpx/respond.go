package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

const (
	MsgUnauthorized   = "Unauthorized"
	MsgInternal       = "Internal Server Error"
	MsgNotFound       = "Not Found"
	MsgLoggedOut      = "Logged-out"
	MsgMalformedInput = "Malformed request body"
)

// JSON writes v with status. A value that cannot be encoded becomes the
// generic 500 envelope, since nothing has been sent yet.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(Envelope{Success: false, Message: MsgInternal})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func Success(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Error(w http.ResponseWriter, message string) {
	ErrorWithStatus(w, http.StatusBadRequest, message)
}

func ErrorWithStatus(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

func ValidationError(w http.ResponseWriter, message string, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, Envelope{Success: false, Message: message, Errors: errs})
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = MsgNotFound
	}
	ErrorWithStatus(w, http.StatusNotFound, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = MsgUnauthorized
	}
	ErrorWithStatus(w, http.StatusUnauthorized, message)
}

func InternalServerError(w http.ResponseWriter, message string) {
	if message == "" {
		message = MsgInternal
	}
	ErrorWithStatus(w, http.StatusInternalServerError, message)
}

// LoggedOut answers a logout. The body reports success=false, matching what
// existing clients already check for.
func LoggedOut(w http.ResponseWriter, message string) {
	if message == "" {
		message = MsgLoggedOut
	}
	JSON(w, http.StatusOK, Envelope{Success: false, Message: message})
}
