// Package response writes the JSON envelope shared by every endpoint:
// {"success": bool, "message": "...", <payload keys>, "error": ...}.
package response

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/nikhil/teamtasks/internal/logger"
)

// Fields are payload keys merged into the envelope
type Fields map[string]interface{}

var (
	development atomic.Bool
	encodeLog   atomic.Pointer[logger.Logger]
)

func init() {
	encodeLog.Store(logger.NewLogger("response"))
}

// SetDevelopment toggles whether 500 responses expose the underlying error text
func SetDevelopment(on bool) {
	development.Store(on)
}

// SetLogger replaces the logger that reports payloads which fail to encode
func SetLogger(l *logger.Logger) {
	encodeLog.Store(l)
}

// JSON writes payload with the given status code
func JSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		encodeLog.Load().Error("Failed to encode response", "status", code, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

// Success writes {"success": true, "message": message, ...fields}. An empty message is omitted.
func Success(w http.ResponseWriter, code int, message string, fields Fields) {
	body := Fields{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, code, body)
}

// Error writes {"success": false, "message": message}
func Error(w http.ResponseWriter, code int, message string) {
	JSON(w, code, Fields{"success": false, "message": message})
}

// ServerError writes a 500 whose error detail is only visible in development
func ServerError(w http.ResponseWriter, message string, err error) {
	var detail interface{} = struct{}{}
	if development.Load() && err != nil {
		detail = err.Error()
	}
	JSON(w, http.StatusInternalServerError, Fields{"success": false, "message": message, "error": detail})
}
