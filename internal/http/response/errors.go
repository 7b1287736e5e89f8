package response

import (
	"net/http"
)

// Messages shown to visitors. They are plain text, in Czech.
const (
	MsgInvalidLead        = "Chybí požadované údaje nebo nejsou ve správném formátu."
	MsgInternal           = "Něco se pokazilo."
	MsgNotFound           = "Nenalezeno."
	MsgLeadNotFound       = "Poptávka nenalezena."
	MsgInvalidCredentials = "Neplatné přihlašovací údaje."
)

// WriteText writes a plain-text response.
func WriteText(w http.ResponseWriter, statusCode int, message string) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(message))
}

func BadRequest(w http.ResponseWriter) {
	WriteText(w, http.StatusBadRequest, MsgInvalidLead)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteText(w, http.StatusNotFound, message)
}

func InternalError(w http.ResponseWriter) {
	WriteText(w, http.StatusInternalServerError, MsgInternal)
}
