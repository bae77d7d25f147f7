package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical details and the request ID, then
// returned to the client as a user message with a support code. Export
// failures use the export package's catalogue; table and dataset failures
// use the codes below.
//
//	TBL001 - Unknown column in sort, filter or hidden
//	TBL002 - Column cannot be sorted
//	TBL003 - Column cannot be filtered
//	TBL004 - Unknown row in select
//	DAT001 - Dataset not found
//	DAT002 - Dataset could not be loaded

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/datatable/internal/export"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/table"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrDatasetLoad     = errors.New("dataset load failed")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// mapError converts a handler error into a user message and HTTP status.
func mapError(err error) (export.UserMessage, int) {
	switch {
	case errors.Is(err, ErrDatasetNotFound):
		return export.UserMessage{Code: "DAT001", Message: "Dataset not found", Action: "Pick a dataset from /api/datasets"}, http.StatusNotFound
	case errors.Is(err, ErrDatasetLoad):
		return export.UserMessage{Code: "DAT002", Message: "The dataset could not be loaded", Action: "Please try again"}, http.StatusBadGateway
	case errors.Is(err, table.ErrUnknownColumn):
		return export.UserMessage{Code: "TBL001", Message: "Unknown column", Action: "Check the column IDs in the request"}, http.StatusBadRequest
	case errors.Is(err, table.ErrNotSortable):
		return export.UserMessage{Code: "TBL002", Message: "That column cannot be sorted", Action: "Sort by a different column"}, http.StatusBadRequest
	case errors.Is(err, table.ErrNotFilterable):
		return export.UserMessage{Code: "TBL003", Message: "That column cannot be filtered", Action: "Filter on a different column"}, http.StatusBadRequest
	case errors.Is(err, table.ErrUnknownRow):
		return export.UserMessage{Code: "TBL004", Message: "Unknown row selected", Action: "Reload the table and select again"}, http.StatusBadRequest
	}

	msg := export.MapError(err)
	switch {
	case errors.Is(err, export.ErrExportInProgress):
		return msg, http.StatusConflict
	case errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, export.ErrNoRows),
		errors.Is(err, export.ErrNoColumns),
		errors.Is(err, export.ErrInvalidOption):
		return msg, http.StatusBadRequest
	default:
		return msg, http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message. HTML pages get
// a plain-text body; everything else gets an ErrorResponse.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg, status := mapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if !wantsJSON(r) {
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", status)
		return
	}
	writeJSONStatus(w, status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeJSON encodes v as JSON with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure can only be dropped.
	_ = json.NewEncoder(w).Encode(v)
}
