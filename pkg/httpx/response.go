// Package httpx holds the JSON envelope, error mapping and middlewares
// shared by every HTTP handler of the service.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// Response is the envelope of every JSON response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Kind    apperr.Kind       `json:"kind"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// StatusOf maps an error kind to its HTTP status
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidQuantity, apperr.KindEmptyOrder, apperr.KindEmptyProduct:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindInsufficientStock:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// JSON writes payload with the given status
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response carrying data
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Response{Success: true, Data: data})
}

// Page writes a 200 response carrying one page of a listing
func Page(w http.ResponseWriter, items interface{}, meta interface{}) {
	JSON(w, http.StatusOK, Response{Success: true, Data: items, Meta: meta})
}

// Created writes a 201 response carrying the new resource
func Created(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// Error writes err as an error envelope. Internal errors are logged and
// reported without detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(apperr.From(err), &appErr) {
		appErr = apperr.Internal(err)
	}

	status := StatusOf(appErr.Kind)
	body := &ErrorBody{
		Kind:    appErr.Kind,
		Code:    appErr.Code,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	}
	if status == http.StatusInternalServerError {
		logger.Error(r.Context()).
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		body = &ErrorBody{Kind: apperr.KindInternal, Message: "internal server error"}
	}

	JSON(w, status, Response{Success: false, Error: body})
}
