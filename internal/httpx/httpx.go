// Package httpx holds the JSON request/response helpers shared by the HTTP
// layer: decoding, the error envelope and the authenticated user in context.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/MKale112/devConnector/internal/apperr"
)

const maxBody = 1 << 20

type HandlerFunc func(http.ResponseWriter, *http.Request) error

// Wrap turns a handler returning an error into an http.Handler that writes
// the error envelope.
func Wrap(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			WriteError(w, r, err)
		}
	})
}

type Msg struct {
	Msg string `json:"msg"`
}

type Errors struct {
	Errors []apperr.FieldError `json:"errors"`
}

// WriteError renders err. Field errors go out as {errors:[...]}, other
// application errors as {msg}, and anything else as a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		WriteJSON(w, Msg{Msg: "Server error"}, http.StatusInternalServerError)
		return
	}
	code := ae.StatusCode()
	if ae.Err != nil {
		slog.InfoContext(r.Context(), "request rejected", "path", r.URL.Path, "kind", ae.Kind.String(), "err", ae.Err)
	}
	if len(ae.Fields) > 0 {
		WriteJSON(w, Errors{Errors: ae.Fields}, code)
		return
	}
	WriteJSON(w, Msg{Msg: ae.Msg}, code)
}

func WriteJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode reads a JSON body into T. An empty body decodes to the zero value so
// that missing fields surface as validation errors.
func Decode[T any](r *http.Request) (T, error) {
	var t T
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&t)
	if err != nil && !errors.Is(err, io.EOF) {
		return t, apperr.Validation(apperr.FieldError{Msg: "Invalid request body"})
	}
	return t, nil
}

type ctxKey struct{}

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user, or "" outside an auth-gated route.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}
