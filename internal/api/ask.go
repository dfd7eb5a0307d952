package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docqa/internal/answer"
	"docqa/internal/quota"
)

const maxRequestBodySize = 64 << 10 // 64KB; questions are bounded far below this

// Asker runs one question/answer cycle.
type Asker interface {
	Ask(ctx context.Context, ownerID, question string) (answer.Result, error)
}

// Usage reports quota state without consuming a slot.
type Usage interface {
	Usage(ctx context.Context, ownerID, day string) (quota.Reservation, error)
}

// Deps holds the handler dependencies.
type Deps struct {
	Auth   Authenticator
	Answer Asker
	Quota  Usage
}

// NewHandler builds the HTTP API: a public health endpoint plus
// authenticated question and usage routes.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireUser(deps.Auth))
		r.Post("/ask", handleAsk(deps))
		r.Get("/usage", handleUsage(deps))
	})

	return r
}

type askRequest struct {
	Question string `json:"question"`
}

func handleAsk(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		res, err := deps.Answer.Ask(r.Context(), userID(r), req.Question)
		if err != nil {
			writeAskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// writeAskError converts the orchestrator's error taxonomy to the wire shapes:
// 400 for validation, 429 with exhausted counters for quota, and a generic 500
// carrying the reservation counters for everything upstream. Raw provider
// errors are logged truncated, never returned to the client.
func writeAskError(w http.ResponseWriter, err error) {
	var verr *answer.ValidationError
	if errors.As(err, &verr) {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", verr.Reason)
		return
	}

	var qerr *answer.QuotaExceededError
	if errors.As(err, &qerr) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{
				"message": "daily question quota exceeded",
				"type":    "quota_exceeded",
			},
			"questions_used":      qerr.Used,
			"questions_remaining": 0,
		})
		return
	}

	var uerr *answer.UpstreamError
	if errors.As(err, &uerr) {
		slog.Error("question pipeline failed", "stage", uerr.Stage, "error", truncateErr(uerr.Err, 200))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{
				"message": "something went wrong answering your question, please try again",
				"type":    "api_error",
			},
			"questions_used":      uerr.Used,
			"questions_remaining": uerr.Remaining,
		})
		return
	}

	slog.Error("unexpected ask error", "error", truncateErr(err, 200))
	httpError(w, http.StatusInternalServerError, "api_error", "internal error")
}

func handleUsage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := deps.Quota.Usage(r.Context(), userID(r), quota.Today())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read usage")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{
			"questions_used":      res.Used,
			"questions_remaining": res.Remaining,
		})
	}
}
