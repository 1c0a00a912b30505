package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/testprep-labs/testprep/internal/result"
	"github.com/testprep-labs/testprep/internal/session"
)

// GET /api/history — finished results, newest first.
func ListHistoryHandler(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListResults(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, 200, list)
	}
}

// GET /api/history/{resultID} — one result plus its summary and review rows.
func GetResultHandler(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "resultID")
		res, err := store.GetResult(r.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrResultNotFound) {
				http.Error(w, "result not found", 404)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, 200, map[string]interface{}{
			"result":  res,
			"summary": result.Summarize(res),
			"review":  result.ReviewRows(res),
		})
	}
}

// DELETE /api/history — bulk clear.
func ClearHistoryHandler(store session.Store, events session.EventRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.ClearResults(r.Context()); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if events != nil {
			events.Record(context.WithoutCancel(r.Context()), session.EventHistoryCleared, "history", nil)
		}
		w.WriteHeader(204)
	}
}
