package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/testprep-labs/testprep/internal/session"
)

type sessionView struct {
	Session          *session.Session `json:"session"`
	TimeRemainingSec int              `json:"time_remaining_sec"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /api/session {num_questions, time_limit_sec}
// Resumes the persisted session when the config matches, starts fresh
// otherwise.
func StartSessionHandler(eng *session.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			NumQuestions int `json:"num_questions"`
			TimeLimitSec int `json:"time_limit_sec"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		cfg := session.Config{NumQuestions: req.NumQuestions, TimeLimitSec: req.TimeLimitSec}
		if _, err := eng.StartOrResume(r.Context(), cfg); err != nil {
			if errors.Is(err, session.ErrInvalidConfig) {
				http.Error(w, err.Error(), 400)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		s, remaining, err := eng.Snapshot(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, 200, sessionView{Session: s, TimeRemainingSec: remaining})
	}
}

// GET /api/session
func GetSessionHandler(eng *session.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, remaining, err := eng.Snapshot(r.Context())
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				http.Error(w, "no active session", 404)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, 200, sessionView{Session: s, TimeRemainingSec: remaining})
	}
}

// POST /api/session/answers {question_id, selected_index}
func SelectAnswerHandler(eng *session.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID    string `json:"question_id"`
			SelectedIndex int    `json:"selected_index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.QuestionID == "" {
			http.Error(w, "question_id required", 400)
			return
		}
		if err := eng.SelectAnswer(r.Context(), req.QuestionID, req.SelectedIndex); err != nil {
			if errors.Is(err, session.ErrNoSession) {
				http.Error(w, "no active session", 404)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		s, remaining, err := eng.Snapshot(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, 200, sessionView{Session: s, TimeRemainingSec: remaining})
	}
}

// POST /api/session/navigate {index}
func NavigateHandler(eng *session.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Index int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := eng.Navigate(r.Context(), req.Index); err != nil {
			if errors.Is(err, session.ErrNoSession) {
				http.Error(w, "no active session", 404)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		s, remaining, err := eng.Snapshot(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, 200, sessionView{Session: s, TimeRemainingSec: remaining})
	}
}

// POST /api/session/finish {force}
// 409 with a needs_confirmation payload when unanswered questions remain and
// force is false.
func FinishHandler(eng *session.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Force bool `json:"force"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		res, err := eng.Finish(r.Context(), req.Force)
		if err != nil {
			var confirm *session.NeedsConfirmation
			switch {
			case errors.As(err, &confirm):
				writeJSON(w, 409, map[string]interface{}{
					"needs_confirmation": true,
					"unanswered":         confirm.Unanswered,
				})
			case errors.Is(err, session.ErrFinishInProgress):
				http.Error(w, err.Error(), 409)
			case errors.Is(err, session.ErrNoSession):
				http.Error(w, "no active session", 404)
			default:
				http.Error(w, err.Error(), 500)
			}
			return
		}
		writeJSON(w, 200, res)
	}
}

// DELETE /api/session
func AbandonHandler(eng *session.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := eng.Abandon(r.Context()); err != nil {
			if errors.Is(err, session.ErrNoSession) {
				http.Error(w, "no active session", 404)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		w.WriteHeader(204)
	}
}
