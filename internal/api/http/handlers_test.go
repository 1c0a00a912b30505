package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/testprep-labs/testprep/internal/api/http"
	"github.com/testprep-labs/testprep/internal/bank"
	"github.com/testprep-labs/testprep/internal/session"
)

func newTestRouter(t *testing.T) (chi.Router, session.Store) {
	t.Helper()
	questions := make([]session.Question, 6)
	for i := range questions {
		questions[i] = session.Question{
			ID:           fmt.Sprintf("q%d", i+1),
			Text:         fmt.Sprintf("question %d", i+1),
			Options:      []string{"a", "b", "c"},
			CorrectIndex: 0,
		}
	}
	qb, err := bank.New(questions)
	if err != nil {
		t.Fatal(err)
	}
	store := session.NewInMemoryStore()
	eng := session.NewEngine(store, qb)
	t.Cleanup(eng.Close)

	r := chi.NewRouter()
	r.Route("/api", func(ar chi.Router) {
		ar.Post("/session", api.StartSessionHandler(eng))
		ar.Get("/session", api.GetSessionHandler(eng))
		ar.Delete("/session", api.AbandonHandler(eng))
		ar.Post("/session/answers", api.SelectAnswerHandler(eng))
		ar.Post("/session/navigate", api.NavigateHandler(eng))
		ar.Post("/session/finish", api.FinishHandler(eng))
		ar.Get("/history", api.ListHistoryHandler(store))
		ar.Get("/history/{resultID}", api.GetResultHandler(store))
		ar.Delete("/history", api.ClearHistoryHandler(store, nil))
	})
	return r, store
}

func do(t *testing.T, r chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type sessionViewOut struct {
	Session          *session.Session `json:"session"`
	TimeRemainingSec int              `json:"time_remaining_sec"`
}

func startSession(t *testing.T, r chi.Router, n, limit int) *session.Session {
	t.Helper()
	rec := do(t, r, "POST", "/api/session", map[string]int{
		"num_questions": n, "time_limit_sec": limit,
	})
	if rec.Code != 200 {
		t.Fatalf("start: status %d: %s", rec.Code, rec.Body)
	}
	var out sessionViewOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	return out.Session
}

func TestStartAndGetSession(t *testing.T) {
	r, _ := newTestRouter(t)

	s := startSession(t, r, 4, 0)
	if len(s.Questions) != 4 || len(s.Answers) != 4 {
		t.Fatalf("session shape wrong: %d questions, %d answers", len(s.Questions), len(s.Answers))
	}

	rec := do(t, r, "GET", "/api/session", nil)
	if rec.Code != 200 {
		t.Fatalf("get: status %d", rec.Code)
	}
}

func TestStartRejectsBadConfig(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := do(t, r, "POST", "/api/session", map[string]int{"num_questions": 0})
	if rec.Code != 400 {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestFinishRequiresConfirmationWhenUnanswered(t *testing.T) {
	r, _ := newTestRouter(t)
	startSession(t, r, 3, 0)

	rec := do(t, r, "POST", "/api/session/finish", map[string]bool{"force": false})
	if rec.Code != 409 {
		t.Fatalf("status %d, want 409", rec.Code)
	}
	var out struct {
		NeedsConfirmation bool `json:"needs_confirmation"`
		Unanswered        int  `json:"unanswered"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if !out.NeedsConfirmation || out.Unanswered != 3 {
		t.Fatalf("payload = %+v", out)
	}

	// The session survived the refused finish.
	if rec := do(t, r, "GET", "/api/session", nil); rec.Code != 200 {
		t.Fatalf("session gone after refused finish: %d", rec.Code)
	}
}

func TestAnswerFinishAndReview(t *testing.T) {
	r, _ := newTestRouter(t)
	s := startSession(t, r, 3, 0)

	for _, q := range s.Questions {
		rec := do(t, r, "POST", "/api/session/answers", map[string]interface{}{
			"question_id": q.ID, "selected_index": q.CorrectIndex,
		})
		if rec.Code != 200 {
			t.Fatalf("answer: status %d", rec.Code)
		}
	}

	rec := do(t, r, "POST", "/api/session/finish", map[string]bool{"force": false})
	if rec.Code != 200 {
		t.Fatalf("finish: status %d: %s", rec.Code, rec.Body)
	}
	var res session.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Score != 100 {
		t.Fatalf("score = %v, want 100", res.Score)
	}

	// Session is gone, result is reviewable.
	if rec := do(t, r, "GET", "/api/session", nil); rec.Code != 404 {
		t.Fatalf("session still alive: %d", rec.Code)
	}
	rec = do(t, r, "GET", "/api/history/"+res.ID, nil)
	if rec.Code != 200 {
		t.Fatalf("review: status %d", rec.Code)
	}
	var review struct {
		Summary struct {
			Correct    int `json:"correct"`
			Incorrect  int `json:"incorrect"`
			Unanswered int `json:"unanswered"`
		} `json:"summary"`
		Review []json.RawMessage `json:"review"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &review); err != nil {
		t.Fatal(err)
	}
	if review.Summary.Correct != 3 || review.Summary.Incorrect != 0 || review.Summary.Unanswered != 0 {
		t.Fatalf("summary = %+v", review.Summary)
	}
	if len(review.Review) != 3 {
		t.Fatalf("got %d review rows, want 3", len(review.Review))
	}
}

func TestNavigateClampsAtBoundary(t *testing.T) {
	r, _ := newTestRouter(t)
	startSession(t, r, 3, 0)

	rec := do(t, r, "POST", "/api/session/navigate", map[string]int{"index": 42})
	if rec.Code != 200 {
		t.Fatalf("navigate: status %d", rec.Code)
	}
	var out sessionViewOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Session.CurrentIndex != 2 {
		t.Fatalf("index = %d, want clamped to 2", out.Session.CurrentIndex)
	}
}

func TestAbandonSession(t *testing.T) {
	r, _ := newTestRouter(t)
	startSession(t, r, 2, 0)

	if rec := do(t, r, "DELETE", "/api/session", nil); rec.Code != 204 {
		t.Fatalf("abandon: status %d", rec.Code)
	}
	if rec := do(t, r, "GET", "/api/session", nil); rec.Code != 404 {
		t.Fatalf("session survived abandon: %d", rec.Code)
	}
	if rec := do(t, r, "GET", "/api/history", nil); rec.Code != 200 || rec.Body.String() == "" {
		t.Fatalf("history: status %d", rec.Code)
	}
}

func TestHistoryClearAndNotFound(t *testing.T) {
	r, store := newTestRouter(t)

	// Finish three quick sessions; each start replaces the slot, so finish
	// before starting the next.
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		startSession(t, r, 2, 0)
		rec := do(t, r, "POST", "/api/session/finish", map[string]bool{"force": true})
		if rec.Code != 200 {
			t.Fatalf("finish %d: status %d", i, rec.Code)
		}
		var res session.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, res.ID)
	}
	if list, _ := store.ListResults(context.Background()); len(list) != 3 {
		t.Fatalf("have %d results, want 3", len(list))
	}

	if rec := do(t, r, "DELETE", "/api/history", nil); rec.Code != 204 {
		t.Fatalf("clear: status %d", rec.Code)
	}
	rec := do(t, r, "GET", "/api/history", nil)
	var list []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("history not empty after clear")
	}
	for _, id := range ids {
		if rec := do(t, r, "GET", "/api/history/"+id, nil); rec.Code != 404 {
			t.Fatalf("result %s still reachable: %d", id, rec.Code)
		}
	}
}
