package session

// Question is one entry of the static bank. Immutable after load.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"question_text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_answer_index"`
	Explanation  string   `json:"explanation,omitempty"`
}

// UserAnswer tracks one question's answer state. Nil SelectedIndex means
// unanswered; nil Correct means not yet evaluated. Correctness is fixed at
// selection time and never recomputed.
type UserAnswer struct {
	QuestionID    string `json:"question_id"`
	SelectedIndex *int   `json:"selected_answer_index"`
	Correct       *bool  `json:"is_correct"`
}

func (a UserAnswer) Answered() bool { return a.SelectedIndex != nil }

// Config is what the user picks on the start screen. TimeLimitSec 0 means
// untimed.
type Config struct {
	NumQuestions int `json:"num_questions"`
	TimeLimitSec int `json:"time_limit_sec"`
}

// Session is the mutable state of one in-progress test attempt. At most one
// exists at a time; it occupies the single active-session slot in the store.
// Invariant: Answers is index-aligned 1:1 with Questions.
type Session struct {
	ID           string       `json:"id"`
	Questions    []Question   `json:"questions"`
	Answers      []UserAnswer `json:"answers"`
	CurrentIndex int          `json:"current_question_index"`
	Config       Config       `json:"config"`
	StartedAt    int64        `json:"started_at"` // unix millis
}

// Clone returns a deep copy safe to hand outside the engine.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Questions = make([]Question, len(s.Questions))
	copy(cp.Questions, s.Questions)
	cp.Answers = make([]UserAnswer, len(s.Answers))
	for i, a := range s.Answers {
		cp.Answers[i] = a.clone()
	}
	return &cp
}

func (a UserAnswer) clone() UserAnswer {
	cp := a
	if a.SelectedIndex != nil {
		v := *a.SelectedIndex
		cp.SelectedIndex = &v
	}
	if a.Correct != nil {
		v := *a.Correct
		cp.Correct = &v
	}
	return cp
}

// Result is the immutable record produced when a session finishes. Its ID
// equals the originating session's ID.
type Result struct {
	ID           string       `json:"id"`
	Date         int64        `json:"date"` // unix millis, completion time
	Config       Config       `json:"config"`
	Score        float64      `json:"score"` // percentage in [0,100]
	TimeTakenSec float64      `json:"time_taken_sec"`
	Answers      []UserAnswer `json:"answers"`
	Questions    []Question   `json:"questions"`
}
