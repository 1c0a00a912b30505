// Package result derives display data from finished test results. Pure
// reads; nothing here mutates the underlying record.
package result

import (
	"fmt"

	"github.com/testprep-labs/testprep/internal/session"
)

// Summary is the score breakdown of one finished result.
// Correct + Incorrect + Unanswered always equals the question count.
type Summary struct {
	Correct      int     `json:"correct"`
	Incorrect    int     `json:"incorrect"`
	Unanswered   int     `json:"unanswered"`
	Score        float64 `json:"score"`
	TimeTakenSec float64 `json:"time_taken_sec"`
}

func Summarize(r *session.Result) Summary {
	correct, incorrect := 0, 0
	for _, a := range r.Answers {
		switch {
		case a.Correct == nil:
		case *a.Correct:
			correct++
		default:
			incorrect++
		}
	}
	return Summary{
		Correct:      correct,
		Incorrect:    incorrect,
		Unanswered:   len(r.Answers) - correct - incorrect,
		Score:        r.Score,
		TimeTakenSec: r.TimeTakenSec,
	}
}

// ReviewRow is the per-question annotation for the review screen.
type ReviewRow struct {
	Question      session.Question `json:"question"`
	SelectedIndex *int             `json:"selected_answer_index"`
	CorrectIndex  int              `json:"correct_answer_index"`
	Correct       *bool            `json:"is_correct"`
}

func ReviewRows(r *session.Result) []ReviewRow {
	rows := make([]ReviewRow, len(r.Questions))
	for i, q := range r.Questions {
		rows[i] = ReviewRow{Question: q, CorrectIndex: q.CorrectIndex}
		if i < len(r.Answers) && r.Answers[i].QuestionID == q.ID {
			rows[i].SelectedIndex = r.Answers[i].SelectedIndex
			rows[i].Correct = r.Answers[i].Correct
		}
	}
	return rows
}

// FormatDuration renders seconds as mm:ss, or h:mm:ss past an hour.
func FormatDuration(sec float64) string {
	s := int(sec)
	if s < 0 {
		s = 0
	}
	h, m := s/3600, (s%3600)/60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s%60)
	}
	return fmt.Sprintf("%02d:%02d", m, s%60)
}
