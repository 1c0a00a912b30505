// Package bank loads and serves the static question collection.
package bank

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/testprep-labs/testprep/internal/session"
)

// Bank is the read-only source collection of all available questions.
type Bank struct {
	questions []session.Question
	byID      map[string]session.Question
}

type bankFile struct {
	Questions []session.Question `json:"questions"`
}

// Load reads the question bank JSON file and validates every record.
func Load(path string) (*Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}
	var f bankFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse bank: %w", err)
	}
	return New(f.Questions)
}

// New builds a Bank from an in-memory question list.
func New(questions []session.Question) (*Bank, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	byID := make(map[string]session.Question, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d: empty id", i)
		}
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("question %q: duplicate id", q.ID)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %q: needs at least 2 options", q.ID)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return nil, fmt.Errorf("question %q: correct index %d out of range", q.ID, q.CorrectIndex)
		}
		byID[q.ID] = q
	}
	qs := make([]session.Question, len(questions))
	copy(qs, questions)
	return &Bank{questions: qs, byID: byID}, nil
}

func (b *Bank) Size() int { return len(b.questions) }

// Questions returns a copy of the full ordered collection.
func (b *Bank) Questions() []session.Question {
	out := make([]session.Question, len(b.questions))
	copy(out, b.questions)
	return out
}

func (b *Bank) Get(id string) (session.Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// Sample returns n distinct questions in random order, without replacement.
// n greater than the bank size returns the whole bank shuffled.
func (b *Bank) Sample(n int) []session.Question {
	if n > len(b.questions) {
		n = len(b.questions)
	}
	shuffled := b.Questions()
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
