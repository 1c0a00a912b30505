package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

var (
	ErrInvalidConfig    = errors.New("invalid session config")
	ErrFinishInProgress = errors.New("finish already in progress")
)

// NeedsConfirmation is returned by Finish when unanswered questions remain
// and force is false. The caller is expected to confirm with the user and
// re-invoke with force=true.
type NeedsConfirmation struct {
	Unanswered int
}

func (e *NeedsConfirmation) Error() string {
	return fmt.Sprintf("%d unanswered questions, confirmation required", e.Unanswered)
}

// QuestionSource is the read-only question bank as the engine sees it.
type QuestionSource interface {
	Size() int
	Sample(n int) []Question
}

// EventRecorder receives best-effort audit events. Implementations must not
// block the caller on failure.
type EventRecorder interface {
	Record(ctx context.Context, typ, key string, data any)
}

// TimerEvent is the outcome of one countdown tick.
type TimerEvent int

const (
	TimerNone TimerEvent = iota
	TimerTicked
	TimerExpired
)

// Engine owns the single active session for its whole lifetime: it creates
// or resumes sessions, tracks answers, drives the countdown, persists the
// full snapshot on every mutation, and finalizes into a Result. All
// operations serialize on one mutex; there is exactly one logical writer.
type Engine struct {
	mu    sync.Mutex
	store Store
	bank  QuestionSource

	events EventRecorder
	now    func() time.Time

	sess      *Session
	remaining int // seconds; meaningful only for timed sessions
	expired   bool
	finishing bool
	countdown *countdown

	// set by tests that drive Tick by hand
	noTicker bool
}

func NewEngine(store Store, bank QuestionSource) *Engine {
	return &Engine{
		store: store,
		bank:  bank,
		now:   time.Now,
	}
}

// SetEvents attaches an audit sink. Optional.
func (e *Engine) SetEvents(rec EventRecorder) { e.events = rec }

// StartOrResume resumes the persisted session when its config matches cfg by
// value, otherwise discards any stale slot and starts a fresh session. The
// new or resumed session is persisted before returning.
func (e *Engine) StartOrResume(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.NumQuestions <= 0 || cfg.TimeLimitSec < 0 {
		return nil, ErrInvalidConfig
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if n := e.bank.Size(); cfg.NumQuestions > n {
		cfg.NumQuestions = n
	}

	e.stopCountdownLocked()

	if prev, err := e.store.LoadSession(ctx); err == nil && prev.Config == cfg {
		e.adoptLocked(prev)
		if e.events != nil {
			e.events.Record(ctx, EventSessionResumed, prev.ID, prev.Config)
		}
		return e.sess.Clone(), nil
	}
	// Stale or absent slot: start fresh.
	if err := e.store.ClearSession(ctx); err != nil {
		return nil, err
	}

	now := e.now()
	questions := e.bank.Sample(cfg.NumQuestions)
	answers := make([]UserAnswer, len(questions))
	for i, q := range questions {
		answers[i] = UserAnswer{QuestionID: q.ID}
	}
	sess := &Session{
		ID:        "test_" + strconv.FormatInt(now.UnixNano(), 10),
		Questions: questions,
		Answers:   answers,
		Config:    cfg,
		StartedAt: now.UnixMilli(),
	}
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	e.adoptLocked(sess)
	if e.events != nil {
		e.events.Record(ctx, EventSessionStarted, sess.ID, cfg)
	}
	return e.sess.Clone(), nil
}

// adoptLocked installs sess as the active session, recomputes the remaining
// time from the persisted start timestamp and starts the countdown for timed
// sessions.
func (e *Engine) adoptLocked(sess *Session) {
	e.sess = sess
	e.expired = false
	e.finishing = false
	if sess.Config.TimeLimitSec > 0 {
		elapsed := int(e.now().UnixMilli()-sess.StartedAt) / 1000
		e.remaining = sess.Config.TimeLimitSec - elapsed
		if e.remaining < 0 {
			e.remaining = 0
		}
		if !e.noTicker {
			e.countdown = startCountdown(e)
		}
	} else {
		e.remaining = 0
	}
}

// SelectAnswer records an answer for a question of the current session.
// Policy: lock on first answer; once a question has a recorded selection,
// later selections are silently ignored. Unknown question ids and
// out-of-range indexes are no-ops.
func (e *Engine) SelectAnswer(ctx context.Context, questionID string, answerIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ErrNoSession
	}
	for i, q := range e.sess.Questions {
		if q.ID != questionID {
			continue
		}
		if e.sess.Answers[i].Answered() {
			return nil
		}
		if answerIndex < 0 || answerIndex >= len(q.Options) {
			return nil
		}
		correct := answerIndex == q.CorrectIndex
		e.sess.Answers[i].SelectedIndex = &answerIndex
		e.sess.Answers[i].Correct = &correct
		return e.store.SaveSession(ctx, e.sess)
	}
	return nil
}

// Navigate moves the current position, clamped to the question range.
func (e *Engine) Navigate(ctx context.Context, target int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ErrNoSession
	}
	if target < 0 {
		target = 0
	}
	if max := len(e.sess.Questions) - 1; target > max {
		target = max
	}
	if target == e.sess.CurrentIndex {
		return nil
	}
	e.sess.CurrentIndex = target
	return e.store.SaveSession(ctx, e.sess)
}

// Tick decrements the remaining time by one second, floored at zero. It
// reports TimerExpired exactly once; the countdown owner translates that
// into a forced Finish. Untimed or absent sessions ignore ticks.
func (e *Engine) Tick() TimerEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil || e.sess.Config.TimeLimitSec == 0 || e.finishing {
		return TimerNone
	}
	if e.remaining > 0 {
		e.remaining--
	}
	if e.remaining == 0 && !e.expired {
		e.expired = true
		return TimerExpired
	}
	return TimerTicked
}

// Finish converts the active session into a Result, appends it to history
// and clears the slot. With unanswered questions and force=false it returns
// *NeedsConfirmation and mutates nothing. Finishing happens at most once per
// session: a second call while one is in flight gets ErrFinishInProgress,
// and a call after completion gets ErrNoSession.
func (e *Engine) Finish(ctx context.Context, force bool) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finishing {
		return nil, ErrFinishInProgress
	}
	if e.sess == nil {
		return nil, ErrNoSession
	}

	unanswered := 0
	for _, a := range e.sess.Answers {
		if !a.Answered() {
			unanswered++
		}
	}
	if unanswered > 0 && !force {
		return nil, &NeedsConfirmation{Unanswered: unanswered}
	}

	e.finishing = true
	defer func() { e.finishing = false }()

	correct := 0
	for _, a := range e.sess.Answers {
		if a.Correct != nil && *a.Correct {
			correct++
		}
	}
	n := len(e.sess.Questions)
	score := 0.0
	if n > 0 {
		score = 100 * float64(correct) / float64(n)
	}

	now := e.now()
	var timeTaken float64
	if limit := e.sess.Config.TimeLimitSec; limit > 0 {
		timeTaken = float64(limit - e.remaining)
	} else {
		timeTaken = float64(now.UnixMilli()-e.sess.StartedAt) / 1000
	}

	res := &Result{
		ID:           e.sess.ID,
		Date:         now.UnixMilli(),
		Config:       e.sess.Config,
		Score:        score,
		TimeTakenSec: timeTaken,
		Answers:      e.sess.Answers,
		Questions:    e.sess.Questions,
	}
	if err := e.store.AppendResult(ctx, res); err != nil {
		return nil, err
	}
	if err := e.store.ClearSession(ctx); err != nil {
		return nil, err
	}
	e.stopCountdownLocked()
	e.sess = nil
	if e.events != nil {
		e.events.Record(ctx, EventResultRecorded, res.ID, map[string]any{
			"score": res.Score, "unanswered": unanswered,
		})
	}
	return res, nil
}

// Abandon discards the active session without producing a Result. Callers
// must have confirmed with the user first.
func (e *Engine) Abandon(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ErrNoSession
	}
	if err := e.store.ClearSession(ctx); err != nil {
		return err
	}
	e.stopCountdownLocked()
	id := e.sess.ID
	e.sess = nil
	if e.events != nil {
		e.events.Record(ctx, EventSessionAbandoned, id, nil)
	}
	return nil
}

// Snapshot returns a copy of the active session and the remaining seconds.
// When the engine holds no session it falls back to the persisted slot
// (read-only, without adopting it).
func (e *Engine) Snapshot(ctx context.Context) (*Session, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess != nil {
		return e.sess.Clone(), e.remaining, nil
	}
	sess, err := e.store.LoadSession(ctx)
	if err != nil {
		return nil, 0, err
	}
	remaining := 0
	if sess.Config.TimeLimitSec > 0 {
		remaining = sess.Config.TimeLimitSec - int(e.now().UnixMilli()-sess.StartedAt)/1000
		if remaining < 0 {
			remaining = 0
		}
	}
	return sess, remaining, nil
}

// Close tears the engine down, cancelling any running countdown. The active
// session stays persisted and is resumable by the next engine.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCountdownLocked()
}

func (e *Engine) stopCountdownLocked() {
	if e.countdown != nil {
		e.countdown.stop()
		e.countdown = nil
	}
}
