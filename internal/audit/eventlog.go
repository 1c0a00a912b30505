// Package audit appends application events to the event_log table.
// Best-effort: recording never fails the user-facing operation.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

// Record appends one event. data is marshalled to JSON; nil becomes {}.
func (l *Log) Record(ctx context.Context, typ, key string, data any) {
	buf := []byte("{}")
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			log.Printf("audit: marshal %s event: %v", typ, err)
			return
		}
		buf = b
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	if err != nil {
		log.Printf("audit: append %s event: %v", typ, err)
	}
}
