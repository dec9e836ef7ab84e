package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropbear/bridge/internal/scripting"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// FaultEntry is one journaled script fault.
type FaultEntry struct {
	Session  uuid.UUID
	Tag      string
	Script   string
	Callback string
	EntityID int64
	Message  string
	At       time.Time
}

// FaultWriter persists a batch of entries atomically.
type FaultWriter interface {
	WriteFaults(ctx context.Context, entries []FaultEntry) error
}

type FaultRepo struct {
	db *DB
}

func NewFaultRepo(db *DB) *FaultRepo {
	return &FaultRepo{db: db}
}

// WriteFaults writes a batch of entries in a single transaction.
func (r *FaultRepo) WriteFaults(ctx context.Context, entries []FaultEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("fault journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO script_faults (session_id, tag, script, callback, entity_id, message, occurred_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.Session, e.Tag, e.Script, e.Callback, e.EntityID, e.Message, e.At,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("fault journal insert: %w", err)
	}

	return tx.Commit(ctx)
}

// FaultJournal buffers faults recorded during dispatch and writes them out
// on Flush. RecordFault never blocks on the database; once the buffer holds
// limit entries further faults are counted and dropped until the next flush.
type FaultJournal struct {
	w       FaultWriter
	session uuid.UUID
	limit   int
	log     *zap.Logger

	mu      sync.Mutex
	pending []FaultEntry
	dropped int
}

func NewFaultJournal(w FaultWriter, session uuid.UUID, limit int, log *zap.Logger) *FaultJournal {
	if limit <= 0 {
		limit = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FaultJournal{w: w, session: session, limit: limit, log: log}
}

// RecordFault implements scripting.FaultSink.
func (j *FaultJournal) RecordFault(f scripting.Fault) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.pending) >= j.limit {
		j.dropped++
		return
	}
	j.pending = append(j.pending, FaultEntry{
		Session:  j.session,
		Tag:      f.Tag,
		Script:   f.Script,
		Callback: f.Callback,
		EntityID: int64(f.Entity),
		Message:  msg,
		At:       f.At,
	})
}

// Pending reports the number of buffered entries.
func (j *FaultJournal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.pending)
}

// Flush writes the buffered entries. On failure they stay buffered for the
// next attempt.
func (j *FaultJournal) Flush(ctx context.Context) error {
	j.mu.Lock()
	batch := j.pending
	dropped := j.dropped
	j.pending = nil
	j.dropped = 0
	j.mu.Unlock()

	if dropped > 0 {
		j.log.Warn("fault journal overflow", zap.Int("dropped", dropped))
	}
	if len(batch) == 0 {
		return nil
	}
	if err := j.w.WriteFaults(ctx, batch); err != nil {
		j.mu.Lock()
		j.pending = append(batch, j.pending...)
		if over := len(j.pending) - j.limit; over > 0 {
			j.pending = j.pending[:j.limit]
			j.dropped += over
		}
		j.mu.Unlock()
		return err
	}
	j.log.Debug("fault journal flushed", zap.Int("entries", len(batch)))
	return nil
}
