package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BatchKind labels what kind of bulk operation a batch record covers.
type BatchKind string

const (
	BatchContactImport BatchKind = "contact_import"
	BatchMessageSend   BatchKind = "message_send"
)

// Batch is the stored outcome of one completed bulk operation.
type Batch struct {
	ID        string    `json:"id"`
	Kind      BatchKind `json:"kind"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchRepository records completed bulk operations for the history
// view.
type BatchRepository struct {
	db *sql.DB
}

func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Record stores one completed batch. The record is written after the
// batch has settled and is never updated.
func (r *BatchRepository) Record(batch *Batch) error {
	batch.ID = uuid.New().String()
	batch.CreatedAt = time.Now()

	_, err := r.db.Exec(`
		INSERT INTO batches (id, kind, total, succeeded, failed, skipped, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.Kind, batch.Total, batch.Succeeded, batch.Failed, batch.Skipped, batch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record batch: %w", err)
	}
	return nil
}

// List returns the most recent batches, newest first.
func (r *BatchRepository) List(limit int) ([]Batch, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, kind, total, succeeded, failed, skipped, created_at
		FROM batches ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Kind, &b.Total, &b.Succeeded, &b.Failed, &b.Skipped, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
