package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-cheque-batch/internal/model"
)

// Store is the sqlite-backed batch registry. It is injected everywhere it is
// needed rather than held as package state, and supports independent
// per-batch updates: every write is keyed by batch id, so concurrent batches
// never interfere.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the registry database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one pooled connection avoids lock
	// contention and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			total_items INTEGER NOT NULL,
			processed_items INTEGER NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			failed_count INTEGER NOT NULL DEFAULT 0,
			report TEXT,
			created_at DATETIME NOT NULL,
			completed_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			batch_id TEXT NOT NULL,
			name TEXT,
			payload_ref TEXT,
			mime_type TEXT,
			status TEXT NOT NULL,
			retries INTEGER NOT NULL DEFAULT 0,
			result TEXT,
			error_message TEXT,
			processing_time_ms INTEGER,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_batch ON items(batch_id);`,
		`CREATE TABLE IF NOT EXISTS batch_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL,
			severity TEXT NOT NULL,
			error_message TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// CreateBatch records a new QUEUED batch together with its PENDING items.
func (s *Store) CreateBatch(ctx context.Context, batchID string, items []model.Item) error {
	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, status, total_items, created_at) VALUES (?, ?, ?, ?)`,
		batchID, model.BatchQueued, len(items), now)
	if err != nil {
		return err
	}
	for _, item := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO items (id, batch_id, name, payload_ref, mime_type, status, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, batchID, item.Name, item.PayloadRef, item.MimeType, model.ItemPending, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// MarkItemsProcessing flags items as in flight.
func (s *Store) MarkItemsProcessing(ctx context.Context, batchID string, itemIDs ...string) error {
	now := time.Now().UTC()
	for _, id := range itemIDs {
		_, err := s.db.ExecContext(ctx,
			`UPDATE items SET status = ?, updated_at = ? WHERE id = ? AND batch_id = ?`,
			model.ItemProcessing, now, id, batchID)
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateItem records an item's terminal outcome.
func (s *Store) UpdateItem(ctx context.Context, batchID string, out model.ItemOutcome) error {
	var resultJSON sql.NullString
	if out.Result != nil {
		b, err := json.Marshal(out.Result)
		if err != nil {
			return fmt.Errorf("marshal item result: %w", err)
		}
		resultJSON = sql.NullString{String: string(b), Valid: true}
	}
	retries := out.Attempts - 1
	if retries < 0 {
		retries = 0
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE items SET status = ?, retries = ?, result = ?, error_message = ?, processing_time_ms = ?, updated_at = ?
		 WHERE id = ? AND batch_id = ?`,
		out.Status, retries, resultJSON, out.Error, out.ProcessingTimeMs, time.Now().UTC(), out.ItemID, batchID)
	return err
}

// UpdateProgress persists the running batch counters.
func (s *Store) UpdateProgress(ctx context.Context, batchID string, processed, success, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE batches SET processed_items = ?, success_count = ?, failed_count = ? WHERE id = ?`,
		processed, success, failed, batchID)
	return err
}

// UpdateStatus moves a QUEUED batch to a new lifecycle status. A batch that
// already moved on, such as one failed by cancellation, is left untouched:
// status never transitions backward.
func (s *Store) UpdateStatus(ctx context.Context, batchID string, status model.BatchStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE batches SET status = ? WHERE id = ? AND status = ?`,
		status, batchID, model.BatchQueued)
	return err
}

// FinalizeBatch sets the terminal status, completion time, and (when
// present) the risk summary. Finalizing an already-terminal batch is a no-op
// so the write stays idempotent.
func (s *Store) FinalizeBatch(ctx context.Context, batchID string, status model.BatchStatus, report *model.BatchReport) error {
	var reportJSON sql.NullString
	if report != nil {
		b, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		reportJSON = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE batches SET status = ?, report = ?, completed_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		status, reportJSON, time.Now().UTC(), batchID, model.BatchQueued, model.BatchProcessing)
	return err
}

// SaveBatchError records an error row for a batch.
func (s *Store) SaveBatchError(ctx context.Context, batchID string, severity, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batch_errors (batch_id, severity, error_message, created_at) VALUES (?, ?, ?, ?)`,
		batchID, severity, message, time.Now().UTC())
	return err
}

// GetBatch fetches one batch with its counters and, once finalized, its
// risk summary.
func (s *Store) GetBatch(ctx context.Context, batchID string) (*model.BatchJob, error) {
	var (
		batch       model.BatchJob
		report      sql.NullString
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, total_items, processed_items, success_count, failed_count, report, created_at, completed_at
		 FROM batches WHERE id = ?`, batchID).
		Scan(&batch.ID, &batch.Status, &batch.TotalItems, &batch.ProcessedItems,
			&batch.SuccessCount, &batch.FailedCount, &report, &batch.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		batch.CompletedAt = &t
	}
	if report.Valid {
		var summary model.BatchReport
		if err := json.Unmarshal([]byte(report.String), &summary); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		batch.RiskSummary = &summary
	}
	return &batch, nil
}

// ListBatches returns all batches, newest first.
func (s *Store) ListBatches(ctx context.Context) ([]model.BatchJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, total_items, processed_items, success_count, failed_count, created_at, completed_at
		 FROM batches ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []model.BatchJob
	for rows.Next() {
		var (
			batch       model.BatchJob
			completedAt sql.NullTime
		)
		if err := rows.Scan(&batch.ID, &batch.Status, &batch.TotalItems, &batch.ProcessedItems,
			&batch.SuccessCount, &batch.FailedCount, &batch.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			batch.CompletedAt = &t
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// GetItems returns all items of a batch in insertion order.
func (s *Store) GetItems(ctx context.Context, batchID string) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, payload_ref, mime_type, status, retries, result, error_message, processing_time_ms
		 FROM items WHERE batch_id = ? ORDER BY rowid`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var (
			item     model.Item
			result   sql.NullString
			errMsg   sql.NullString
			timingMs sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.PayloadRef, &item.MimeType,
			&item.Status, &item.Retries, &result, &errMsg, &timingMs); err != nil {
			return nil, err
		}
		if result.Valid {
			var res model.PipelineResult
			if err := json.Unmarshal([]byte(result.String), &res); err != nil {
				return nil, fmt.Errorf("unmarshal item result: %w", err)
			}
			item.Result = &res
		}
		item.Error = errMsg.String
		item.ProcessingTimeMs = timingMs.Int64
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetBatchErrors returns recorded errors for a batch, newest first.
func (s *Store) GetBatchErrors(ctx context.Context, batchID string) ([]map[string]interface{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT severity, error_message, created_at FROM batch_errors WHERE batch_id = ? ORDER BY created_at DESC`,
		batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []map[string]interface{}
	for rows.Next() {
		var severity, message string
		var createdAt time.Time
		if err := rows.Scan(&severity, &message, &createdAt); err != nil {
			return nil, err
		}
		errs = append(errs, map[string]interface{}{
			"severity":  severity,
			"message":   message,
			"createdAt": createdAt,
		})
	}
	return errs, rows.Err()
}
