package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hidux/internal/value"
)

// ErrNotFound is returned when a requested instance or snapshot is absent.
var ErrNotFound = errors.New("not found")

// InstanceRecord is one stored model instance.
type InstanceRecord struct {
	ID         string
	Model      string
	CreatedSeq int64
}

// SnapshotRecord is one stored snapshot.
type SnapshotRecord struct {
	InstanceID string
	Seq        int64
	Hash       string
	State      *value.Map
}

// WriteInstance inserts an instance row. Duplicate ids are ignored.
func (s *Store) WriteInstance(ctx context.Context, rec InstanceRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instances (id, model, created_seq)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.Model, rec.CreatedSeq)
	if err != nil {
		return fmt.Errorf("write instance: %w", err)
	}
	return nil
}

// WriteSnapshot stores state as canonical JSON with its fingerprint.
// The instance must already exist. A second write for the same
// (instance, seq) is ignored.
func (s *Store) WriteSnapshot(ctx context.Context, instanceID string, seq int64, state *value.Map) error {
	data, err := value.MarshalCanonical(state)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	hash, err := value.Fingerprint(state)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (instance_id, seq, hash, state)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(instance_id, seq) DO NOTHING
	`, instanceID, seq, hash, string(data))
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// GetInstance returns one instance by id.
func (s *Store) GetInstance(ctx context.Context, id string) (InstanceRecord, error) {
	var rec InstanceRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, model, created_seq FROM instances WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Model, &rec.CreatedSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return InstanceRecord{}, fmt.Errorf("instance %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return InstanceRecord{}, fmt.Errorf("get instance: %w", err)
	}
	return rec, nil
}

// ListInstances returns every instance ordered by creation seq, then id.
// Returns an empty slice, not nil, when the store is empty.
func (s *Store) ListInstances(ctx context.Context) ([]InstanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, created_seq
		FROM instances
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	out := []InstanceRecord{}
	for rows.Next() {
		var rec InstanceRecord
		if err := rows.Scan(&rec.ID, &rec.Model, &rec.CreatedSeq); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return out, nil
}

// ReadSnapshots returns an instance's snapshots in seq order.
// Returns an empty slice, not nil, when none exist.
func (s *Store) ReadSnapshots(ctx context.Context, instanceID string) ([]SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instance_id, seq, hash, state
		FROM snapshots
		WHERE instance_id = ?
		ORDER BY seq ASC
	`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := []SnapshotRecord{}
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// LatestSnapshot returns the highest-seq snapshot of an instance.
func (s *Store) LatestSnapshot(ctx context.Context, instanceID string) (SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT instance_id, seq, hash, state
		FROM snapshots
		WHERE instance_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, instanceID)

	rec, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, fmt.Errorf("latest snapshot of %q: %w", instanceID, ErrNotFound)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (SnapshotRecord, error) {
	var (
		rec  SnapshotRecord
		data string
	)
	if err := row.Scan(&rec.InstanceID, &rec.Seq, &rec.Hash, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SnapshotRecord{}, err
		}
		return SnapshotRecord{}, fmt.Errorf("scan snapshot: %w", err)
	}

	v, err := value.FromJSON([]byte(data))
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("decode snapshot %s@%d: %w", rec.InstanceID, rec.Seq, err)
	}
	m, ok := v.(*value.Map)
	if !ok {
		return SnapshotRecord{}, fmt.Errorf("decode snapshot %s@%d: state is %s, want keyed-map", rec.InstanceID, rec.Seq, value.Classify(v))
	}
	rec.State = m
	return rec, nil
}
