package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"autoblog/internal/session"
)

// anonymousOwner keys snapshots taken before the user signs in.
const anonymousOwner = "anonymous"

// Snapshot is a best-effort record of where a wizard session stands so the
// CLI can offer to resume it later. Snapshots are advisory; the session
// store remains authoritative.
type Snapshot struct {
	Owner     string
	SessionID int64
	Status    session.Status
	Payload   string
	SavedAt   time.Time
}

// SaveSnapshot upserts the snapshot for its owner. An empty owner maps to
// the shared anonymous slot.
func (s *Store) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	owner := normalizeOwner(snap.Owner)
	if snap.SessionID == 0 {
		return errors.New("library: snapshot requires a session ID")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workflow_snapshots (owner, session_id, status, payload, saved_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(owner) DO UPDATE SET
           session_id = excluded.session_id,
           status = excluded.status,
           payload = excluded.payload,
           saved_at = excluded.saved_at`,
		owner, snap.SessionID, string(snap.Status), snap.Payload,
		s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the owner's snapshot, or nil if none exists or the
// stored one has aged past the TTL. Expired snapshots are deleted on read.
func (s *Store) LoadSnapshot(ctx context.Context, owner string) (*Snapshot, error) {
	owner = normalizeOwner(owner)
	row := s.db.QueryRowContext(ctx,
		`SELECT owner, session_id, status, payload, saved_at FROM workflow_snapshots WHERE owner = ?`,
		owner)

	var snap Snapshot
	var status, savedAt string
	err := row.Scan(&snap.Owner, &snap.SessionID, &status, &snap.Payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	snap.Status = session.Status(status)
	snap.SavedAt = parseTime(savedAt)

	if s.now().UTC().Sub(snap.SavedAt) > s.snapshotTTL() {
		if err := s.ClearSnapshot(ctx, owner); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &snap, nil
}

// ClearSnapshot removes the owner's snapshot if present.
func (s *Store) ClearSnapshot(ctx context.Context, owner string) error {
	owner = normalizeOwner(owner)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM workflow_snapshots WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

func normalizeOwner(owner string) string {
	owner = strings.ToLower(strings.TrimSpace(owner))
	if owner == "" {
		return anonymousOwner
	}
	return owner
}
