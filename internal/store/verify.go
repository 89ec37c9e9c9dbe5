package store

import (
	"context"
	"fmt"

	"github.com/roach88/hidux/internal/value"
)

// Mismatch describes a stored snapshot whose hash does not match its state.
type Mismatch struct {
	InstanceID string
	Seq        int64
	Stored     string
	Computed   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s@%d: stored %s, computed %s", m.InstanceID, m.Seq, short(m.Stored), short(m.Computed))
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// Verify recomputes the fingerprint of every snapshot of an instance and
// returns those that differ from the stored hash.
func (s *Store) Verify(ctx context.Context, instanceID string) ([]Mismatch, error) {
	snaps, err := s.ReadSnapshots(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("verify %q: %w", instanceID, err)
	}

	var bad []Mismatch
	for _, snap := range snaps {
		computed, err := value.Fingerprint(snap.State)
		if err != nil {
			return nil, fmt.Errorf("verify %s@%d: %w", snap.InstanceID, snap.Seq, err)
		}
		if computed != snap.Hash {
			bad = append(bad, Mismatch{
				InstanceID: snap.InstanceID,
				Seq:        snap.Seq,
				Stored:     snap.Hash,
				Computed:   computed,
			})
		}
	}
	return bad, nil
}
