package store

import (
	"context"

	"github.com/roach88/hidux/internal/model"
)

// Journal returns a model.Journal that persists every committed snapshot.
// The instance row is written on the first entry seen for it.
func (s *Store) Journal(ctx context.Context) model.Journal {
	return model.JournalFunc(func(e model.Entry) error {
		if err := s.WriteInstance(ctx, InstanceRecord{
			ID:         e.InstanceID,
			Model:      e.Model,
			CreatedSeq: e.Seq,
		}); err != nil {
			return err
		}
		return s.WriteSnapshot(ctx, e.InstanceID, e.Seq, e.State)
	})
}
