package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fichaje-app/apiserver/internal/storage"
	"github.com/fichaje-app/apiserver/types"
	"github.com/xuri/excelize/v2"
)

// TimestampLayout renders event times inside the sheet, in the
// facility's local time.
const TimestampLayout = "02/01/2006 15:04:05"

// Synchronizer mirrors accepted clock events into per-user daily
// artifacts. It performs one optional read and one full write per
// append and carries no locking of its own; callers must serialize
// appends to the same key.
type Synchronizer struct {
	storage *storage.Storage
	loc     *time.Location
}

func NewSynchronizer(st *storage.Storage, loc *time.Location) *Synchronizer {
	return &Synchronizer{storage: st, loc: loc}
}

// AppendEvent loads the user's artifact for the event's day (creating
// it on the first event), appends one row, and rewrites the object.
// Prior rows are always preserved; a failed upload leaves the previous
// artifact bytes intact because Put is a full atomic replace.
func (s *Synchronizer) AppendEvent(ctx context.Context, user types.User, event types.ClockEvent) error {
	local := event.RecordedAt.In(s.loc)
	key := ArtifactKey(user.FacilityID, UserFolder(user.Name, user.PIN), FormatDate(local))

	f, err := s.load(ctx, key)
	if err != nil {
		return err
	}

	row := Row{Kind: string(event.Kind), Timestamp: local.Format(TimestampLayout)}
	if err := appendRow(f, row); err != nil {
		f.Close()
		return fmt.Errorf("append row to %s: %w", key, err)
	}

	data, err := serializeWorkbook(f)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", key, err)
	}
	if err := s.storage.Put(ctx, key, data, XLSXContentType); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// load fetches and parses the artifact at key. A missing object yields
// a fresh workbook; unparsable bytes do too, since a corrupt artifact
// has no recoverable rows and the rebuild tools can regenerate it from
// the event log.
func (s *Synchronizer) load(ctx context.Context, key string) (*excelize.File, error) {
	data, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return newWorkbook()
		}
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	f, err := openWorkbook(data)
	if err != nil {
		return newWorkbook()
	}
	return f, nil
}
