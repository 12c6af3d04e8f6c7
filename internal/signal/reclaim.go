package signal

import (
	"context"
	"time"

	"log/slog"

	"github.com/tignatov6/CallMi/internal/directory"
	"github.com/tignatov6/CallMi/pkg/metrics"
)

// Publisher announces directory changes to lobby watchers. *EventBus
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event string) error
}

// maxListFailures is how many consecutive failed sweeps the reclaimer
// tolerates before giving the error back to its owner. A single storage
// hiccup shouldn't kill the loop; a dead backend shouldn't be swallowed
// forever either.
const maxListFailures = 5

// Reclaimer deletes durable room records that are both empty and stale.
// Deletion stays a background sweep rather than happening on last-leave:
// a room may legitimately sit empty between two sequential joins.
type Reclaimer struct {
	log    *slog.Logger
	dir    directory.Directory
	reg    *Registry
	events Publisher

	interval   time.Duration
	staleAfter time.Duration
}

func NewReclaimer(log *slog.Logger, dir directory.Directory, reg *Registry, events Publisher, interval, staleAfter time.Duration) *Reclaimer {
	return &Reclaimer{
		log:        log,
		dir:        dir,
		reg:        reg,
		events:     events,
		interval:   interval,
		staleAfter: staleAfter,
	}
}

// Run sweeps on the configured interval until ctx ends. It returns an
// error only after maxListFailures consecutive failed sweeps; the owner
// decides whether to restart or shut down.
func (rc *Reclaimer) Run(ctx context.Context) error {
	t := time.NewTicker(rc.interval)
	defer t.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			deleted, err := rc.Sweep(ctx, time.Now().UTC())
			if err != nil {
				failures++
				rc.log.Error("reclaim.sweep", "err", err, "consecutive", failures)
				if failures >= maxListFailures {
					return err
				}
				continue
			}
			failures = 0
			if deleted > 0 {
				rc.log.Info("reclaim.cycle", "deleted", deleted)
			}
		}
	}
}

// Sweep runs one reclamation cycle: every durable room with zero live
// members and last_activity older than the stale timeout is deleted.
// Per-room delete errors are logged and skipped. At most one
// rooms_updated event is published per cycle regardless of how many
// rooms went away.
func (rc *Reclaimer) Sweep(ctx context.Context, now time.Time) (int, error) {
	rooms, err := rc.dir.List(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, room := range rooms {
		if rc.reg.RoomMemberCount(room.ID) > 0 {
			continue // occupied rooms are never reclaimed, whatever their age
		}
		if now.Sub(room.LastActivity) <= rc.staleAfter {
			continue
		}
		if err := rc.dir.Delete(ctx, room.ID); err != nil {
			rc.log.Error("reclaim.delete", "room", room.ID, "err", err)
			continue
		}
		rc.log.Info("reclaim.room", "room", room.ID, "name", room.Name)
		deleted++
	}

	if deleted > 0 {
		metrics.ReclaimedRooms.Add(float64(deleted))
		if err := rc.events.Publish(ctx, EventRoomDeleted); err != nil {
			rc.log.Error("reclaim.publish", "err", err)
		}
	}
	return deleted, nil
}
