package round

import (
	"context"
	"log/slog"

	"github.com/flashbots/quack/field"
	"github.com/flashbots/quack/quack"
	"github.com/flashbots/quack/sidecar"
	"github.com/flashbots/quack/sidecar/store"
)

// EpochCloser subscribes to a Coordinator and, on every round
// transition, snapshots the sidecar's seen-acked digest and logs its
// count and encoded size, resets the sidecar for the next round, and,
// when retainRounds > 0, prunes packet logs of rounds older than
// retainRounds. It does not write the packet log itself; the HTTP packet
// handler appends to it as batches arrive.
type EpochCloser struct {
	coord   Coordinator
	sidecar *sidecar.Sidecar
	log     store.PacketLogStore
	logger  *slog.Logger

	// retainRounds bounds how many trailing rounds' packet logs are kept;
	// 0 disables pruning.
	retainRounds int
}

// NewEpochCloser constructs an EpochCloser.
func NewEpochCloser(coord Coordinator, sc *sidecar.Sidecar, log store.PacketLogStore, logger *slog.Logger, retainRounds int) *EpochCloser {
	if logger == nil {
		logger = slog.Default()
	}
	return &EpochCloser{coord: coord, sidecar: sc, log: log, logger: logger, retainRounds: retainRounds}
}

// Run blocks, closing out a round's epoch every time the coordinator
// advances, until ctx is done.
func (e *EpochCloser) Run(ctx context.Context) {
	rounds := e.coord.SubscribeToRounds(ctx)
	var previous Round = -1

	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-rounds:
			if !ok {
				return
			}
			if r == previous {
				continue
			}
			if previous >= 0 {
				e.closeRound(previous)
			}
			previous = r
		}
	}
}

func (e *EpochCloser) closeRound(r Round) {
	snap, err := e.sidecar.Snapshot()
	if err != nil {
		e.logger.Error("snapshot failed", "round", r, "error", err)
		return
	}

	encoded := quack.Serialize[uint32, field.Field32](snap)
	e.logger.Info("closed round", "round", r, "count", snap.Count(), "digest_bytes", len(encoded))

	if err := e.sidecar.ResetEpoch(); err != nil {
		e.logger.Error("reset failed", "round", r, "error", err)
	}

	if e.retainRounds > 0 {
		if err := e.log.DeleteBefore(int(r) - e.retainRounds); err != nil {
			e.logger.Warn("packet log prune failed", "round", r, "error", err)
		}
	}
}
