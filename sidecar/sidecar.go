// Package sidecar implements the network intermediary spec.md describes:
// a component that observes opaque packet identifiers on the wire and
// tells an endpoint which ones it has and has not seen, using the CORE
// power-sum accumulator and a packet log as the side channel.
package sidecar

import (
	"sync"

	"github.com/flashbots/quack/field"
	"github.com/flashbots/quack/quack"
)

// Sidecar tracks two accumulators over the 32-bit field: seen (every
// packet identifier observed this epoch) and acked (identifiers the
// endpoint has confirmed receiving, fed back over sidecar/transport).
// Both share the same threshold, set at construction.
type Sidecar struct {
	mu        sync.RWMutex
	threshold int
	seen      *quack.Accumulator[uint32, field.Field32]
	acked     *quack.Accumulator[uint32, field.Field32]

	// identity is the sidecar's own key material (see security.go): it
	// signs outgoing digests and decrypts incoming packet/ack batches.
	identity Identity
	// peer is the endpoint's public key material, configured via SetPeer
	// once key exchange has happened out of band. Its zero value means no
	// peer is configured yet, in which case handlers fall back to
	// plaintext/unauthenticated payloads.
	peer      Peer
	ackMACKey []byte
}

// New constructs a Sidecar with empty seen/acked accumulators at the
// given threshold and a freshly generated Identity. Callers that need a
// persistent identity across restarts should generate one separately and
// use NewWithIdentity instead.
func New(threshold int) (*Sidecar, error) {
	identity, err := GenerateIdentity()
	if err != nil {
		return nil, err
	}
	return NewWithIdentity(threshold, identity)
}

// NewWithIdentity constructs a Sidecar using a caller-supplied Identity,
// for deployments that persist their signing/KEM/ECDH keys across
// restarts rather than regenerating them every time.
func NewWithIdentity(threshold int, identity Identity) (*Sidecar, error) {
	seen, err := quack.New[uint32, field.Field32](threshold)
	if err != nil {
		return nil, err
	}
	acked, err := quack.New[uint32, field.Field32](threshold)
	if err != nil {
		return nil, err
	}
	return &Sidecar{threshold: threshold, seen: seen, acked: acked, identity: identity}, nil
}

// Threshold returns the accumulators' shared threshold.
func (s *Sidecar) Threshold() int { return s.threshold }

// ObservePackets inserts each identifier into the seen accumulator.
func (s *Sidecar) ObservePackets(ids []uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.seen.Insert(id)
	}
}

// AcknowledgePackets inserts each identifier into the acked accumulator,
// recording that the endpoint confirmed receiving it.
func (s *Sidecar) AcknowledgePackets(ids []uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.acked.Insert(id)
	}
}

// Snapshot returns seen - acked without mutating either accumulator: the
// digest of packets the sidecar has seen but the endpoint has not yet
// acknowledged.
func (s *Sidecar) Snapshot() (*quack.Accumulator[uint32, field.Field32], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return quack.Sub(s.seen, s.acked)
}

// DecodeResult is the outcome of decoding a snapshot against a candidate
// log: the decoded identifiers and the snapshot's reported count, so a
// caller can detect the decode-overflow case spec.md §7 leaves to callers
// (Count != len(Decoded) signals the difference exceeded the threshold).
type DecodeResult struct {
	Decoded []uint32
	Count   uint32
}

// DecodeAgainst snapshots seen-acked and decodes it against the supplied
// candidate log. The sidecar never invents its own log: callers (reading
// from sidecar/store's packet log, typically) supply one.
func (s *Sidecar) DecodeAgainst(log []uint32) (DecodeResult, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return DecodeResult{}, err
	}
	decoded := quack.Decode[uint32, field.Field32](snap, log)
	return DecodeResult{Decoded: decoded, Count: snap.Count()}, nil
}

// ResetEpoch replaces seen and acked with fresh empty accumulators,
// called by sidecar/round at the end of each round after its snapshot
// has been taken.
func (s *Sidecar) ResetEpoch() error {
	seen, err := quack.New[uint32, field.Field32](s.threshold)
	if err != nil {
		return err
	}
	acked, err := quack.New[uint32, field.Field32](s.threshold)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = seen
	s.acked = acked
	return nil
}
