package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/flashbots/quack/field"
	"github.com/flashbots/quack/quack"
	"github.com/flashbots/quack/sidecar"
	"github.com/flashbots/quack/sidecar/round"
	"github.com/flashbots/quack/sidecar/store"
	"github.com/flashbots/quack/sidecar/transport"
	"github.com/go-chi/chi/v5"
)

// Handlers implements RouteRegistrar for the sidecar's digest API.
type Handlers struct {
	sidecar *sidecar.Sidecar
	coord   round.Coordinator
	log     store.PacketLogStore
	logger  *slog.Logger
}

// NewHandlers builds a Handlers registrar bound to a running sidecar.
func NewHandlers(sc *sidecar.Sidecar, coord round.Coordinator, log store.PacketLogStore, logger *slog.Logger) *Handlers {
	return &Handlers{sidecar: sc, coord: coord, log: log, logger: logger}
}

// RegisterRoutes mounts the sidecar's API under its own router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/packets", h.handlePackets)
	r.Post("/acks", h.handleAcks)
	r.Get("/digest", h.handleDigest)
	r.Post("/decode", h.handleDecode)
}

type identifiersRequest struct {
	Identifiers []uint32 `json:"identifiers"`
}

// secureEnvelope wraps a packet or ack batch for transit between the
// endpoint and the sidecar. When the sidecar has a peer configured (see
// sidecar.Sidecar.SetPeer), Encrypted carries the ECIES ciphertext
// (transport.EncryptedMessage.Bytes()) of a JSON-encoded
// identifiersRequest, and Signature/MAC authenticate it; encoding/json
// base64-encodes both automatically. With no peer configured, callers
// may fall back to the plaintext Identifiers field directly.
type secureEnvelope struct {
	Identifiers []uint32 `json:"identifiers,omitempty"`
	Encrypted   []byte   `json:"encrypted,omitempty"`
	Signature   []byte   `json:"signature,omitempty"`
	MAC         []byte   `json:"mac,omitempty"`
}

// decryptIdentifiers extracts the identifier batch from env, decrypting
// and verifying it against the sidecar's configured peer when one is
// set. verify is called with env.Encrypted (the authenticated bytes) and
// should report whether the envelope is acceptable; it is not called at
// all when the sidecar has no peer configured, since there is nothing to
// verify against yet.
func (h *Handlers) decryptIdentifiers(env secureEnvelope, verify func(authenticated []byte) bool) ([]uint32, error) {
	if len(env.Encrypted) == 0 {
		if h.sidecar.HasPeer() {
			return nil, errUnauthenticated
		}
		return env.Identifiers, nil
	}

	if h.sidecar.HasPeer() && !verify(env.Encrypted) {
		return nil, errUnauthenticated
	}

	msg, err := transport.ParseEncryptedMessage(env.Encrypted)
	if err != nil {
		return nil, err
	}
	plaintext, err := h.sidecar.DecryptFromPeer(msg)
	if err != nil {
		return nil, err
	}

	var inner identifiersRequest
	if err := json.Unmarshal(plaintext, &inner); err != nil {
		return nil, err
	}
	return inner.Identifiers, nil
}

// errUnauthenticated is returned by decryptIdentifiers when a peer is
// configured and the caller-supplied verifier rejects the envelope.
var errUnauthenticated = errors.New("sidecar: envelope failed authentication")

// handlePackets records newly observed packet identifiers, both in the
// in-memory accumulator and in the durable packet log for the current
// round. When the sidecar has a peer configured, the batch must arrive
// ECIES-encrypted to the sidecar's identity and signed by the peer's
// Ed25519 key.
func (h *Handlers) handlePackets(w http.ResponseWriter, r *http.Request) {
	var env secureEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ids, err := h.decryptIdentifiers(env, func(authenticated []byte) bool {
		return h.sidecar.VerifyFromPeer(authenticated, transport.Signature(env.Signature))
	})
	if err != nil {
		writeDecryptError(w, err)
		return
	}

	h.sidecar.ObservePackets(ids)

	currentRound := int(h.coord.CurrentRound())
	if err := h.log.Append(currentRound, ids); err != nil {
		h.logger.Error("packet log append failed", "round", currentRound, "error", err)
		http.Error(w, "failed to persist packet log", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// handleAcks records packet identifiers the endpoint has confirmed
// receiving. When the sidecar has a peer configured, the batch must
// arrive ECIES-encrypted and carry a valid ack-MAC (see
// sidecar.Sidecar.AckMAC), the X25519+HKDF-derived authentication
// distinct from handlePackets' Ed25519 signature.
func (h *Handlers) handleAcks(w http.ResponseWriter, r *http.Request) {
	var env secureEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ids, err := h.decryptIdentifiers(env, func(authenticated []byte) bool {
		return h.sidecar.VerifyAckMAC(authenticated, env.MAC)
	})
	if err != nil {
		writeDecryptError(w, err)
		return
	}

	h.sidecar.AcknowledgePackets(ids)
	w.WriteHeader(http.StatusAccepted)
}

func writeDecryptError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnauthenticated) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

type digestResponse struct {
	Threshold int    `json:"threshold"`
	Count     uint32 `json:"count"`
	Digest    []byte `json:"digest,omitempty"`
	Encrypted []byte `json:"encrypted,omitempty"`
	Signature []byte `json:"signature"`
}

// handleDigest returns the serialized seen-acked snapshot for this
// round, without resetting anything. The digest is always signed with
// the sidecar's Ed25519 identity; when a peer is configured it is also
// ECIES-encrypted to the peer's ECDH key and sent as Encrypted instead of
// plaintext Digest, so an eavesdropper on the sidecar-endpoint link never
// sees the raw accumulator bytes.
func (h *Handlers) handleDigest(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sidecar.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	digestBytes := quack.Serialize[uint32, field.Field32](snap)

	signature, err := h.sidecar.SignDigest(digestBytes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := digestResponse{
		Threshold: snap.Threshold(),
		Count:     snap.Count(),
		Signature: signature.Bytes(),
	}

	if h.sidecar.HasPeer() {
		encrypted, err := h.sidecar.EncryptForPeer(digestBytes)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.Encrypted = encrypted.Bytes()
	} else {
		resp.Digest = digestBytes
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type decodeRequest struct {
	Round int      `json:"round"`
	Log   []uint32 `json:"log"`
}

type decodeResponse struct {
	Decoded  []uint32 `json:"decoded"`
	Count    uint32   `json:"count"`
	Complete bool     `json:"complete"`
}

// handleDecode decodes the seen-acked snapshot against a candidate log,
// either supplied in the request or read back from the durable packet
// log for a given round.
func (h *Handlers) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	candidateLog := req.Log
	if candidateLog == nil {
		stored, err := h.log.Log(req.Round)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		candidateLog = stored
	}

	result, err := h.sidecar.DecodeAgainst(candidateLog)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := decodeResponse{
		Decoded:  result.Decoded,
		Count:    result.Count,
		Complete: uint32(len(result.Decoded)) == result.Count,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
