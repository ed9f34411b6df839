package sidecar

import (
	"crypto/ecdh"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"github.com/flashbots/quack/sidecar/transport"
)

// Identity holds a sidecar instance's own long-lived key material: an
// Ed25519 signing identity that authenticates outgoing digests, an
// X25519 KEM keypair used to derive the shared ack-authentication key
// with its endpoint, and a P-256 ECDH keypair endpoints encrypt incoming
// packet/ack batches to.
type Identity struct {
	SigningPub  transport.PublicKey
	SigningPriv transport.PrivateKey
	KemPub      transport.KemPublicKey
	KemPriv     transport.KemPrivateKey
	ECDHPub     *ecdh.PublicKey
	ECDHPriv    *ecdh.PrivateKey
}

// GenerateIdentity creates a fresh Identity. A deployment that wants a
// stable identity across restarts should persist the generated key
// material and reload it via NewWithIdentity rather than calling this on
// every startup.
func GenerateIdentity() (Identity, error) {
	signingPub, signingPriv, err := transport.GenerateKeyPair()
	if err != nil {
		return Identity{}, err
	}

	kemPub, kemPriv, err := transport.GenerateKemKeyPair()
	if err != nil {
		return Identity{}, err
	}

	ecdhPriv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		SigningPub:  signingPub,
		SigningPriv: signingPriv,
		KemPub:      kemPub,
		KemPriv:     kemPriv,
		ECDHPub:     ecdhPriv.PublicKey(),
		ECDHPriv:    ecdhPriv,
	}, nil
}

// Peer holds the public half of an endpoint's key material: what the
// sidecar needs to verify the endpoint's signatures, derive the shared
// ack-MAC key, and encrypt outgoing digests to it. The zero Peer means no
// endpoint has been paired yet.
type Peer struct {
	SigningPub transport.PublicKey
	KemPub     transport.KemPublicKey
	ECDHPub    *ecdh.PublicKey
}

// errNoPeer is returned by the security operations below when no peer
// has been configured via SetPeer.
var errNoPeer = errors.New("sidecar: no peer configured")

// ackMACInfo domain-separates the shared secret used to authenticate
// acknowledgement batches from any other derivation of the same X25519
// key agreement.
var ackMACInfo = []byte("sidecar-ack-mac")

// SetPeer configures the endpoint's public key material and derives the
// shared ack-authentication key via X25519 key agreement plus HKDF-SHA256
// (transport.DeriveSharedSecret). Passing the zero Peer clears it, which
// makes AckMAC and EncryptForPeer fail with errNoPeer again and
// VerifyFromPeer/VerifyAckMAC return false — the state a sidecar that has
// not yet completed key exchange with its endpoint is in.
func (s *Sidecar) SetPeer(peer Peer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.peer = peer
	if peer.KemPub == (transport.KemPublicKey{}) {
		s.ackMACKey = nil
		return nil
	}

	macKey, err := transport.DeriveSharedSecret(s.identity.KemPriv, peer.KemPub, ackMACInfo)
	if err != nil {
		return err
	}
	s.ackMACKey = macKey.Bytes()
	return nil
}

// HasPeer reports whether an endpoint's key material has been configured.
func (s *Sidecar) HasPeer() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peer.ECDHPub != nil || s.peer.SigningPub != nil
}

// Identity returns the sidecar's own public key material, for publishing
// to an endpoint out of band during key exchange.
func (s *Sidecar) Identity() (signingPub transport.PublicKey, kemPub transport.KemPublicKey, ecdhPub *ecdh.PublicKey) {
	return s.identity.SigningPub, s.identity.KemPub, s.identity.ECDHPub
}

// SignDigest signs data (typically a serialized accumulator) with the
// sidecar's own Ed25519 identity, so an endpoint that holds the sidecar's
// SigningPub can authenticate every digest it receives.
func (s *Sidecar) SignDigest(data []byte) (transport.Signature, error) {
	return transport.Sign(s.identity.SigningPriv, data)
}

// EncryptForPeer ECIES-encrypts plaintext (typically a serialized digest)
// to the configured peer's P-256 ECDH public key. It fails with
// errNoPeer if no peer is configured.
func (s *Sidecar) EncryptForPeer(plaintext []byte) (*transport.EncryptedMessage, error) {
	s.mu.RLock()
	peerECDHPub := s.peer.ECDHPub
	s.mu.RUnlock()

	if peerECDHPub == nil {
		return nil, errNoPeer
	}
	return transport.Encrypt(peerECDHPub, plaintext)
}

// DecryptFromPeer decrypts an ECIES message addressed to the sidecar's
// own ECDH identity, e.g. a packet or ack batch an endpoint encrypted to
// it.
func (s *Sidecar) DecryptFromPeer(msg *transport.EncryptedMessage) ([]byte, error) {
	return transport.Decrypt(s.identity.ECDHPriv, msg)
}

// VerifyFromPeer reports whether sig is a valid Ed25519 signature over
// data by the configured peer's signing key. It returns false, rather
// than erroring, when no peer is configured: callers treat that the same
// as any other failed verification.
func (s *Sidecar) VerifyFromPeer(data []byte, sig transport.Signature) bool {
	s.mu.RLock()
	peerSigningPub := s.peer.SigningPub
	s.mu.RUnlock()

	if peerSigningPub == nil {
		return false
	}
	return sig.Verify(peerSigningPub, data)
}

// AckMAC computes an HMAC-SHA256 over data keyed by the shared secret
// SetPeer derived from the sidecar's and the peer's X25519 keys. It is
// what authenticates acknowledgement batches; they are not checked
// against an Ed25519 signature.
func (s *Sidecar) AckMAC(data []byte) ([]byte, error) {
	s.mu.RLock()
	key := s.ackMACKey
	s.mu.RUnlock()

	if key == nil {
		return nil, errNoPeer
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// VerifyAckMAC reports whether mac is the correct AckMAC(data), in
// constant time.
func (s *Sidecar) VerifyAckMAC(data, mac []byte) bool {
	expected, err := s.AckMAC(data)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, mac)
}
