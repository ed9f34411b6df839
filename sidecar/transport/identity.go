// Package transport provides the sidecar's peer authentication: Ed25519
// identities for signing messages (digests, packet batches), X25519+HKDF
// key agreement for deriving shared symmetric keys, and ECIES (ephemeral
// P-256 ECDH, a SHA3-256-derived key, AES-256-GCM) for encrypting
// payloads, grounded on the teacher's crypto package.
package transport

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// PublicKey is an Ed25519 public key, used both to verify signatures
// and as a peer identifier.
type PublicKey []byte

// NewPublicKeyFromBytes copies data into a new PublicKey.
func NewPublicKeyFromBytes(data []byte) PublicKey {
	pk := make([]byte, len(data))
	copy(pk, data)
	return PublicKey(pk)
}

// NewPublicKeyFromString decodes a hex-encoded PublicKey.
func NewPublicKeyFromString(data string) (PublicKey, error) {
	raw, err := hex.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return NewPublicKeyFromBytes(raw), nil
}

// Bytes returns the raw key bytes.
func (pk PublicKey) Bytes() []byte { return pk }

// Equal reports whether two public keys hold the same bytes, in
// constant time.
func (pk PublicKey) Equal(other PublicKey) bool {
	return subtle.ConstantTimeCompare(pk, other) == 1
}

// String returns a hex encoding of the key, suitable as a map key or
// log field.
func (pk PublicKey) String() string { return hex.EncodeToString(pk) }

// PrivateKey is an Ed25519 private key.
type PrivateKey []byte

// NewPrivateKeyFromBytes copies data into a new PrivateKey.
func NewPrivateKeyFromBytes(data []byte) PrivateKey {
	sk := make([]byte, len(data))
	copy(sk, data)
	return PrivateKey(sk)
}

// Bytes returns the raw key bytes. Handle with care: this exposes
// signing key material.
func (sk PrivateKey) Bytes() []byte { return sk }

// PublicKey derives the public half of an Ed25519 private key.
func (sk PrivateKey) PublicKey() (PublicKey, error) {
	if len(sk) < ed25519.PrivateKeySize {
		return nil, errors.New("transport: invalid private key size")
	}
	return PublicKey(sk[32:]), nil
}

// GenerateKeyPair generates a new Ed25519 signing identity.
func GenerateKeyPair() (PublicKey, PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return PublicKey(pub), PrivateKey(priv), nil
}

// Signature is an Ed25519 signature over some message.
type Signature []byte

// NewSignature copies data into a new Signature.
func NewSignature(data []byte) Signature {
	sig := make([]byte, len(data))
	copy(sig, data)
	return Signature(sig)
}

// Bytes returns the raw signature bytes.
func (s Signature) Bytes() []byte { return []byte(s) }

// Verify reports whether s is a valid Ed25519 signature over data by
// publicKey.
func (s Signature) Verify(publicKey PublicKey, data []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(publicKey), data, s)
}

// String returns a hex encoding of the signature.
func (s Signature) String() string { return hex.EncodeToString(s.Bytes()) }

// Sign signs data with privateKey using Ed25519.
func Sign(privateKey PrivateKey, data []byte) (Signature, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("transport: invalid private key size")
	}
	return Signature(ed25519.Sign(ed25519.PrivateKey(privateKey), data)), nil
}
