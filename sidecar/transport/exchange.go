package transport

import (
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// KemPublicKey is an X25519 public key used for key agreement between
// the sidecar and an endpoint.
type KemPublicKey [32]byte

// KemPrivateKey is an X25519 private key.
type KemPrivateKey [32]byte

// SharedKey is a derived symmetric key. Always the output of HKDF, never
// used as raw ECDH output.
type SharedKey []byte

// Bytes returns a copy of the key's bytes.
func (sk SharedKey) Bytes() []byte {
	out := make([]byte, len(sk))
	copy(out, sk)
	return out
}

// GenerateKemKeyPair generates a new X25519 key pair.
func GenerateKemKeyPair() (KemPublicKey, KemPrivateKey, error) {
	var priv KemPrivateKey
	var pub KemPublicKey

	if _, err := rand.Read(priv[:]); err != nil {
		return pub, priv, err
	}
	curve25519.ScalarBaseMult((*[32]byte)(&pub), (*[32]byte)(&priv))
	return pub, priv, nil
}

// DeriveSharedSecret performs X25519 key agreement and derives a
// 32-byte symmetric key via HKDF-SHA256, with info binding the key to
// its purpose (e.g. "sidecar-ack-mac").
func DeriveSharedSecret(privateKey KemPrivateKey, publicKey KemPublicKey, info []byte) (SharedKey, error) {
	var sharedPoint [32]byte
	curve25519.ScalarMult(&sharedPoint, (*[32]byte)(&privateKey), (*[32]byte)(&publicKey))

	kdf := hkdf.New(sha256.New, sharedPoint[:], nil, info)
	secret := make([]byte, 32)
	if _, err := kdf.Read(secret); err != nil {
		return nil, err
	}
	return SharedKey(secret), nil
}
