// Package vault provides envelope encryption for credential secrets.
// Secrets are sealed with AES-256-GCM under a 32-byte master key; the
// hybrid path wraps the data-encryption key with an ML-KEM-768
// encapsulation so stored envelopes stay confidential against a future
// quantum adversary.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/mlkem"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/s6s-labs/s6s-engine/pkg/model/mcredential"
)

const (
	// KeySize is the required size for the master encryption key (256-bit).
	KeySize = 32
	// ivSize is the GCM-recommended 12-byte nonce.
	ivSize  = 12
	tagSize = 16
)

var (
	ErrInvalidKeySize = errors.New("vault: master key must be 32 bytes")
	// ErrEnvelopeFormat reports a malformed envelope string: wrong field
	// count, bad encoding, or wrong segment length.
	ErrEnvelopeFormat = errors.New("vault: invalid envelope format")
	// ErrAuthentication reports an AEAD tag mismatch. No partial plaintext
	// is ever returned alongside it.
	ErrAuthentication = errors.New("vault: authentication failed")
	// ErrKEMUninitialized reports use of the hybrid path before
	// GenerateKEMKeyPair has run.
	ErrKEMUninitialized = errors.New("vault: kem key pair not generated")
)

// Vault seals and opens credential envelopes. The master key is copied on
// construction and never exposed. The KEM decapsulation key is explicit
// state: generated once at process start, held for the process lifetime,
// never persisted.
type Vault struct {
	masterKey []byte
	kemKey    *mlkem.DecapsulationKey768
}

// New creates a Vault with the given master key (exactly 32 bytes).
func New(masterKey []byte) (*Vault, error) {
	if len(masterKey) != KeySize {
		return nil, ErrInvalidKeySize
	}
	keyCopy := make([]byte, KeySize)
	copy(keyCopy, masterKey)
	return &Vault{masterKey: keyCopy}, nil
}

// NewFromHex creates a Vault from a 64-character hex key string.
func NewFromHex(hexKey string) (*Vault, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeySize, err)
	}
	return New(key)
}

// NewFromPassphrase derives the master key from a passphrase with scrypt.
func NewFromPassphrase(passphrase, salt string) (*Vault, error) {
	key, err := scrypt.Key([]byte(passphrase), []byte(salt), 32768, 8, 1, KeySize)
	if err != nil {
		return nil, fmt.Errorf("vault: key derivation failed: %w", err)
	}
	return New(key)
}

// NewRandom creates a Vault with a random per-process key. Envelopes sealed
// with it cannot be opened after a restart.
func NewRandom() (*Vault, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("vault: failed to generate key: %w", err)
	}
	return New(key)
}

// GenerateKEMKeyPair generates the process-lifetime ML-KEM-768 key pair
// used by the hybrid path.
func (v *Vault) GenerateKEMKeyPair() error {
	dk, err := mlkem.GenerateKey768()
	if err != nil {
		return fmt.Errorf("vault: kem key generation failed: %w", err)
	}
	v.kemKey = dk
	return nil
}

// EncryptSecret seals plaintext with AES-256-GCM under the master key.
// Envelope format: base64(iv)|base64(tag)|base64(ciphertext).
func (v *Vault) EncryptSecret(plaintext string) (string, error) {
	iv, tag, ct, err := seal(v.masterKey, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ct),
	}, "|"), nil
}

// DecryptSecret opens a classical envelope. It fails closed on anything
// other than exactly three fields or on tag mismatch.
func (v *Vault) DecryptSecret(envelope string) (string, error) {
	parts := strings.Split(envelope, "|")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: expected 3 fields, got %d", ErrEnvelopeFormat, len(parts))
	}

	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: iv: %v", ErrEnvelopeFormat, err)
	}
	tag, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: auth tag: %v", ErrEnvelopeFormat, err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", ErrEnvelopeFormat, err)
	}

	plaintext, err := open(v.masterKey, iv, tag, ct)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptQuantum seals plaintext under a fresh data-encryption key produced
// by ML-KEM-768 encapsulation against the process key pair.
// Envelope format: hex(iv)|hex(tag)|base64(ciphertext)|base64(kemCiphertext).
func (v *Vault) EncryptQuantum(plaintext string) (string, error) {
	if v.kemKey == nil {
		return "", ErrKEMUninitialized
	}

	sharedKey, kemCT := v.kemKey.EncapsulationKey().Encapsulate()
	iv, tag, ct, err := seal(sharedKey, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return strings.Join([]string{
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ct),
		base64.StdEncoding.EncodeToString(kemCT),
	}, "|"), nil
}

// DecryptQuantum opens a hybrid envelope: decapsulates the data-encryption
// key with the stored private key, then opens the AEAD ciphertext.
func (v *Vault) DecryptQuantum(envelope string) (string, error) {
	if v.kemKey == nil {
		return "", ErrKEMUninitialized
	}

	parts := strings.Split(envelope, "|")
	if len(parts) != 4 {
		return "", fmt.Errorf("%w: expected 4 fields, got %d", ErrEnvelopeFormat, len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: iv: %v", ErrEnvelopeFormat, err)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: auth tag: %v", ErrEnvelopeFormat, err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", ErrEnvelopeFormat, err)
	}
	kemCT, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return "", fmt.Errorf("%w: kem ciphertext: %v", ErrEnvelopeFormat, err)
	}

	sharedKey, err := v.kemKey.Decapsulate(kemCT)
	if err != nil {
		return "", fmt.Errorf("%w: kem ciphertext: %v", ErrEnvelopeFormat, err)
	}

	plaintext, err := open(sharedKey, iv, tag, ct)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DecryptCredential reassembles a stored credential's envelope and opens it
// on the path selected by its IsQuantum flag.
func (v *Vault) DecryptCredential(c mcredential.Credential) (string, error) {
	if c.IsQuantum {
		return v.DecryptQuantum(c.EnvelopeString())
	}
	return v.DecryptSecret(c.EnvelopeString())
}

func seal(key, plaintext []byte) (iv, tag, ct []byte, err error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, nil, nil, err
	}

	iv = make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, nil, fmt.Errorf("vault: failed to generate iv: %w", err)
	}

	sealed := aead.Seal(nil, iv, plaintext, nil)
	ct, tag = sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]
	return iv, tag, ct, nil
}

func open(key, iv, tag, ct []byte) ([]byte, error) {
	if len(iv) != ivSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes", ErrEnvelopeFormat, ivSize)
	}
	if len(tag) != tagSize {
		return nil, fmt.Errorf("%w: auth tag must be %d bytes", ErrEnvelopeFormat, tagSize)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to create aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to create gcm: %w", err)
	}
	return aead, nil
}
