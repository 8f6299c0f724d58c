//nolint:revive // exported
package mcredential

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/s6s-labs/s6s-engine/pkg/idwrap"
)

type CredentialScope int8

const (
	SCOPE_USER   CredentialScope = 0
	SCOPE_GLOBAL CredentialScope = 1
)

// Credential is an encrypted secret as stored by the credential-management
// layer. The engine only ever reads it; the plaintext exists transiently in
// memory during a single node execution.
type Credential struct {
	ID          idwrap.IDWrap
	Name        string
	Scope       CredentialScope
	CipherText  []byte
	IV          []byte
	AuthTag     []byte
	IsQuantum   bool
	KyberCipher []byte
}

// EnvelopeString reassembles the wire envelope from the stored columns.
// Classical: base64(iv)|base64(tag)|base64(ct). Hybrid adds the KEM
// ciphertext and switches iv/tag to hex, matching the storage schema.
func (c Credential) EnvelopeString() string {
	if c.IsQuantum {
		return strings.Join([]string{
			hex.EncodeToString(c.IV),
			hex.EncodeToString(c.AuthTag),
			base64.StdEncoding.EncodeToString(c.CipherText),
			base64.StdEncoding.EncodeToString(c.KyberCipher),
		}, "|")
	}
	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(c.IV),
		base64.StdEncoding.EncodeToString(c.AuthTag),
		base64.StdEncoding.EncodeToString(c.CipherText),
	}, "|")
}

// FromEnvelope splits a wire envelope into a stored credential. Three
// fields is a classical envelope, four is hybrid.
func FromEnvelope(id idwrap.IDWrap, name, envelope string) (Credential, error) {
	parts := strings.Split(envelope, "|")
	cred := Credential{ID: id, Name: name}

	switch len(parts) {
	case 3:
		for i, dst := range []*[]byte{&cred.IV, &cred.AuthTag, &cred.CipherText} {
			raw, err := base64.StdEncoding.DecodeString(parts[i])
			if err != nil {
				return Credential{}, fmt.Errorf("credential envelope field %d: %w", i, err)
			}
			*dst = raw
		}
		return cred, nil
	case 4:
		iv, err := hex.DecodeString(parts[0])
		if err != nil {
			return Credential{}, fmt.Errorf("credential envelope iv: %w", err)
		}
		tag, err := hex.DecodeString(parts[1])
		if err != nil {
			return Credential{}, fmt.Errorf("credential envelope tag: %w", err)
		}
		ct, err := base64.StdEncoding.DecodeString(parts[2])
		if err != nil {
			return Credential{}, fmt.Errorf("credential envelope ciphertext: %w", err)
		}
		kem, err := base64.StdEncoding.DecodeString(parts[3])
		if err != nil {
			return Credential{}, fmt.Errorf("credential envelope kem ciphertext: %w", err)
		}
		cred.IV, cred.AuthTag, cred.CipherText, cred.KyberCipher = iv, tag, ct, kem
		cred.IsQuantum = true
		return cred, nil
	default:
		return Credential{}, fmt.Errorf("credential envelope has %d fields, want 3 or 4", len(parts))
	}
}
