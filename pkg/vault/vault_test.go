package vault_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s6s-labs/s6s-engine/pkg/idwrap"
	"github.com/s6s-labs/s6s-engine/pkg/model/mcredential"
	"github.com/s6s-labs/s6s-engine/pkg/vault"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.NewFromHex(testKeyHex)
	require.NoError(t, err)
	return v
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := vault.New([]byte("too-short"))
	assert.ErrorIs(t, err, vault.ErrInvalidKeySize)

	_, err = vault.NewFromHex("abcd")
	assert.ErrorIs(t, err, vault.ErrInvalidKeySize)
}

func TestClassicalRoundTrip(t *testing.T) {
	v := newTestVault(t)

	for _, plaintext := range []string{"super-secret-value", "", "with|pipes|inside", "ünïcödé ✓"} {
		envelope, err := v.EncryptSecret(plaintext)
		require.NoError(t, err)
		assert.Len(t, strings.Split(envelope, "|"), 3)

		got, err := v.DecryptSecret(envelope)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestClassicalEnvelopeFieldCount(t *testing.T) {
	v := newTestVault(t)

	for _, envelope := range []string{"", "a|b", "a|b|c|d", "a|b|c|d|e"} {
		_, err := v.DecryptSecret(envelope)
		assert.ErrorIs(t, err, vault.ErrEnvelopeFormat, "envelope %q", envelope)
	}
}

func TestClassicalEnvelopeBadEncoding(t *testing.T) {
	v := newTestVault(t)

	_, err := v.DecryptSecret("!!!not-base64!!!|YWJj|YWJj")
	assert.ErrorIs(t, err, vault.ErrEnvelopeFormat)
}

func TestClassicalTamperDetection(t *testing.T) {
	v := newTestVault(t)

	envelope, err := v.EncryptSecret("super-secret-value")
	require.NoError(t, err)
	parts := strings.Split(envelope, "|")

	// Flip one bit in the auth tag and in the ciphertext; both must fail
	// closed without returning altered plaintext.
	for _, idx := range []int{1, 2} {
		raw, err := base64.StdEncoding.DecodeString(parts[idx])
		require.NoError(t, err)
		raw[0] ^= 0x01

		tampered := make([]string, len(parts))
		copy(tampered, parts)
		tampered[idx] = base64.StdEncoding.EncodeToString(raw)

		got, err := v.DecryptSecret(strings.Join(tampered, "|"))
		assert.ErrorIs(t, err, vault.ErrAuthentication)
		assert.Empty(t, got)
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	v1 := newTestVault(t)
	v2, err := vault.NewFromHex("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	require.NoError(t, err)

	envelope, err := v1.EncryptSecret("super-secret-value")
	require.NoError(t, err)

	_, err = v2.DecryptSecret(envelope)
	assert.ErrorIs(t, err, vault.ErrAuthentication)
}

func TestQuantumRequiresKeyPair(t *testing.T) {
	v := newTestVault(t)

	_, err := v.EncryptQuantum("secret")
	assert.ErrorIs(t, err, vault.ErrKEMUninitialized)

	_, err = v.DecryptQuantum("00|00|YWJj|YWJj")
	assert.ErrorIs(t, err, vault.ErrKEMUninitialized)
}

func TestQuantumRoundTrip(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.GenerateKEMKeyPair())

	envelope, err := v.EncryptQuantum("post-quantum-secret")
	require.NoError(t, err)
	assert.Len(t, strings.Split(envelope, "|"), 4)

	got, err := v.DecryptQuantum(envelope)
	require.NoError(t, err)
	assert.Equal(t, "post-quantum-secret", got)
}

func TestQuantumEnvelopeFieldCount(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.GenerateKEMKeyPair())

	for _, envelope := range []string{"", "a|b|c", "a|b|c|d|e"} {
		_, err := v.DecryptQuantum(envelope)
		assert.ErrorIs(t, err, vault.ErrEnvelopeFormat, "envelope %q", envelope)
	}
}

func TestQuantumTamperDetection(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.GenerateKEMKeyPair())

	envelope, err := v.EncryptQuantum("post-quantum-secret")
	require.NoError(t, err)
	parts := strings.Split(envelope, "|")

	raw, err := base64.StdEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	raw[0] ^= 0x01
	parts[2] = base64.StdEncoding.EncodeToString(raw)

	_, err = v.DecryptQuantum(strings.Join(parts, "|"))
	assert.ErrorIs(t, err, vault.ErrAuthentication)
}

func TestPassphraseDerivationIsDeterministic(t *testing.T) {
	v1, err := vault.NewFromPassphrase("correct horse battery staple", "s6s")
	require.NoError(t, err)
	v2, err := vault.NewFromPassphrase("correct horse battery staple", "s6s")
	require.NoError(t, err)

	envelope, err := v1.EncryptSecret("secret")
	require.NoError(t, err)

	got, err := v2.DecryptSecret(envelope)
	require.NoError(t, err)
	assert.Equal(t, "secret", got)
}

func TestDecryptCredentialRoutesOnQuantumFlag(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.GenerateKEMKeyPair())

	classical, err := v.EncryptSecret("api-token")
	require.NoError(t, err)
	cred, err := mcredential.FromEnvelope(idwrap.NewNow(), "token", classical)
	require.NoError(t, err)
	assert.False(t, cred.IsQuantum)

	got, err := v.DecryptCredential(cred)
	require.NoError(t, err)
	assert.Equal(t, "api-token", got)

	hybrid, err := v.EncryptQuantum("pq-token")
	require.NoError(t, err)
	qcred, err := mcredential.FromEnvelope(idwrap.NewNow(), "token", hybrid)
	require.NoError(t, err)
	assert.True(t, qcred.IsQuantum)

	got, err = v.DecryptCredential(qcred)
	require.NoError(t, err)
	assert.Equal(t, "pq-token", got)
}

func TestEnvelopeStringRoundTripsThroughFromEnvelope(t *testing.T) {
	v := newTestVault(t)

	envelope, err := v.EncryptSecret("secret")
	require.NoError(t, err)

	cred, err := mcredential.FromEnvelope(idwrap.NewNow(), "token", envelope)
	require.NoError(t, err)
	assert.Equal(t, envelope, cred.EnvelopeString())
}
