// Package runner defines the contracts around workflow execution: the
// runner itself and the credential store it pulls encrypted secrets from.
package runner

import (
	"context"

	"github.com/s6s-labs/s6s-engine/pkg/idwrap"
	"github.com/s6s-labs/s6s-engine/pkg/model/mcredential"
	"github.com/s6s-labs/s6s-engine/pkg/model/mexec"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
)

// FlowRunner executes a workflow definition to completion and returns the
// execution record. The returned error covers only failures to start; a
// node failure is reported through the execution's status.
type FlowRunner interface {
	Run(ctx context.Context, flow mflow.Flow) (*mexec.Execution, error)
}

// CredentialStore resolves credential IDs attached to nodes into their
// encrypted records. Decryption stays with the runner so stores never see
// plaintext.
type CredentialStore interface {
	GetCredential(ctx context.Context, id idwrap.IDWrap) (mcredential.Credential, error)
}

// StaticCredentialStore serves credentials from memory, for tests and the
// CLI where definitions are loaded from a file.
type StaticCredentialStore struct {
	creds map[idwrap.IDWrap]mcredential.Credential
}

func NewStaticCredentialStore(creds []mcredential.Credential) *StaticCredentialStore {
	m := make(map[idwrap.IDWrap]mcredential.Credential, len(creds))
	for _, cred := range creds {
		m[cred.ID] = cred
	}
	return &StaticCredentialStore{creds: m}
}

func (s *StaticCredentialStore) GetCredential(_ context.Context, id idwrap.IDWrap) (mcredential.Credential, error) {
	cred, ok := s.creds[id]
	if !ok {
		return mcredential.Credential{}, &CredentialNotFoundError{ID: id}
	}
	return cred, nil
}

type CredentialNotFoundError struct {
	ID idwrap.IDWrap
}

func (e *CredentialNotFoundError) Error() string {
	return "credential not found: " + e.ID.String()
}
