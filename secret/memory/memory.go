package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/picostack/secretchain/secret"
)

// MemorySecrets implements a simple in-memory secret.Connector for testing
// the chain without a real transport.
type MemorySecrets struct {
	Secrets map[string]map[string]any

	// Binary, when set, serves fetches as base64-encoded binary payloads.
	Binary bool

	// Errs maps bundle names to injected fetch and push failures.
	Errs map[string]error

	Connected bool
	Fetches   []string
	Pushes    map[string]map[string]any
}

var _ secret.Connector = &MemorySecrets{}

// New wraps a set of named bundles in a connector.
func New(secrets map[string]map[string]any) *MemorySecrets {
	return &MemorySecrets{
		Secrets: secrets,
		Pushes:  make(map[string]map[string]any),
	}
}

// Connect implements secret.Connector.
func (m *MemorySecrets) Connect(ctx context.Context) error {
	m.Connected = true
	return nil
}

// Close implements secret.Connector.
func (m *MemorySecrets) Close() error {
	m.Connected = false
	return nil
}

// FetchSecret implements secret.Store.
func (m *MemorySecrets) FetchSecret(ctx context.Context, name string) (secret.Payload, error) {
	m.Fetches = append(m.Fetches, name)
	if err := m.Errs[name]; err != nil {
		return secret.Payload{}, err
	}
	table, ok := m.Secrets[name]
	if !ok {
		return secret.Payload{}, secret.Wrap(nil, secret.CodeNotFound, name)
	}
	raw, err := json.Marshal(table)
	if err != nil {
		return secret.Payload{}, secret.Wrap(err, secret.CodeInternal, name)
	}
	if m.Binary {
		return secret.Payload{Binary: []byte(base64.StdEncoding.EncodeToString(raw))}, nil
	}
	return secret.Payload{Text: string(raw)}, nil
}

// PushSecret implements secret.Store, overwriting the named bundle
// entirely and recording the pushed contents for assertions.
func (m *MemorySecrets) PushSecret(ctx context.Context, name string, payload secret.Payload) error {
	if err := m.Errs[name]; err != nil {
		return err
	}
	contents := make(map[string]any)
	if err := json.Unmarshal(payload.Bytes(), &contents); err != nil {
		return secret.Wrap(err, secret.CodeInternal, name)
	}
	if m.Pushes == nil {
		m.Pushes = make(map[string]map[string]any)
	}
	m.Pushes[name] = contents
	if m.Secrets == nil {
		m.Secrets = make(map[string]map[string]any)
	}
	m.Secrets[name] = contents
	return nil
}
