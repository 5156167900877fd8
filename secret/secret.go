// Package secret defines the capability the chain consumes: a remote store
// of named secret bundles. A bundle's wire representation is a single JSON
// object; implementations only move payloads, the chain owns decoding and
// merging.
package secret

import "context"

// Payload is the wire form of one bundle: a single JSON object carried
// either as text or as binary. Binary payloads are base64-encoded by
// convention, though some transports hand them over already decoded.
type Payload struct {
	Text   string
	Binary []byte
}

// IsBinary reports whether the payload carries binary data.
func (p Payload) IsBinary() bool {
	return p.Text == "" && p.Binary != nil
}

// Bytes returns the raw payload contents regardless of carrier.
func (p Payload) Bytes() []byte {
	if p.IsBinary() {
		return p.Binary
	}
	return []byte(p.Text)
}

// Store describes a type that can fetch and overwrite named secret bundles.
// Implementations translate transport failures into the Error taxonomy at
// this boundary and never retry or suppress them.
type Store interface {
	FetchSecret(ctx context.Context, name string) (Payload, error)
	PushSecret(ctx context.Context, name string, payload Payload) error
}

// Connector is a Store with an explicit connection lifecycle. Connect must
// be called before any fetch or push; Close releases whatever handle the
// transport holds and is safe to call more than once.
type Connector interface {
	Store
	Connect(ctx context.Context) error
	Close() error
}
