package chain

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/picostack/secretchain/secret"
)

// Syncer binds a Store to the connection lifecycle of its transport. Open
// deliberately fetches every bundle as a side effect of connecting: a
// session only counts as open once the local bundles reflect the remote
// state, so callers never read a half-initialised chain.
type Syncer struct {
	conn  secret.Connector
	store *Store
	open  bool
}

// NewSyncer builds a Store over conn and manages its session.
func NewSyncer(conn secret.Connector, names ...string) *Syncer {
	return &Syncer{
		conn:  conn,
		store: New(conn, names...),
	}
}

// Store exposes the underlying merged store. Local reads and writes work
// regardless of session state; remote Fetch and Push go through the Syncer.
func (s *Syncer) Store() *Store {
	return s.store
}

// Open connects to the store and immediately fetches all bundles. The
// connection is released again if that initial fetch fails, so a non-nil
// error always leaves the Syncer closed.
func (s *Syncer) Open(ctx context.Context, opts ...FetchOption) error {
	if s.open {
		return errors.New("session already open")
	}
	if err := s.conn.Connect(ctx); err != nil {
		return errors.Wrap(err, "failed to connect to secret store")
	}
	if err := s.store.Fetch(ctx, opts...); err != nil {
		if cerr := s.conn.Close(); cerr != nil {
			zap.L().Warn("failed to release secret store connection",
				zap.Error(cerr))
		}
		return errors.Wrap(err, "failed to perform initial fetch")
	}
	s.open = true
	zap.L().Debug("opened secret store session",
		zap.Strings("bundles", s.store.Names()))
	return nil
}

// Close releases the connection. Closing an unopened Syncer is a no-op.
func (s *Syncer) Close() error {
	if !s.open {
		return nil
	}
	s.open = false
	return s.conn.Close()
}

// Fetch refreshes every bundle within the open session.
func (s *Syncer) Fetch(ctx context.Context, opts ...FetchOption) error {
	if !s.open {
		return ErrNotConnected
	}
	return s.store.Fetch(ctx, opts...)
}

// Push writes the named bundle back within the open session.
func (s *Syncer) Push(ctx context.Context, name string) error {
	if !s.open {
		return ErrNotConnected
	}
	return s.store.Push(ctx, name)
}
