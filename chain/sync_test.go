package chain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picostack/secretchain/chain"
	"github.com/picostack/secretchain/secret"
)

func TestOpenFetchesImmediately(t *testing.T) {
	m := baseOverride()
	sy := chain.NewSyncer(m, "base", "override")

	require.NoError(t, sy.Open(context.Background()))
	defer sy.Close() //nolint:errcheck

	assert.True(t, m.Connected)
	assert.Equal(t, []string{"base", "override"}, m.Fetches)

	// the merged view is populated without a separate fetch call.
	b, err := sy.Store().Int("b")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), b)
}

func TestRemoteOpsRequireOpenSession(t *testing.T) {
	m := baseOverride()
	sy := chain.NewSyncer(m, "base", "override")

	assert.ErrorIs(t, sy.Fetch(context.Background()), chain.ErrNotConnected)
	assert.ErrorIs(t, sy.Push(context.Background(), "base"), chain.ErrNotConnected)

	require.NoError(t, sy.Open(context.Background()))
	assert.NoError(t, sy.Fetch(context.Background()))

	require.NoError(t, sy.Close())
	assert.False(t, m.Connected)
	assert.ErrorIs(t, sy.Push(context.Background(), "base"), chain.ErrNotConnected)
}

func TestLocalReadsWorkOutsideSession(t *testing.T) {
	m := baseOverride()
	sy := chain.NewSyncer(m, "base", "override")

	require.NoError(t, sy.Store().Set("base", "k", "local"))
	v, err := sy.Store().String("k")
	assert.NoError(t, err)
	assert.Equal(t, "local", v)
}

func TestOpenReleasesConnectionOnFetchFailure(t *testing.T) {
	m := baseOverride()
	m.Errs = map[string]error{
		"base": secret.Wrap(nil, secret.CodeDecryptionFailure, "base"),
	}
	sy := chain.NewSyncer(m, "base", "override")

	err := sy.Open(context.Background())
	require.Error(t, err)
	assert.Equal(t, secret.CodeDecryptionFailure, secret.CodeOf(err))
	assert.False(t, m.Connected)

	assert.ErrorIs(t, sy.Push(context.Background(), "base"), chain.ErrNotConnected)
}

func TestOpenTwice(t *testing.T) {
	sy := chain.NewSyncer(baseOverride(), "base", "override")
	require.NoError(t, sy.Open(context.Background()))
	defer sy.Close() //nolint:errcheck

	assert.Error(t, sy.Open(context.Background()))
}

func TestCloseUnopened(t *testing.T) {
	sy := chain.NewSyncer(baseOverride(), "base")
	assert.NoError(t, sy.Close())
}

func TestOpenForwardsFetchOptions(t *testing.T) {
	m := baseOverride()
	m.Errs = map[string]error{
		"base": secret.Wrap(nil, secret.CodeNotFound, "base"),
	}
	sy := chain.NewSyncer(m, "base", "override")

	// best-effort open still fails overall but attempts every bundle.
	err := sy.Open(context.Background(), chain.ContinueOnError())
	require.Error(t, err)
	assert.Equal(t, []string{"base", "override"}, m.Fetches)
	assert.False(t, m.Connected)
}
