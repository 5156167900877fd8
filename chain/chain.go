// Package chain implements a layered accessor over named secret bundles.
// Bundles are fetched from a remote store and merged with last-declared-wins
// precedence; the merged view is live, so a local write to a bundle is
// visible immediately without re-merging. Reads go through a typed lookup
// that casts stored values on demand.
package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/picostack/secretchain/secret"
)

// Store owns one mutable bundle per declared name and resolves reads
// through the layered merged view. It is not safe for concurrent use;
// callers that share a Store across goroutines synchronize externally.
type Store struct {
	source  secret.Store
	names   []string
	bundles map[string]map[string]any
}

// New initialises one empty bundle per name. Precedence follows declaration
// order: the last name wins on key collisions. At least one name is
// expected. Declaring the same name twice is a caller error; both
// occurrences share a single bundle and Fetch will fetch it twice.
func New(source secret.Store, names ...string) *Store {
	s := &Store{
		source:  source,
		names:   names,
		bundles: make(map[string]map[string]any, len(names)),
	}
	for _, name := range names {
		s.bundles[name] = make(map[string]any)
	}
	return s
}

// Names returns the declared bundle names in precedence order, lowest
// first.
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

type fetchConfig struct {
	continueOnError bool
	parallel        bool
}

// FetchOption adjusts one Fetch operation.
type FetchOption func(*fetchConfig)

// ContinueOnError makes Fetch attempt every bundle even after a failure and
// return the first error once all have been tried. The default aborts on
// the first failure, leaving bundles refreshed so far in their new state.
func ContinueOnError() FetchOption {
	return func(c *fetchConfig) { c.continueOnError = true }
}

// Parallel fetches bundles concurrently. Each bundle is still replaced
// atomically: contents are decoded into a fresh map which is only swapped
// in once complete, so a failed bundle keeps its previous contents.
func Parallel() FetchOption {
	return func(c *fetchConfig) { c.parallel = true }
}

// Fetch clears and repopulates every declared bundle from the store, in
// declaration order. There is no rollback: bundles already refreshed when a
// later one fails keep their new contents.
func (s *Store) Fetch(ctx context.Context, opts ...FetchOption) error {
	var c fetchConfig
	for _, opt := range opts {
		opt(&c)
	}

	if c.parallel {
		return s.fetchParallel(ctx)
	}

	var first error
	for _, name := range s.names {
		if err := s.fetchOne(ctx, name); err != nil {
			if !c.continueOnError {
				return err
			}
			if first == nil {
				first = err
			}
			zap.L().Warn("continuing fetch after bundle failure",
				zap.String("bundle", name),
				zap.Error(err))
		}
	}
	return first
}

func (s *Store) fetchOne(ctx context.Context, name string) error {
	contents, err := s.fetchContents(ctx, name)
	if err != nil {
		return err
	}
	s.bundles[name] = contents
	zap.L().Debug("refreshed bundle from store",
		zap.String("bundle", name),
		zap.Int("keys", len(contents)))
	return nil
}

func (s *Store) fetchContents(ctx context.Context, name string) (map[string]any, error) {
	payload, err := s.source.FetchSecret(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch bundle %q", name)
	}
	contents, err := decodePayload(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode bundle %q", name)
	}
	return contents, nil
}

func (s *Store) fetchParallel(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	fresh := make([]map[string]any, len(s.names))
	for i, name := range s.names {
		i, name := i, name
		g.Go(func() error {
			contents, err := s.fetchContents(ctx, name)
			if err != nil {
				return err
			}
			fresh[i] = contents
			return nil
		})
	}
	err := g.Wait()
	// bundles that completed are applied either way, matching the
	// no-rollback contract of the serial path.
	for i, name := range s.names {
		if fresh[i] != nil {
			s.bundles[name] = fresh[i]
		}
	}
	return err
}

// Set writes a key into the named bundle. The write is immediately visible
// through the merged view whenever the bundle wins precedence for that key,
// and is lost on the next Fetch unless pushed back first.
func (s *Store) Set(name, key string, value any) error {
	bundle, ok := s.bundles[name]
	if !ok {
		return errors.Errorf("unknown bundle %q", name)
	}
	bundle[key] = value
	return nil
}

// Push serialises the named bundle's own contents, never the merged view,
// and overwrites the remote secret under that name.
func (s *Store) Push(ctx context.Context, name string) error {
	bundle, ok := s.bundles[name]
	if !ok {
		return errors.Errorf("unknown bundle %q", name)
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		return errors.Wrapf(err, "failed to encode bundle %q", name)
	}
	if err := s.source.PushSecret(ctx, name, secret.Payload{Text: string(raw)}); err != nil {
		return errors.Wrapf(err, "failed to push bundle %q", name)
	}
	zap.L().Debug("pushed bundle to store",
		zap.String("bundle", name),
		zap.Int("keys", len(bundle)))
	return nil
}

// Lookup resolves a key through the layered view: declared names are
// scanned from last to first and the first bundle containing the key wins.
func (s *Store) Lookup(key string) (any, bool) {
	for i := len(s.names) - 1; i >= 0; i-- {
		if v, ok := s.bundles[s.names[i]][key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Items returns a snapshot of the merged view with precedence applied.
func (s *Store) Items() map[string]any {
	merged := make(map[string]any)
	for _, name := range s.names {
		for k, v := range s.bundles[name] {
			merged[k] = v
		}
	}
	return merged
}

// Keys returns the merged view's resolved key set, sorted so the order is
// stable for a given set of mutations.
func (s *Store) Keys() []string {
	items := s.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the merged view's resolved values in Keys order.
func (s *Store) Values() []any {
	items := s.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = items[k]
	}
	return values
}

// decodePayload parses a bundle payload into its key-value contents. Binary
// payloads are base64-decoded first; transports that hand bytes over
// already decoded fall back to raw parsing. A JSON object can never itself
// be valid base64, so the two cases cannot be confused.
func decodePayload(p secret.Payload) (map[string]any, error) {
	raw := p.Bytes()
	if p.IsBinary() {
		if decoded, err := base64.StdEncoding.DecodeString(string(p.Binary)); err == nil {
			raw = decoded
		}
	}
	contents := make(map[string]any)
	if err := json.Unmarshal(raw, &contents); err != nil {
		return nil, errors.Wrap(err, "payload is not a JSON object")
	}
	return contents, nil
}
