// Package vault implements the secret store capability over a Hashicorp
// Vault KV v2 engine. Each bundle is one secret under the configured base
// path, its data holding the bundle's key-value contents.
package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/picostack/secretchain/secret"
)

// VaultSecrets implements a secret.Connector backed by Hashicorp Vault.
type VaultSecrets struct {
	addr       string
	token      string
	enginepath string
	path       string
	client     *api.Client
}

var _ secret.Connector = &VaultSecrets{}

// New prepares a Vault store. The first component of basepath is the KV
// engine mount, the rest is the path prefix under which bundles live.
func New(addr, basepath, token string) *VaultSecrets {
	enginepath, subpath := splitPath(basepath)
	return &VaultSecrets{
		addr:       addr,
		token:      token,
		enginepath: enginepath,
		path:       subpath,
	}
}

// Connect creates the client and verifies the token against the server.
func (v *VaultSecrets) Connect(ctx context.Context) error {
	client, err := api.NewClient(&api.Config{
		Address:    v.addr,
		HttpClient: cleanhttp.DefaultClient(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create vault client")
	}
	client.SetToken(v.token)

	if _, err := client.Auth().Token().LookupSelfWithContext(ctx); err != nil {
		return errors.Wrap(err, "failed to connect to vault server")
	}
	v.client = client

	zap.L().Debug("connected to vault secrets engine",
		zap.String("enginepath", v.enginepath),
		zap.String("path", v.path))

	return nil
}

// Close invalidates the client handle. Vault sessions are stateless on the
// server side, there is nothing to tear down remotely.
func (v *VaultSecrets) Close() error {
	v.client = nil
	return nil
}

// FetchSecret implements secret.Store. The bundle's KV data is re-encoded
// as a JSON text payload for the chain to parse.
func (v *VaultSecrets) FetchSecret(ctx context.Context, name string) (secret.Payload, error) {
	if v.client == nil {
		return secret.Payload{}, errors.New("vault store is not connected")
	}

	read, err := v.client.Logical().ReadWithContext(ctx, v.buildPath(name))
	if err != nil {
		return secret.Payload{}, mapError(err, name)
	}
	if read == nil {
		return secret.Payload{}, secret.Wrap(nil, secret.CodeNotFound, name)
	}

	kv, ok := read.Data["data"].(map[string]interface{})
	if !ok {
		return secret.Payload{}, secret.Wrap(
			errors.New("could not interpret KV v2 response data as a hashtable"),
			secret.CodeInternal, name)
	}
	raw, err := json.Marshal(kv)
	if err != nil {
		return secret.Payload{}, secret.Wrap(err, secret.CodeInternal, name)
	}

	zap.L().Debug("fetched bundle from vault",
		zap.String("bundle", name),
		zap.Int("keys", len(kv)))

	return secret.Payload{Text: string(raw)}, nil
}

// PushSecret implements secret.Store, replacing the secret's data outright.
func (v *VaultSecrets) PushSecret(ctx context.Context, name string, payload secret.Payload) error {
	if v.client == nil {
		return errors.New("vault store is not connected")
	}

	contents := make(map[string]interface{})
	if err := json.Unmarshal(payload.Bytes(), &contents); err != nil {
		return secret.Wrap(err, secret.CodeInternal, name)
	}

	_, err := v.client.Logical().WriteWithContext(ctx, v.buildPath(name), map[string]interface{}{
		"data": contents,
	})
	if err != nil {
		return mapError(err, name)
	}
	return nil
}

// builds the KV v2 data path to a bundle
func (v *VaultSecrets) buildPath(item string) string {
	return path.Join(v.enginepath, "data", v.path, item)
}

func splitPath(basepath string) (string, string) {
	basepath = strings.Trim(basepath, "/")
	s := strings.SplitN(basepath, "/", 2)
	if len(s[0]) == 0 {
		return basepath, "/"
	} else if len(s) == 1 {
		return basepath, "/"
	}
	return s[0], s[1]
}

// mapError translates vault response codes into the store taxonomy. Reads
// of missing secrets do not reach here: the client reports those as a nil
// read, handled at the call site.
func mapError(err error, name string) error {
	var resp *api.ResponseError
	if errors.As(err, &resp) {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return secret.Wrap(err, secret.CodeNotFound, name)
		case http.StatusForbidden:
			return secret.Wrap(err, secret.CodeAccessDenied, name)
		}
	}
	return secret.Wrap(err, secret.CodeInternal, name)
}
