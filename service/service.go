// Package service wires a configured secret store backend to the chain and
// manages the session lifecycle on behalf of the command line interface.
package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/picostack/secretchain/chain"
	"github.com/picostack/secretchain/config"
	"github.com/picostack/secretchain/secret"
	"github.com/picostack/secretchain/secret/awssm"
	"github.com/picostack/secretchain/secret/vault"
)

// Config is the fully resolved service configuration, assembled from
// command line flags and any JavaScript config directory.
type Config struct {
	ConfigDirectory string
	Hostname        string
	Backend         string
	Region          string
	AccessKey       string
	SecretKey       string
	VaultAddress    string
	VaultToken      string
	VaultPath       string
	Bundles         []string
	ContinueOnError bool
	Parallel        bool
}

// App is an assembled accessor ready to open a session against its backend.
type App struct {
	config Config
	syncer *chain.Syncer
}

// Initialise builds the backend and the chain from config. A JavaScript
// config directory, when present, provides defaults that explicit settings
// override.
func Initialise(c Config) (*App, error) {
	if c.ConfigDirectory != "" {
		state, err := config.ConfigFromDirectory(c.ConfigDirectory, c.Hostname)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load configuration scripts")
		}
		applyState(&c, state)
	}

	if len(c.Bundles) == 0 {
		return nil, errors.New("no secret bundles declared")
	}

	conn, err := connector(c)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("initialised secret store backend",
		zap.String("backend", c.Backend),
		zap.Strings("bundles", c.Bundles))

	return &App{
		config: c,
		syncer: chain.NewSyncer(conn, c.Bundles...),
	}, nil
}

// Open connects to the backend and performs the initial fetch of every
// declared bundle.
func (app *App) Open(ctx context.Context) error {
	var opts []chain.FetchOption
	if app.config.ContinueOnError {
		opts = append(opts, chain.ContinueOnError())
	}
	if app.config.Parallel {
		opts = append(opts, chain.Parallel())
	}
	return app.syncer.Open(ctx, opts...)
}

// Close releases the backend connection.
func (app *App) Close() error {
	return app.syncer.Close()
}

// Store exposes the merged chain for lookups and local writes.
func (app *App) Store() *chain.Store {
	return app.syncer.Store()
}

// Fetch refreshes every bundle within the open session.
func (app *App) Fetch(ctx context.Context) error {
	return app.syncer.Fetch(ctx)
}

// Push writes one bundle back to the remote store.
func (app *App) Push(ctx context.Context, name string) error {
	return app.syncer.Push(ctx, name)
}

func connector(c Config) (secret.Connector, error) {
	switch c.Backend {
	case "awssm", "":
		if c.Region == "" {
			return nil, errors.New("aws secrets manager backend requires a region")
		}
		return awssm.New(c.Region, c.AccessKey, c.SecretKey), nil
	case "vault":
		if c.VaultAddress == "" {
			return nil, errors.New("vault backend requires an address")
		}
		return vault.New(c.VaultAddress, c.VaultPath, c.VaultToken), nil
	}
	return nil, errors.Errorf("unknown secret store backend %q", c.Backend)
}

func applyState(c *Config, s config.State) {
	if len(c.Bundles) == 0 {
		c.Bundles = s.Bundles
	}
	if c.Backend == "" {
		c.Backend = s.Backend.Kind
	}
	if c.Region == "" {
		c.Region = s.Backend.Region
	}
	if c.AccessKey == "" {
		c.AccessKey = s.Backend.AccessKey
	}
	if c.SecretKey == "" {
		c.SecretKey = s.Backend.SecretKey
	}
	if c.VaultAddress == "" {
		c.VaultAddress = s.Backend.Address
	}
	if c.VaultToken == "" {
		c.VaultToken = s.Backend.Token
	}
	if c.VaultPath == "" {
		c.VaultPath = s.Backend.Path
	}
}
