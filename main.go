package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/picostack/secretchain/chain"
	"github.com/picostack/secretchain/service"
)

var version = "master"

func init() {
	// constructs a logger and replaces the default global logger
	var config zap.Config
	if d, e := strconv.ParseBool(os.Getenv("DEVELOPMENT")); d && e == nil {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	if d, e := strconv.ParseBool(os.Getenv("DEBUG")); d && e == nil {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

func main() {
	app := cli.NewApp()

	app.Name = "secretchain"
	app.Usage = "A layered accessor for remote secret bundles."
	app.UsageText = `secretchain [command] [flags]`
	app.Version = version
	app.Description = `Secretchain fetches named secret bundles from a remote secret store,
merges them with last-declared-wins precedence and resolves typed
values from the merged view. The library carries the semantics; these
commands are a thin operator tool over it.`

	storeFlags := []cli.Flag{
		cli.StringFlag{Name: "config", EnvVar: "CONFIG_DIR"},
		cli.StringFlag{Name: "backend", EnvVar: "BACKEND"},
		cli.StringFlag{Name: "region", EnvVar: "AWS_REGION"},
		cli.StringFlag{Name: "access-key", EnvVar: "AWS_ACCESS_KEY_ID"},
		cli.StringFlag{Name: "secret-key", EnvVar: "AWS_SECRET_ACCESS_KEY"},
		cli.StringFlag{Name: "vault-addr", EnvVar: "VAULT_ADDR"},
		cli.StringFlag{Name: "vault-token", EnvVar: "VAULT_TOKEN"},
		cli.StringFlag{Name: "vault-path", EnvVar: "VAULT_PATH", Value: "/secret"},
		cli.StringSliceFlag{Name: "bundle", EnvVar: "BUNDLES"},
		cli.BoolFlag{Name: "continue-on-error", EnvVar: "CONTINUE_ON_ERROR"},
		cli.BoolFlag{Name: "parallel", EnvVar: "PARALLEL"},
	}

	app.Commands = []cli.Command{
		{
			Name:        "get",
			Aliases:     []string{"g"},
			Description: `Fetches all declared bundles and resolves one key from the merged view.`,
			Usage:       "argument `key` is resolved through the declared bundle chain.",
			ArgsUsage:   "key",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "type", Value: "text", Usage: "cast target: text, int, float, bool or raw"},
				cli.StringFlag{Name: "default", Usage: "value to print when the key is absent"},
			}, storeFlags...),
			Action: func(c *cli.Context) error {
				if !c.Args().Present() {
					cli.ShowCommandHelp(c, "get") //nolint:errcheck
					return errors.New("missing argument: key")
				}
				return withSession(c, func(ctx context.Context, app *service.App) error {
					t, err := parseType(c.String("type"))
					if err != nil {
						return err
					}
					opts := []chain.GetOption{chain.As(t)}
					if c.IsSet("default") {
						opts = append(opts, chain.Default(c.String("default")))
					}
					v, err := app.Store().Get(c.Args().First(), opts...)
					if err != nil {
						return err
					}
					fmt.Println(v)
					return nil
				})
			},
		},
		{
			Name:        "keys",
			Aliases:     []string{"k"},
			Description: `Fetches all declared bundles and lists the merged view's resolved keys.`,
			Usage:       "lists the keys visible through the merged view.",
			Flags:       storeFlags,
			Action: func(c *cli.Context) error {
				return withSession(c, func(ctx context.Context, app *service.App) error {
					for _, k := range app.Store().Keys() {
						fmt.Println(k)
					}
					return nil
				})
			},
		},
		{
			Name:        "push",
			Aliases:     []string{"p"},
			Description: `Applies --set pairs to one bundle and writes that bundle back to the
remote store. Only the named bundle's own contents are sent.`,
			Usage:     "argument `bundle` is written back after applying --set pairs.",
			ArgsUsage: "bundle",
			Flags: append([]cli.Flag{
				cli.StringSliceFlag{Name: "set", Usage: "key=value pair to write into the bundle first"},
			}, storeFlags...),
			Action: func(c *cli.Context) error {
				if !c.Args().Present() {
					cli.ShowCommandHelp(c, "push") //nolint:errcheck
					return errors.New("missing argument: bundle")
				}
				bundle := c.Args().First()
				return withSession(c, func(ctx context.Context, app *service.App) error {
					for _, pair := range c.StringSlice("set") {
						d := strings.IndexRune(pair, '=')
						if d <= 0 {
							return errors.Errorf("malformed --set pair %q, want key=value", pair)
						}
						if err := app.Store().Set(bundle, pair[:d], pair[d+1:]); err != nil {
							return err
						}
					}
					return app.Push(ctx, bundle)
				})
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		zap.L().Fatal("exit", zap.Error(err))
	}
}

// withSession assembles the accessor from flags, opens a session (which
// fetches every bundle) and guarantees the connection is released again.
func withSession(c *cli.Context, fn func(context.Context, *service.App) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hostname, err := os.Hostname()
	if err != nil {
		return errors.Wrap(err, "failed to get hostname")
	}

	app, err := service.Initialise(service.Config{
		ConfigDirectory: c.String("config"),
		Hostname:        hostname,
		Backend:         c.String("backend"),
		Region:          c.String("region"),
		AccessKey:       c.String("access-key"),
		SecretKey:       c.String("secret-key"),
		VaultAddress:    c.String("vault-addr"),
		VaultToken:      c.String("vault-token"),
		VaultPath:       c.String("vault-path"),
		Bundles:         c.StringSlice("bundle"),
		ContinueOnError: c.Bool("continue-on-error"),
		Parallel:        c.Bool("parallel"),
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialise")
	}

	if err := app.Open(ctx); err != nil {
		return errors.Wrap(err, "failed to open secret store session")
	}
	defer app.Close() //nolint:errcheck

	return fn(ctx, app)
}

func parseType(s string) (chain.Type, error) {
	switch strings.ToLower(s) {
	case "text", "string":
		return chain.Text, nil
	case "int", "integer":
		return chain.Int, nil
	case "float":
		return chain.Float, nil
	case "bool", "boolean":
		return chain.Bool, nil
	case "raw":
		return chain.Raw, nil
	}
	return chain.Text, errors.Errorf("unknown cast type %q", s)
}
