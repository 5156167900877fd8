package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/picostack/secretchain/logger"
)

func TestInitialiseValidation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"no bundles", Config{Backend: "awssm", Region: "eu-west-1"}},
		{"awssm without region", Config{Backend: "awssm", Bundles: []string{"base"}}},
		{"vault without address", Config{Backend: "vault", Bundles: []string{"base"}}},
		{"unknown backend", Config{Backend: "consul", Bundles: []string{"base"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Initialise(tt.config)
			assert.Error(t, err)
		})
	}
}

func TestInitialiseBackends(t *testing.T) {
	app, err := Initialise(Config{
		Backend: "awssm",
		Region:  "eu-west-1",
		Bundles: []string{"base", "override"},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"base", "override"}, app.Store().Names())

	app, err = Initialise(Config{
		Backend:      "vault",
		VaultAddress: "http://127.0.0.1:8200",
		VaultPath:    "/secret",
		Bundles:      []string{"base"},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"base"}, app.Store().Names())

	// empty backend defaults to aws secrets manager
	_, err = Initialise(Config{
		Region:  "eu-west-1",
		Bundles: []string{"base"},
	})
	assert.NoError(t, err)
}

func TestInitialiseFromConfigScripts(t *testing.T) {
	dir := t.TempDir()
	script := `
S("base");
S("overrides");
B({
	kind:   "awssm",
	region: "eu-west-1"
});
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.js"), []byte(script), 0o600))

	app, err := Initialise(Config{
		ConfigDirectory: dir,
		Hostname:        "host",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "overrides"}, app.Store().Names())
}

func TestFlagsOverrideConfigScripts(t *testing.T) {
	dir := t.TempDir()
	script := `
S("scripted");
B({
	kind:   "awssm",
	region: "eu-west-1"
});
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.js"), []byte(script), 0o600))

	app, err := Initialise(Config{
		ConfigDirectory: dir,
		Hostname:        "host",
		Bundles:         []string{"explicit"},
		Region:          "us-east-1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"explicit"}, app.Store().Names())
}
