// Package config defines a configuration engine based on JavaScript. A
// configuration is built from a set of JavaScript source files and executed
// to declare the secret store backend and the ordered bundle names.
// JavaScript is used so bundle sets can be composed conditionally, for
// example per hostname or deployment environment.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/robertkrimen/otto"
)

// State represents a desired accessor setup: which backend to talk to and
// which bundles to merge, lowest precedence first.
type State struct {
	Bundles []string `json:"bundles"`
	Backend Backend  `json:"backend"`
}

// Backend selects and configures a secret store transport.
type Backend struct {
	// Kind is either "awssm" or "vault"
	Kind string `json:"kind"`

	// AWS Secrets Manager settings. Empty credentials fall back to the
	// SDK's default resolution chain.
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`

	// Vault settings
	Address string `json:"address"`
	Token   string `json:"token"`
	Path    string `json:"path"`
}

// ConfigFromDirectory searches a directory for configuration files and
// constructs a desired state from the declarations.
func ConfigFromDirectory(dir, hostname string) (state State, err error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		err = errors.Wrap(err, "failed to read config directory")
		return
	}

	sources := []string{}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		if filepath.Ext(file.Name()) == ".js" {
			sources = append(sources, fileToString(filepath.Join(dir, file.Name())))
		}
	}

	cb := configBuilder{
		vm:      otto.New(),
		state:   new(State),
		scripts: sources,
	}

	err = cb.construct(hostname)
	if err != nil {
		return
	}

	state = *cb.state
	return
}

type configBuilder struct {
	vm      *otto.Otto
	state   *State
	scripts []string
}

func (cb *configBuilder) construct(hostname string) (err error) {
	//nolint:errcheck
	cb.vm.Run(`'use strict';
var STATE = {
	bundles: [],
	backend: {}
};

function S(name) {
	if(typeof name !== "string" || name === "") { throw "bundle name must be a non-empty string"; }

	STATE.bundles.push(name)
}

function B(b) {
	if(b.kind === undefined) { throw "backend kind undefined"; }

	STATE.backend = b
}
`)

	cb.vm.Set("HOSTNAME", hostname) //nolint:errcheck

	env := make(map[string]string)
	for _, kv := range os.Environ() {
		d := strings.IndexRune(kv, '=')
		env[kv[:d]] = kv[d+1:]
	}
	cb.vm.Set("ENV", env) //nolint:errcheck

	for _, s := range cb.scripts {
		err = cb.applyFileDeclarations(s)
		if err != nil {
			return
		}
	}

	stateObj, err := cb.vm.Run(`JSON.stringify(STATE)`)
	if err != nil {
		return errors.Wrap(err, "failed to stringify STATE object")
	}
	stateRaw, err := stateObj.ToString()
	if err != nil {
		return errors.Wrap(err, "failed to get string representation of STATE")
	}
	return json.Unmarshal([]byte(stateRaw), cb.state)
}

func (cb *configBuilder) applyFileDeclarations(script string) (err error) {
	_, err = cb.vm.Run(script)
	if err != nil {
		return
	}

	return
}

func fileToString(path string) (contents string) {
	b, err := os.ReadFile(path)
	if err != nil {
		return
	}
	return string(b)
}
