package vault

import (
	"context"
	"net/http"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/picostack/secretchain/secret"
)

func Test_splitPath(t *testing.T) {
	type args struct {
		basepath string
	}
	tests := []struct {
		name  string
		args  args
		want  string
		want1 string
	}{
		{"simple", args{basepath: "kv"}, "kv", "/"},
		{"simple", args{basepath: "/kv"}, "kv", "/"},
		{"simple", args{basepath: "/kv/"}, "kv", "/"},
		{"simple", args{basepath: "/kv/subdir"}, "kv", "subdir"},
		{"simple", args{basepath: "/kv/subdir/"}, "kv", "subdir"},
		{"simple", args{basepath: "/kv/subdir/subsubdir"}, "kv", "subdir/subsubdir"},
		{"simple", args{basepath: "/kv/subdir/subsubdir/"}, "kv", "subdir/subsubdir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, got1 := splitPath(tt.args.basepath)
			if got != tt.want {
				t.Errorf("splitPath() got = '%v', want '%v'", got, tt.want)
			}
			if got1 != tt.want1 {
				t.Errorf("splitPath() got1 = '%v', want '%v'", got1, tt.want1)
			}
		})
	}
}

func Test_buildPath(t *testing.T) {
	tests := []struct {
		name     string
		basepath string
		item     string
		want     string
	}{
		{"engine only", "secret", "db", "secret/data/db"},
		{"with prefix", "/kv/apps", "db", "kv/data/apps/db"},
		{"deep prefix", "/kv/apps/prod", "db", "kv/data/apps/prod/db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New("http://127.0.0.1:8200", tt.basepath, "token")
			assert.Equal(t, tt.want, v.buildPath(tt.item))
		})
	}
}

func Test_mapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want secret.Code
	}{
		{"not found", &api.ResponseError{StatusCode: http.StatusNotFound}, secret.CodeNotFound},
		{"forbidden", &api.ResponseError{StatusCode: http.StatusForbidden}, secret.CodeAccessDenied},
		{"server error", &api.ResponseError{StatusCode: http.StatusInternalServerError}, secret.CodeInternal},
		{"plain", errors.New("connection refused"), secret.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, secret.CodeOf(mapError(tt.err, "db")))
		})
	}
}

func TestFetchRequiresConnect(t *testing.T) {
	v := New("http://127.0.0.1:8200", "/secret", "token")
	_, err := v.FetchSecret(context.Background(), "db")
	assert.Error(t, err)
	assert.Error(t, v.PushSecret(context.Background(), "db", secret.Payload{Text: "{}"}))
}
