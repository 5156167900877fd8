package secret_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/picostack/secretchain/secret"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want secret.Code
	}{
		{"bare", secret.Wrap(nil, secret.CodeNotFound, "db"), secret.CodeNotFound},
		{"with cause", secret.Wrap(errors.New("403"), secret.CodeAccessDenied, "db"), secret.CodeAccessDenied},
		{"wrapped", errors.Wrap(secret.Wrap(nil, secret.CodeDecryptionFailure, "db"), "failed to fetch"), secret.CodeDecryptionFailure},
		{"unclassified", errors.New("socket closed"), secret.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, secret.CodeOf(tt.err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, secret.IsNotFound(secret.Wrap(nil, secret.CodeNotFound, "db")))
	assert.True(t, secret.IsNotFound(errors.Wrap(secret.Wrap(nil, secret.CodeNotFound, "db"), "ctx")))
	assert.False(t, secret.IsNotFound(secret.Wrap(nil, secret.CodeInternal, "db")))
	assert.False(t, secret.IsNotFound(nil))
}

func TestErrorMessage(t *testing.T) {
	err := secret.Wrap(errors.New("boom"), secret.CodeInternal, "db")
	assert.Contains(t, err.Error(), "db")
	assert.Contains(t, err.Error(), "internal")
	assert.Contains(t, err.Error(), "boom")

	bare := secret.Wrap(nil, secret.CodeNotFound, "db")
	assert.Contains(t, bare.Error(), "not_found")
}
