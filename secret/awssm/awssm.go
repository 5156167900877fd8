// Package awssm implements the secret store capability over AWS Secrets
// Manager. Each bundle is one secret, its value a single JSON object.
package awssm

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/picostack/secretchain/secret"
)

// SecretsManager implements a secret.Connector over AWS Secrets Manager.
type SecretsManager struct {
	region    string
	accessKey string
	secretKey string
	client    *secretsmanager.Client
}

var _ secret.Connector = &SecretsManager{}

// New prepares a Secrets Manager store for the given region. With empty
// credentials the SDK's default resolution chain is used.
func New(region, accessKey, secretKey string) *SecretsManager {
	return &SecretsManager{
		region:    region,
		accessKey: accessKey,
		secretKey: secretKey,
	}
}

// Connect resolves credentials and builds the client.
func (s *SecretsManager) Connect(ctx context.Context) error {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.region),
	}
	if s.accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.accessKey, s.secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to load aws configuration")
	}
	s.client = secretsmanager.NewFromConfig(cfg)

	zap.L().Debug("connected to aws secrets manager",
		zap.String("region", s.region))

	return nil
}

// Close invalidates the client handle. The SDK holds no persistent
// connection.
func (s *SecretsManager) Close() error {
	s.client = nil
	return nil
}

// FetchSecret implements secret.Store. Binary secrets pass through as
// binary payloads; the SDK delivers SecretBinary base64-decoded already.
func (s *SecretsManager) FetchSecret(ctx context.Context, name string) (secret.Payload, error) {
	if s.client == nil {
		return secret.Payload{}, errors.New("aws secrets manager store is not connected")
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return secret.Payload{}, mapError(err, name)
	}

	if out.SecretString != nil {
		return secret.Payload{Text: *out.SecretString}, nil
	}
	return secret.Payload{Binary: out.SecretBinary}, nil
}

// PushSecret implements secret.Store, overwriting the remote secret value
// entirely.
func (s *SecretsManager) PushSecret(ctx context.Context, name string, payload secret.Payload) error {
	if s.client == nil {
		return errors.New("aws secrets manager store is not connected")
	}

	in := &secretsmanager.PutSecretValueInput{
		SecretId: aws.String(name),
	}
	if payload.IsBinary() {
		in.SecretBinary = payload.Binary
	} else {
		in.SecretString = aws.String(payload.Text)
	}

	if _, err := s.client.PutSecretValue(ctx, in); err != nil {
		return mapError(err, name)
	}
	return nil
}

// mapError translates AWS error codes into the store taxonomy. Access
// denial surfaces as a generic API error rather than a modelled type, so
// it is matched by code.
func mapError(err error, name string) error {
	var (
		notFound   *types.ResourceNotFoundException
		decryption *types.DecryptionFailure
		internal   *types.InternalServiceError
	)
	switch {
	case errors.As(err, &notFound):
		return secret.Wrap(err, secret.CodeNotFound, name)
	case errors.As(err, &decryption):
		return secret.Wrap(err, secret.CodeDecryptionFailure, name)
	case errors.As(err, &internal):
		return secret.Wrap(err, secret.CodeInternal, name)
	}

	var api smithy.APIError
	if errors.As(err, &api) && api.ErrorCode() == "AccessDeniedException" {
		return secret.Wrap(err, secret.CodeAccessDenied, name)
	}
	return secret.Wrap(err, secret.CodeInternal, name)
}
