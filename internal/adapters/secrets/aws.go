package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"go.uber.org/zap"
)

// AWSConfig contains configuration for the AWS Secrets Manager backend.
type AWSConfig struct {
	Region string

	// Optional profile for local development; production uses the default
	// credentials chain (IAM role).
	Profile string

	// Optional custom endpoint for LocalStack.
	Endpoint string
}

// AWSManager implements ports.SecretManager on AWS Secrets Manager.
type AWSManager struct {
	client *secretsmanager.Client
	logger *zap.Logger
}

// NewAWSManager creates an AWS Secrets Manager backed secret manager.
func NewAWSManager(ctx context.Context, cfg *AWSConfig, logger *zap.Logger) (*AWSManager, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var clientOpts []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("aws secret manager initialized",
		zap.String("region", cfg.Region),
		zap.Bool("custom_endpoint", cfg.Endpoint != ""),
	)

	return &AWSManager{
		client: secretsmanager.NewFromConfig(awsCfg, clientOpts...),
		logger: logger,
	}, nil
}

// GetSecret retrieves the value stored under a path.
func (m *AWSManager) GetSecret(ctx context.Context, path string) (string, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(path),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("secret not found: %s", path)
		}
		return "", fmt.Errorf("get secret %s: %w", path, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret value missing at %s", path)
	}
	return *out.SecretString, nil
}

// PutSecret creates or updates a secret. AWS distinguishes the two, so a
// create that collides falls through to an update.
func (m *AWSManager) PutSecret(ctx context.Context, path, value string) error {
	_, err := m.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(path),
		SecretString: aws.String(value),
	})
	if err != nil {
		var exists *smtypes.ResourceExistsException
		if !errors.As(err, &exists) {
			return fmt.Errorf("create secret %s: %w", path, err)
		}
		_, err = m.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
			SecretId:     aws.String(path),
			SecretString: aws.String(value),
		})
		if err != nil {
			return fmt.Errorf("update secret %s: %w", path, err)
		}
	}

	m.logger.Info("secret written", zap.String("path", path))
	return nil
}

// DeleteSecret removes a secret without a recovery window. ResetToDefaults
// must be able to reseed the same name immediately.
func (m *AWSManager) DeleteSecret(ctx context.Context, path string) error {
	_, err := m.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(path),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("delete secret %s: %w", path, err)
	}

	m.logger.Warn("secret deleted", zap.String("path", path))
	return nil
}
