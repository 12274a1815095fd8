package authn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/EO-DataHub/eodhp-scim-services/internal/appconfig"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
)

// ErrNoSecret is returned when neither a token nor a secret id is configured.
var ErrNoSecret = errors.New("no bearer token configured")

// SecretsGetter is the subset of the Secrets Manager client used to fetch the token.
type SecretsGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveToken returns the shared bearer secret. A configured secret id takes precedence
// over an inline token; sm may be nil when no secret id is set.
func ResolveToken(ctx context.Context, cfg appconfig.AuthConfig, sm SecretsGetter) (string, error) {
	if cfg.SecretID == "" {
		if cfg.Token == "" {
			return "", ErrNoSecret
		}
		return cfg.Token, nil
	}

	if sm == nil {
		return "", fmt.Errorf("secret %s configured but no secrets manager client available", cfg.SecretID)
	}

	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(cfg.SecretID),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("fetching secret %s: %s: %w", cfg.SecretID, apiErr.ErrorCode(), err)
		}
		return "", fmt.Errorf("fetching secret %s: %w", cfg.SecretID, err)
	}

	value := strings.TrimSpace(aws.ToString(out.SecretString))
	if cfg.SecretKey != "" {
		// The secret is a JSON object holding several values
		var fields map[string]string
		if err := json.Unmarshal([]byte(value), &fields); err != nil {
			return "", fmt.Errorf("secret %s is not a JSON object: %w", cfg.SecretID, err)
		}
		value = fields[cfg.SecretKey]
	}

	if value == "" {
		return "", fmt.Errorf("secret %s: %w", cfg.SecretID, ErrNoSecret)
	}
	return value, nil
}
