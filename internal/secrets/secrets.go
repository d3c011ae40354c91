// Package secrets resolves process secrets once at startup, before the
// server accepts traffic. Each value is read from its environment
// variable first and falls back to Google Secret Manager, so local
// development needs no cloud access.
package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/imago3d/apiserver/config"
	"google.golang.org/api/option"
	secretmanager "google.golang.org/api/secretmanager/v1"
)

// Secret names in the manager, and their environment overrides.
const (
	jwtSecretName  = "jwt-signing-key"
	jwtSecretEnv   = "JWT_SECRET"
	dbPasswordName = "database-password"
	meshyKeyName   = "meshy-api-key"
	meshyKeyEnv    = "MESHY_API_KEY"
)

// Secrets holds everything resolved at bootstrap. Treated as immutable
// for the process lifetime; rotating the signing key requires a restart
// and invalidates all outstanding tokens.
type Secrets struct {
	JWTSigningKey    string
	DatabasePassword string
	MeshyAPIKey      string
}

// Client reads secret versions from Google Secret Manager.
type Client struct {
	svc       *secretmanager.Service
	projectID string
}

// NewClient constructs a Secret Manager client from config.
func NewClient(ctx context.Context, cfg config.SecretsConfig) (*Client, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("secret manager project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := secretmanager.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{svc: svc, projectID: cfg.ProjectID}, nil
}

// Get reads the latest version of the named secret.
func (c *Client) Get(ctx context.Context, name string) (string, error) {
	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.projectID, name)
	version, err := c.svc.Projects.Secrets.Versions.Access(resource).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	if version.Payload == nil {
		return "", fmt.Errorf("secret %s has no payload", name)
	}
	data, err := base64.StdEncoding.DecodeString(version.Payload.Data)
	if err != nil {
		return "", fmt.Errorf("decode secret %s: %w", name, err)
	}
	return string(data), nil
}

// Load resolves all process secrets. A missing signing key or database
// password is a startup failure, never a per-request one.
func Load(ctx context.Context, cfg config.Config) (Secrets, error) {
	loader := &loader{cfg: cfg.Secrets}

	jwtKey, err := loader.resolve(ctx, jwtSecretEnv, jwtSecretName)
	if err != nil {
		return Secrets{}, err
	}
	if jwtKey == "" {
		return Secrets{}, fmt.Errorf("signing key missing: set %s or provision %s", jwtSecretEnv, jwtSecretName)
	}

	dbPassword := cfg.Database.Password
	if dbPassword == "" {
		dbPassword, err = loader.resolve(ctx, "", dbPasswordName)
		if err != nil {
			return Secrets{}, err
		}
	}
	if dbPassword == "" {
		return Secrets{}, fmt.Errorf("database password missing: set DB_PASSWORD or provision %s", dbPasswordName)
	}

	// Optional: the conversion worker holds the real Meshy credentials;
	// the API server only forwards this to diagnostics.
	meshyKey, err := loader.resolve(ctx, meshyKeyEnv, meshyKeyName)
	if err != nil {
		meshyKey = ""
	}

	return Secrets{
		JWTSigningKey:    jwtKey,
		DatabasePassword: dbPassword,
		MeshyAPIKey:      meshyKey,
	}, nil
}

// loader creates the Secret Manager client lazily, so a fully
// env-configured process never needs cloud credentials.
type loader struct {
	cfg    config.SecretsConfig
	client *Client
	err    error
}

func (l *loader) resolve(ctx context.Context, envVar, secretName string) (string, error) {
	if envVar != "" {
		if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
			return value, nil
		}
	}

	if l.client == nil && l.err == nil {
		l.client, l.err = NewClient(ctx, l.cfg)
	}
	if l.err != nil {
		return "", l.err
	}
	return l.client.Get(ctx, secretName)
}
