package secrets

import (
	"context"
	"testing"

	"github.com/imago3d/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-signing-key")
	t.Setenv("MESHY_API_KEY", "env-meshy-key")

	cfg := config.Config{}
	cfg.Database.Password = "env-db-password"

	sec, err := Load(context.Background(), cfg)
	require.NoError(t, err, "fully env-configured processes need no cloud access")

	assert.Equal(t, "env-signing-key", sec.JWTSigningKey)
	assert.Equal(t, "env-db-password", sec.DatabasePassword)
	assert.Equal(t, "env-meshy-key", sec.MeshyAPIKey)
}

func TestLoad_MissingSigningKeyIsFatal(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := config.Config{}
	cfg.Database.Password = "env-db-password"

	// No manager project configured and no env value: startup must fail
	// rather than serve requests it cannot sign tokens for.
	_, err := Load(context.Background(), cfg)
	require.Error(t, err)
}

func TestLoad_MissingDatabasePasswordIsFatal(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-signing-key")

	_, err := Load(context.Background(), config.Config{})
	require.Error(t, err)
}

func TestLoad_OptionalMeshyKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-signing-key")
	t.Setenv("MESHY_API_KEY", "")

	cfg := config.Config{}
	cfg.Database.Password = "env-db-password"

	sec, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, sec.MeshyAPIKey)
}
