package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestCreateApp(t *testing.T) {
	t.Setenv("MATRIX_HOMESERVER_URL", "https://matrix.example.org")
	t.Setenv("MATRIX_USER_ID", "@hebbot:example.org")
	t.Setenv("BOT_PASSWORD", "secret")
	t.Setenv("CONFIG_PATH", "../../config/testdata/config.yaml")

	// Validate fx dependency graph
	require.NoError(t, fx.ValidateApp(CreateApp()))
}
