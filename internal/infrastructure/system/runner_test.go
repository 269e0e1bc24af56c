package system

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/haecker-felix/hebbot/internal/domain/news/consts"
)

func TestShellRunner_Run(t *testing.T) {
	r := NewShellRunner(zerolog.Nop())

	out, err := r.Run(context.Background(), "wc -l", []byte("a\nb\nc\n"))
	require.NoError(t, err)
	assert.Equal(t, "3", out)
}

func TestShellRunner_Failure(t *testing.T) {
	r := NewShellRunner(zerolog.Nop())

	out, err := r.Run(context.Background(), "echo broken >&2; exit 3", nil)
	require.Error(t, err)
	assert.Equal(t, "broken", out)
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestShellRunner_Cancelled(t *testing.T) {
	r := NewShellRunner(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, "sleep 5", nil)
	require.Error(t, err)
}

type mockShutdowner struct {
	opts []fx.ShutdownOption
}

func (m *mockShutdowner) Shutdown(opts ...fx.ShutdownOption) error {
	m.opts = opts
	return nil
}

func TestRestarter(t *testing.T) {
	s := &mockShutdowner{}
	r := NewRestarter(s, zerolog.Nop())

	require.NoError(t, r.Restart())
	require.Len(t, s.opts, 1)
	assert.Equal(t, fx.ExitCode(consts.RestartExitCode), s.opts[0])
}
