// Package system contains process level infrastructure: shell commands and restarts
package system

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/haecker-felix/hebbot/internal/domain/news/consts"
)

// ShellRunner runs operator-configured commands through sh -c.
// Implements deps.CommandRunner interface
type ShellRunner struct {
	shell  string
	logger zerolog.Logger
}

// NewShellRunner creates a new ShellRunner
func NewShellRunner(logger zerolog.Logger) *ShellRunner {
	return &ShellRunner{
		shell:  "sh",
		logger: logger.With().Str("component", "shell_runner").Logger(),
	}
}

// Run executes command with stdin and returns its combined output. A non-zero
// exit status is an error carrying the output.
func (r *ShellRunner) Run(ctx context.Context, command string, stdin []byte) (string, error) {
	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	cmd.Stdin = bytes.NewReader(stdin)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	r.logger.Info().Str("command", command).Msg("Running command")

	err := cmd.Run()
	output := strings.TrimSpace(out.String())
	if err != nil {
		r.logger.Error().Err(err).Str("command", command).Str("output", output).Msg("Command failed")
		if output == "" {
			return "", fmt.Errorf("run %q: %w", command, err)
		}
		return output, fmt.Errorf("run %q: %w: %s", command, err, output)
	}

	r.logger.Debug().Str("command", command).Str("output", output).Msg("Command finished")
	return output, nil
}

// Restarter shuts the application down with the restart exit code so that the
// supervisor starts it again.
// Implements deps.Restarter interface
type Restarter struct {
	shutdowner fx.Shutdowner
	logger     zerolog.Logger
}

// NewRestarter creates a new Restarter
func NewRestarter(shutdowner fx.Shutdowner, logger zerolog.Logger) *Restarter {
	return &Restarter{
		shutdowner: shutdowner,
		logger:     logger.With().Str("component", "restarter").Logger(),
	}
}

// Restart requests a graceful shutdown
func (r *Restarter) Restart() error {
	r.logger.Info().Int("exit_code", consts.RestartExitCode).Msg("Restart requested")
	return r.shutdowner.Shutdown(fx.ExitCode(consts.RestartExitCode))
}
