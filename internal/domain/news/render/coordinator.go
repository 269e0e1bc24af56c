// Package render turns a registry snapshot into the weekly report
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	newserrors "github.com/haecker-felix/hebbot/internal/domain/news/errors"
)

// ConfigSource provides the active bot configuration
type ConfigSource interface {
	Current() *config.Bot
}

// Result is a rendered report with everything the editor should know about it
type Result struct {
	Context  Context
	Document string
	Warnings []string
	Notes    []string
}

// Files returns all images and videos of the report
func (r *Result) Files() []File {
	files := make([]File, 0, len(r.Context.Images)+len(r.Context.Videos))
	files = append(files, r.Context.Images...)
	return append(files, r.Context.Videos...)
}

// Coordinator builds render contexts from snapshots and executes the template
type Coordinator struct {
	source ConfigSource
	engine *Engine
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithClock replaces the clock used for dates in the report
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(source ConfigSource, engine *Engine, logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		source: source,
		engine: engine,
		now:    time.Now,
		logger: logger.With().Str("component", "render").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildContext assembles the render context of snap under bot. A nil bot
// means the active configuration.
func (c *Coordinator) BuildContext(bot *config.Bot, snap entities.Snapshot, author string) (Context, []string, []string) {
	if bot == nil {
		bot = c.source.Current()
	}
	items := make([]entities.NewsItem, len(snap.Items))
	copy(items, snap.Items)

	ctx, f := buildContext(bot, items, author, c.now().UTC())
	return ctx, f.warnings, f.notes
}

// Render renders snap under the configuration bot on behalf of author. It
// only reads its arguments, so it can run while the registry and the
// configuration keep changing.
func (c *Coordinator) Render(bot *config.Bot, snap entities.Snapshot, author string) (*Result, error) {
	ctx, warnings, notes := c.BuildContext(bot, snap, author)

	doc, err := c.engine.Execute(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to execute template")
		return nil, fmt.Errorf("%w: %w", newserrors.ErrRenderFailed, err)
	}

	c.logger.Info().
		Int("sections", len(ctx.Sections)).
		Int("warnings", len(warnings)).
		Int("notes", len(notes)).
		Msg("Report rendered")

	return &Result{
		Context:  ctx,
		Document: doc,
		Warnings: warnings,
		Notes:    notes,
	}, nil
}

// FormatMessages formats warnings or notes as an HTML list for the admin room
func FormatMessages(warning bool, messages []string) string {
	marker := "ℹ️"
	if warning {
		marker = "⚠️"
	}
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "- %s %s<br>", marker, m)
	}
	return b.String()
}

// DownloadCommand returns a curl command line downloading all files of the
// report from homeserver
func DownloadCommand(homeserver string, files []File) string {
	homeserver = strings.TrimSuffix(homeserver, "/")

	var b strings.Builder
	b.WriteString("curl")
	for _, f := range files {
		media, ok := strings.CutPrefix(f.URL, "mxc://")
		if !ok || !strings.Contains(media, "/") {
			continue
		}
		fmt.Fprintf(&b, " %s/_matrix/media/r0/download/%s -o %s", homeserver, media, f.Filename)
	}
	return b.String()
}
