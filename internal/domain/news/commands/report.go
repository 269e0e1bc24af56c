package commands

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"

	"github.com/haecker-felix/hebbot/internal/domain/news/dto"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	newserrors "github.com/haecker-felix/hebbot/internal/domain/news/errors"
	"github.com/haecker-felix/hebbot/internal/domain/news/events"
	"github.com/haecker-felix/hebbot/internal/domain/news/render"
)

// Uploaded report names
const (
	RenderedFilename     = "rendered.md"
	RenderedHTMLFilename = "rendered.html"
)

func (d *Dispatcher) handleRender(ctx context.Context, cmd events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	d.background(ctx, cmd, func(ctx context.Context, res *render.Result) {
		d.deliverReport(ctx, cmd, res)
	})
	return nil, nil
}

func (d *Dispatcher) handlePublish(ctx context.Context, cmd events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	command := d.Config.Current().PublishCommand
	if command == "" {
		return nil, newserrors.ErrNoPublishCommand
	}

	d.background(ctx, cmd, func(ctx context.Context, res *render.Result) {
		d.runPublish(ctx, cmd, command, res)
	})
	return nil, nil
}

// background takes the snapshot and the configuration now and renders them
// on another goroutine, so the registry keeps accepting events during a slow
// render
func (d *Dispatcher) background(ctx context.Context, cmd events.AdminCommand, then func(context.Context, *render.Result)) {
	bot := d.Config.Current()
	snap := d.Registry.Snapshot()
	author := cmd.ActorDisplayName
	if author == "" {
		author = cmd.ActorID
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), BackgroundTimeout)
		defer cancel()

		start := time.Now()
		res, err := d.Renderer.Render(bot, snap, author)
		if d.Recorder != nil {
			d.Recorder.RecordRender(time.Since(start).Seconds(), err)
		}
		if err != nil {
			d.logger.Error().Err(err).Msg("Render failed")
			d.reply(ctx, dto.HTML(fmt.Sprintf("❌ Could not render template: <pre>%s</pre>", html.EscapeString(err.Error()))))
			return
		}

		then(ctx, res)
	}()
}

func (d *Dispatcher) deliverReport(ctx context.Context, cmd events.AdminCommand, res *render.Result) {
	if d.sender == nil {
		d.logger.Error().Msg("No sender configured, dropping rendered report")
		return
	}

	bot := d.Config.Current()
	doc := []byte(res.Document)

	if err := d.sender.SendFile(ctx, bot.AdminRoomID, RenderedFilename, "text/markdown; charset=utf-8", doc); err != nil {
		d.logger.Error().Err(err).Msg("Failed to upload rendered report")
		d.reply(ctx, dto.Plain(fmt.Sprintf("❌ %s: %s", newserrors.ErrUploadFailed.Message(), err)))
		return
	}

	if d.HTMLPreview {
		if page, err := render.HTML(res.Document); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to build HTML preview")
		} else if err := d.sender.SendFile(ctx, bot.AdminRoomID, RenderedHTMLFilename, "text/html; charset=utf-8", []byte(page)); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to upload HTML preview")
		}
	}

	d.reportFindings(ctx, res.Warnings, res.Notes)
	d.reportFiles(ctx, res)
	url := d.archive(ctx, doc)

	d.publish(ctx, entities.Change{
		Type:      entities.ChangeRendered,
		ActorID:   cmd.ActorID,
		Count:     countItems(res.Context),
		URL:       url,
		Timestamp: time.Now().UTC(),
	})
}

func (d *Dispatcher) runPublish(ctx context.Context, cmd events.AdminCommand, command string, res *render.Result) {
	output, err := d.Runner.Run(ctx, command, []byte(res.Document))
	if err != nil {
		d.logger.Error().Err(err).Str("output", output).Msg("Publish command failed")
		d.reply(ctx, dto.HTML(fmt.Sprintf("❌ publish_command failed: %s<br><pre>%s</pre>", html.EscapeString(err.Error()), html.EscapeString(output))))
	} else {
		d.reply(ctx, dto.HTML("publish_command was successful"))
		if output != "" {
			d.reply(ctx, dto.HTML(fmt.Sprintf("<pre>%s</pre>", html.EscapeString(output))))
		}
	}

	d.reportFindings(ctx, res.Warnings, res.Notes)
	d.reportFiles(ctx, res)

	if err == nil {
		url := d.archive(ctx, []byte(res.Document))
		d.publish(ctx, entities.Change{
			Type:      entities.ChangePublished,
			ActorID:   cmd.ActorID,
			Count:     countItems(res.Context),
			URL:       url,
			Timestamp: time.Now().UTC(),
		})
	}
}

// reportFiles posts a command line downloading all images and videos
func (d *Dispatcher) reportFiles(ctx context.Context, res *render.Result) {
	files := res.Files()
	if len(files) == 0 {
		return
	}
	d.reply(ctx, dto.HTML("Use this command to download all files:"))
	d.reply(ctx, dto.HTML(fmt.Sprintf("<pre><code>%s</code></pre>\n", html.EscapeString(render.DownloadCommand(d.Homeserver, files)))))
}

// archive stores the document when an archive is configured and returns its URL
func (d *Dispatcher) archive(ctx context.Context, doc []byte) string {
	if d.Archive == nil {
		return ""
	}

	name := fmt.Sprintf("%s-%s.md", time.Now().UTC().Format("2006-01-02"), uuid.NewString())
	url, err := d.Archive.Store(ctx, name, doc)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Failed to archive report")
		return ""
	}

	d.reply(ctx, dto.HTML(fmt.Sprintf(`📦 Report archived: <a href="%s">%s</a>`, url, html.EscapeString(name))))
	return url
}

func countItems(ctx render.Context) int {
	n := 0
	for _, s := range ctx.Sections {
		n += len(s.News)
		for _, p := range s.Projects {
			n += len(p.News)
		}
	}
	return n
}
