package commands

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/consts"
	"github.com/haecker-felix/hebbot/internal/domain/news/dto"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	newserrors "github.com/haecker-felix/hebbot/internal/domain/news/errors"
	"github.com/haecker-felix/hebbot/internal/domain/news/events"
	"github.com/haecker-felix/hebbot/internal/domain/news/render"
	"github.com/haecker-felix/hebbot/pkg/buildinfo"
	pkgerrors "github.com/haecker-felix/hebbot/pkg/errors"
)

// strict strips markup from reporter text quoted in admin notices
var strict = bluemonday.StrictPolicy()

func (d *Dispatcher) handleAbout(_ context.Context, _ events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	info := buildinfo.Read()
	msg := fmt.Sprintf(
		"You are running hebbot version %s (commit %s, built %s, %s)<br>"+
			`<a href="https://github.com/haecker-felix/hebbot/">Open Homepage</a> | `+
			`<a href="https://github.com/haecker-felix/hebbot/issues/new">Report Issue</a>`,
		info.Version, info.Commit, info.Date, info.Go,
	)
	return dto.HTML(msg), nil
}

func (d *Dispatcher) handleClear(ctx context.Context, cmd events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	n := d.Registry.Clear()
	d.Writer.Schedule(d.Registry.Snapshot())
	if err := d.Writer.Flush(ctx); err != nil {
		return nil, pkgerrors.WrapInternal(fmt.Sprintf("❌ Cleared %d news entries, but the store could not be written: %s", n, html.EscapeString(err.Error())), err)
	}

	d.publish(ctx, entities.Change{Type: entities.ChangeCleared, ActorID: cmd.ActorID, Count: n})
	return dto.Plain(fmt.Sprintf("✅ Cleared %d news entries!", n)), nil
}

func (d *Dispatcher) handleDetails(_ context.Context, _ events.AdminCommand, inv Invocation) (*dto.CommandResponse, error) {
	term := strings.TrimSpace(inv.Argument)
	if term == "" {
		return nil, usage(inv.Name)
	}

	bot := d.Config.Current()
	if p, ok := bot.ProjectByKey(term); ok {
		return dto.HTML(projectDetails(p)), nil
	}
	if s, ok := bot.SectionByKey(term); ok {
		return dto.HTML(sectionDetails(bot, s)), nil
	}

	// Only section and project emoji are lookup terms
	if action, ok := d.Actions.Lookup(term); ok {
		switch action.Kind {
		case entities.ActionAssignProject:
			if p, ok := bot.ProjectByKey(action.Key); ok {
				return dto.HTML(projectDetails(p)), nil
			}
		case entities.ActionAssignSection:
			if s, ok := bot.SectionByKey(action.Key); ok {
				return dto.HTML(sectionDetails(bot, s)), nil
			}
		}
	}

	return nil, newserrors.DetailsNotFound(term)
}

func projectDetails(p config.Project) string {
	return fmt.Sprintf(
		"<b>Project Details</b><br>"+
			"<b>Emoji</b>: %s <br>"+
			"<b>Name</b>: %s (%s) <br>"+
			"<b>Description</b>: %s <br>"+
			"<b>Website</b>: %s <br>"+
			"<b>Section</b>: %s <br>"+
			"<b>Usual reporters</b>: %s",
		p.Emoji, p.Title, p.Key, html.EscapeString(p.Description), p.Website, p.Section,
		strings.Join(p.UsualReporters, ", "),
	)
}

func sectionDetails(bot *config.Bot, s config.Section) string {
	return fmt.Sprintf(
		"<b>Section Details</b><br>"+
			"<b>Emoji</b>: %s <br>"+
			"<b>Name</b>: %s (%s) <br>"+
			"<b>Projects</b>: %s <br>"+
			"<b>Reporters</b>: %s",
		s.Emoji, s.Title, s.Key,
		strings.Join(bot.SectionProjects(s.Key), ", "),
		strings.Join(s.UsualReporters, ", "),
	)
}

func (d *Dispatcher) handleHelp(_ context.Context, _ events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	var b strings.Builder
	b.WriteString("Available commands: \n\n")
	for _, c := range consts.AllCommands {
		b.WriteString(consts.CommandPrefix + c.Name)
		if c.Argument != "" {
			fmt.Fprintf(&b, " \"%s\"", c.Argument)
		}
		fmt.Fprintf(&b, " - %s\n", c.Description)
	}
	return dto.Plain(strings.TrimSuffix(b.String(), "\n")), nil
}

func (d *Dispatcher) handleListConfig(_ context.Context, _ events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	doc, err := d.Config.Current().YAML()
	if err != nil {
		return nil, pkgerrors.WrapInternal("❌ Unable to show the configuration.", err)
	}
	return dto.HTML(fmt.Sprintf("<pre><code>%s</code></pre>\n", html.EscapeString(doc))), nil
}

func (d *Dispatcher) handleListProjects(_ context.Context, _ events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	var b strings.Builder
	for _, p := range d.Config.Current().Projects {
		fmt.Fprintf(&b, "%s: %s - %s (%s)\n", p.Emoji, p.Title, p.Description, p.Website)
	}
	return dto.HTML(fmt.Sprintf("List of projects:\n<pre><code>%s</code></pre>\n", html.EscapeString(b.String()))), nil
}

func (d *Dispatcher) handleListSections(_ context.Context, _ events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	var b strings.Builder
	for _, s := range d.Config.Current().Sections {
		fmt.Fprintf(&b, "%s: %s\n", s.Emoji, s.Title)
	}
	return dto.HTML(fmt.Sprintf("List of sections:\n<pre><code>%s</code></pre>\n", html.EscapeString(b.String()))), nil
}

func (d *Dispatcher) handleRestart(ctx context.Context, _ events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	d.reply(ctx, dto.Plain("Restarting hebbot…"))

	if err := d.Writer.Flush(ctx); err != nil {
		d.logger.Error().Err(err).Msg("Last snapshot write failed before restart")
	}
	if err := d.Restarter.Restart(); err != nil {
		return nil, pkgerrors.WrapInternal("❌ Unable to restart.", err)
	}
	return nil, nil
}

func (d *Dispatcher) handleSay(ctx context.Context, _ events.AdminCommand, inv Invocation) (*dto.CommandResponse, error) {
	if strings.TrimSpace(inv.Argument) == "" {
		return nil, usage(inv.Name)
	}

	if d.sender == nil {
		return nil, newserrors.ErrMatrixAPI
	}
	if err := d.sender.SendText(ctx, d.Config.Current().ReportingRoomID, inv.Argument); err != nil {
		return nil, pkgerrors.WrapInternal("❌ Unable to post the message to the reporting room.", err)
	}
	return nil, nil
}

func (d *Dispatcher) handleStatus(_ context.Context, _ events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	bot := d.Config.Current()
	items := d.Registry.Items()

	var assigned, unassigned strings.Builder
	var assignedCount, unassignedCount int

	for _, n := range items {
		link := fmt.Sprintf(consts.ReportingRoomLink, bot.ReportingRoomID, n.ID)
		line := fmt.Sprintf("- [%s] %s: %s%s <br>", link, n.ReporterID, strict.Sanitize(n.Summary()), classification(n))

		if n.IsAssigned() {
			assignedCount++
			assigned.WriteString(line)
		} else {
			unassignedCount++
			unassigned.WriteString(line)
		}
	}

	msg := fmt.Sprintf(
		"%d news entries in total <br><br>"+
			"✅ Assigned news entries: (%d): <br>%s <br>"+
			"❌ Unassigned / ignored news entries (%d): <br>%s",
		len(items), assignedCount, assigned.String(), unassignedCount, unassigned.String(),
	)
	return dto.HTML(msg), nil
}

// classification describes the state of an item in status listings
func classification(n entities.NewsItem) string {
	var parts []string
	if n.Approved {
		parts = append(parts, "approved")
	}
	if n.SectionKey != "" {
		parts = append(parts, "section "+n.SectionKey)
	}
	if n.ProjectKey != "" {
		parts = append(parts, "project "+n.ProjectKey)
	}
	if n.ThirdParty {
		parts = append(parts, "third party")
	}
	if media := len(n.Images) + len(n.Videos); media > 0 {
		parts = append(parts, fmt.Sprintf("%d media", media))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func (d *Dispatcher) handleUpdateConfig(ctx context.Context, _ events.AdminCommand, _ Invocation) (*dto.CommandResponse, error) {
	d.reply(ctx, dto.HTML("Updating bot configuration…"))

	var output string
	if command := d.Config.Current().UpdateConfigCommand; command != "" {
		out, err := d.Runner.Run(ctx, command, nil)
		if err != nil {
			d.logger.Error().Err(err).Str("output", out).Msg("Update command failed")
			return nil, pkgerrors.WrapInternal("❌ Unable to run update command. Check bot logs for more details.", fmt.Errorf("%w: %w", newserrors.ErrCommandFailed, err))
		}
		output = out
	}

	res, err := d.Config.Reload()
	if err != nil {
		return nil, pkgerrors.WrapInternal(
			fmt.Sprintf("❌ Unable to reload the configuration, the previous one stays active: <pre>%s</pre>", html.EscapeString(err.Error())),
			fmt.Errorf("%w: %w", newserrors.ErrConfigReloadFailed, err),
		)
	}

	refolded := d.Registry.Refold()
	if refolded > 0 {
		d.Writer.Schedule(d.Registry.Snapshot())
	}

	d.logger.Info().
		Int("warnings", len(res.Warnings)).
		Int("notes", len(res.Notes)).
		Int("news_items", refolded).
		Msg("Configuration reloaded")

	msg := "✅ Updated bot configuration!"
	if output != "" {
		msg += fmt.Sprintf("<br><pre><code>%s</code></pre>", html.EscapeString(output))
	}
	d.reply(ctx, dto.HTML(msg))
	d.reportFindings(ctx, res.Warnings, res.Notes)
	return nil, nil
}

func (d *Dispatcher) reportFindings(ctx context.Context, warnings, notes []string) {
	if len(warnings) > 0 {
		d.reply(ctx, dto.HTML(render.FormatMessages(true, warnings)))
	}
	if len(notes) > 0 {
		d.reply(ctx, dto.HTML(render.FormatMessages(false, notes)))
	}
}
