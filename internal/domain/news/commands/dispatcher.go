// Package commands executes the admin room commands
package commands

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/consts"
	"github.com/haecker-felix/hebbot/internal/domain/news/deps"
	"github.com/haecker-felix/hebbot/internal/domain/news/dto"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	newserrors "github.com/haecker-felix/hebbot/internal/domain/news/errors"
	"github.com/haecker-felix/hebbot/internal/domain/news/events"
	"github.com/haecker-felix/hebbot/internal/domain/news/render"
	pkgerrors "github.com/haecker-felix/hebbot/pkg/errors"
)

// BackgroundTimeout bounds a render or publish running after its command returned
const BackgroundTimeout = 5 * time.Minute

// ConfigHolder provides and reloads the bot configuration
type ConfigHolder interface {
	Current() *config.Bot
	Reload() (*config.LoadResult, error)
}

// Registry is the part of the news registry commands use
type Registry interface {
	Items() []entities.NewsItem
	Clear() int
	Snapshot() entities.Snapshot
	Refold() int
}

// SnapshotWriter persists registry snapshots
type SnapshotWriter interface {
	Schedule(snap entities.Snapshot)
	Flush(ctx context.Context) error
}

// Renderer renders snapshots into reports
type Renderer interface {
	Render(bot *config.Bot, snap entities.Snapshot, author string) (*render.Result, error)
}

// ActionLookup resolves emoji to configured actions
type ActionLookup interface {
	Lookup(key string) (entities.Action, bool)
}

// Recorder receives command statistics
type Recorder interface {
	RecordCommand(command, result string)
	RecordRender(duration float64, err error)
}

// Params holds the collaborators of a Dispatcher
type Params struct {
	Config    ConfigHolder
	Registry  Registry
	Writer    SnapshotWriter
	Renderer  Renderer
	Actions   ActionLookup
	Runner    deps.CommandRunner
	Restarter deps.Restarter
	Publisher deps.ChangePublisher
	// Archive is optional
	Archive deps.RenderArchive
	// Homeserver is used for media download links
	Homeserver  string
	HTMLPreview bool
	Recorder    Recorder
	Logger      zerolog.Logger
}

type handler func(ctx context.Context, cmd events.AdminCommand, inv Invocation) (*dto.CommandResponse, error)

// Dispatcher authorizes and executes admin commands. Dispatch must be called
// from the event loop; only render and publish continue in the background.
type Dispatcher struct {
	Params
	sender   deps.Sender
	handlers map[string]handler
	logger   zerolog.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher
// Note: sender is not passed here to break cyclic dependency
// Use SetSender after creating the Matrix sender
func NewDispatcher(p Params) *Dispatcher {
	d := &Dispatcher{
		Params: p,
		logger: p.Logger.With().Str("component", "commands").Logger(),
	}
	d.registerCommands()
	return d
}

// SetSender sets the Sender after construction
func (d *Dispatcher) SetSender(sender deps.Sender) {
	d.sender = sender
}

func (d *Dispatcher) registerCommands() {
	d.handlers = map[string]handler{
		consts.CommandAbout.Name:        d.handleAbout,
		consts.CommandClear.Name:        d.handleClear,
		consts.CommandDetails.Name:      d.handleDetails,
		consts.CommandHelp.Name:         d.handleHelp,
		consts.CommandListConfig.Name:   d.handleListConfig,
		consts.CommandListProjects.Name: d.handleListProjects,
		consts.CommandListSections.Name: d.handleListSections,
		consts.CommandPublish.Name:      d.handlePublish,
		consts.CommandRender.Name:       d.handleRender,
		consts.CommandRestart.Name:      d.handleRestart,
		consts.CommandSay.Name:          d.handleSay,
		consts.CommandStatus.Name:       d.handleStatus,
		consts.CommandUpdateConfig.Name: d.handleUpdateConfig,
	}

	d.logger.Debug().Int("commands", len(d.handlers)).Msg("All admin command handlers registered")
}

// Dispatch executes one admin command and replies in the admin room
func (d *Dispatcher) Dispatch(ctx context.Context, cmd events.AdminCommand) {
	bot := d.Config.Current()
	inv, parsed := Parse(cmd.Raw)

	log := d.logger.With().
		Str("actor_id", cmd.ActorID).
		Str("command", inv.Name).
		Logger()

	if !bot.IsEditor(cmd.ActorID) {
		log.Warn().Msg("Command from non-editor rejected")
		d.record(inv.Name, "denied")
		d.reply(ctx, dto.Plain(pkgerrors.MessageOf(newserrors.ErrPermissionDenied)))
		return
	}

	h, ok := d.handlers[inv.Name]
	if !ok {
		log.Info().Msg("Unrecognized command")
		d.record("", "unknown")
		d.reply(ctx, dto.Plain(pkgerrors.MessageOf(newserrors.ErrUnknownCommand)))
		return
	}

	if !parsed {
		d.replyError(ctx, log, inv.Name, usage(inv.Name))
		return
	}

	log.Info().Str("argument", inv.Argument).Msg("Received command")

	resp, err := h(ctx, cmd, inv)
	if err != nil {
		d.replyError(ctx, log, inv.Name, err)
		return
	}

	d.record(inv.Name, "ok")
	if resp != nil {
		d.reply(ctx, resp)
	}
}

// Wait blocks until background renders and publishes have finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) replyError(ctx context.Context, log zerolog.Logger, command string, err error) {
	switch pkgerrors.TypeOf(err) {
	case pkgerrors.ErrorTypeInternal:
		log.Error().Err(err).Msg("Command failed")
		d.record(command, "error")
	default:
		log.Info().Err(err).Msg("Command rejected")
		d.record(command, "rejected")
	}
	d.reply(ctx, dto.HTML(pkgerrors.MessageOf(err)))
}

func (d *Dispatcher) reply(ctx context.Context, resp *dto.CommandResponse) {
	d.send(ctx, d.Config.Current().AdminRoomID, resp)
}

func (d *Dispatcher) send(ctx context.Context, roomID string, resp *dto.CommandResponse) {
	if d.sender == nil {
		d.logger.Error().Msg("No sender configured, dropping reply")
		return
	}
	if err := d.sender.SendNotice(ctx, roomID, resp.Message, resp.HTML); err != nil {
		d.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to send reply")
	}
}

func (d *Dispatcher) record(command, result string) {
	if d.Recorder != nil {
		d.Recorder.RecordCommand(command, result)
	}
}

func (d *Dispatcher) publish(ctx context.Context, change entities.Change) {
	if d.Publisher == nil {
		return
	}
	if err := d.Publisher.PublishChange(ctx, change); err != nil {
		d.logger.Warn().Err(err).Str("type", string(change.Type)).Msg("Failed to publish change")
	}
}

// usage returns the usage error of a command
func usage(name string) error {
	for _, c := range consts.AllCommands {
		if c.Name == name {
			return newserrors.Usage(c.Name, c.Argument)
		}
	}
	return newserrors.ErrUnknownCommand
}
