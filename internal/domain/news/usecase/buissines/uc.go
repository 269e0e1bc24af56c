// Package buissines contains business logic for the news domain
package buissines

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/haecker-felix/hebbot/config"
	"github.com/haecker-felix/hebbot/internal/domain/news/classifier"
	"github.com/haecker-felix/hebbot/internal/domain/news/commands"
	"github.com/haecker-felix/hebbot/internal/domain/news/deps"
	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
	"github.com/haecker-felix/hebbot/internal/domain/news/events"
	"github.com/haecker-felix/hebbot/internal/domain/news/persistence"
	"github.com/haecker-felix/hebbot/internal/domain/news/registry"
	"github.com/haecker-felix/hebbot/internal/domain/news/render"
	"github.com/haecker-felix/hebbot/internal/infrastructure/metrics"
)

// QueueSize is the number of raw events buffered ahead of the event loop
const QueueSize = 256

// ErrStopped is returned when events are handed to a stopped UseCase
var ErrStopped = errors.New("event loop stopped")

// ConfigSource provides the active bot configuration
type ConfigSource interface {
	Current() *config.Bot
	Initial() *config.LoadResult
}

// UseCase is the single writer of the news registry. All events, admin
// commands included, are processed one after another on its event loop.
type UseCase struct {
	config     ConfigSource
	normalizer *events.Normalizer
	classifier *classifier.Classifier
	registry   *registry.Registry
	writer     *persistence.Writer
	dispatcher *commands.Dispatcher
	publisher  deps.ChangePublisher
	sender     deps.Sender
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time

	queue  chan events.RawEvent
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewUseCase creates a new UseCase instance
// Note: sender is not passed here to break cyclic dependency
// Use SetSender after creating the Matrix sender
func NewUseCase(
	cfg ConfigSource,
	normalizer *events.Normalizer,
	classifier *classifier.Classifier,
	registry *registry.Registry,
	writer *persistence.Writer,
	dispatcher *commands.Dispatcher,
	publisher deps.ChangePublisher,
	logger zerolog.Logger,
) *UseCase {
	ctx, cancel := context.WithCancel(context.Background())

	uc := &UseCase{
		config:     cfg,
		normalizer: normalizer,
		classifier: classifier,
		registry:   registry,
		writer:     writer,
		dispatcher: dispatcher,
		publisher:  publisher,
		metrics:    metrics.GetDefaultMetrics(),
		logger:     logger.With().Str("component", "usecase").Logger(),
		now:        time.Now,
		queue:      make(chan events.RawEvent, QueueSize),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	writer.OnError(uc.onSnapshotError)
	return uc
}

// SetSender sets the Sender after construction
// This is called by fx.Invoke to resolve cyclic dependency
func (uc *UseCase) SetSender(sender deps.Sender) {
	uc.sender = sender
	uc.dispatcher.SetSender(sender)
}

// Restore loads the persisted snapshot into the registry. A snapshot that
// cannot be read fails startup.
func (uc *UseCase) Restore(ctx context.Context) error {
	snap, err := uc.writer.Load(ctx)
	if err != nil {
		return err
	}
	if err := uc.registry.Restore(snap); err != nil {
		return fmt.Errorf("restore registry: %w", err)
	}
	uc.metrics.UpdateNewsItems(uc.registry.Len())

	uc.logger.Info().Int("news_items", uc.registry.Len()).Msg("Registry restored")
	return nil
}

// Announce posts the startup notice and the configuration findings to the admin room
func (uc *UseCase) Announce(ctx context.Context) {
	uc.notifyAdmin(ctx, "✅ Started hebbot!", false)

	initial := uc.config.Initial()
	if initial == nil {
		return
	}
	if len(initial.Warnings) > 0 {
		uc.notifyAdmin(ctx, render.FormatMessages(true, initial.Warnings), true)
	}
	if len(initial.Notes) > 0 {
		uc.notifyAdmin(ctx, render.FormatMessages(false, initial.Notes), true)
	}
}

// HandleEvent queues a raw event for the event loop. Events are processed
// in the order they are queued.
func (uc *UseCase) HandleEvent(ctx context.Context, raw events.RawEvent) error {
	select {
	case uc.queue <- raw:
		return nil
	case <-uc.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start starts the event loop
func (uc *UseCase) Start() {
	uc.logger.Info().Msg("Starting event loop...")

	go func() {
		defer close(uc.done)
		for {
			select {
			case <-uc.ctx.Done():
				return
			case raw := <-uc.queue:
				uc.Process(uc.ctx, raw)
			}
		}
	}()
}

// Stop stops the event loop and waits for background renders
func (uc *UseCase) Stop(ctx context.Context) error {
	uc.logger.Info().Msg("Stopping event loop...")

	uc.cancel()
	select {
	case <-uc.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	finished := make(chan struct{})
	go func() {
		uc.dispatcher.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	uc.logger.Info().Int("queued", len(uc.queue)).Msg("Event loop stopped successfully")
	return nil
}

// Process handles one raw event to completion
func (uc *UseCase) Process(ctx context.Context, raw events.RawEvent) {
	e := uc.normalizer.Normalize(raw)
	uc.metrics.RecordEvent(events.Name(e))

	switch e := e.(type) {
	case nil:
		return
	case events.Submission:
		uc.handleSubmission(ctx, e)
	case events.SubmissionEdited:
		uc.handleEdit(ctx, e)
	case events.ReactionAdded:
		uc.handleReactionAdded(ctx, e)
	case events.ReactionRemoved:
		uc.handleReactionRemoved(ctx, e)
	case events.MediaPosted:
		uc.handleMedia(ctx, e)
	case events.Redaction:
		uc.handleRedaction(ctx, e)
	case events.AdminCommand:
		uc.dispatcher.Dispatch(ctx, e)
	}

	uc.metrics.UpdateNewsItems(uc.registry.Len())
}

// persist schedules a snapshot of the current registry state
func (uc *UseCase) persist() {
	uc.writer.Schedule(uc.registry.Snapshot())
}

func (uc *UseCase) publish(ctx context.Context, changeType entities.ChangeType, actorID string, item *entities.NewsItem) {
	change := entities.Change{
		Type:      changeType,
		ActorID:   actorID,
		Item:      item,
		Timestamp: uc.now().UTC(),
	}
	if item != nil {
		change.ItemID = item.ID
	}
	if err := uc.publisher.PublishChange(ctx, change); err != nil {
		uc.logger.Warn().Err(err).Str("type", string(changeType)).Msg("Failed to publish change")
	}
}

func (uc *UseCase) onSnapshotError(err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	uc.notifyAdmin(ctx, fmt.Sprintf("❌ Unable to write the news store, changes are kept in memory: %s", err), false)
}

func (uc *UseCase) notifyAdmin(ctx context.Context, text string, html bool) {
	uc.notify(ctx, uc.config.Current().AdminRoomID, text, html)
}

func (uc *UseCase) notifyReporting(ctx context.Context, text string) {
	uc.notify(ctx, uc.config.Current().ReportingRoomID, text, false)
}

func (uc *UseCase) notify(ctx context.Context, roomID, text string, html bool) {
	if uc.sender == nil {
		uc.logger.Error().Str("room_id", roomID).Msg("No sender configured, dropping notice")
		return
	}
	if err := uc.sender.SendNotice(ctx, roomID, text, html); err != nil {
		uc.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to send notice")
	}
}

func (uc *UseCase) react(ctx context.Context, eventID, key string) {
	if uc.sender == nil {
		return
	}
	roomID := uc.config.Current().ReportingRoomID
	if err := uc.sender.SendReaction(ctx, roomID, eventID, key); err != nil {
		uc.logger.Warn().Err(err).Str("event_id", eventID).Str("emoji", key).Msg("Failed to send suggestion reaction")
	}
}
