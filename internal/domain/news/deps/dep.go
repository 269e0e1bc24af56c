// Package deps contains interface definitions for the news domain dependencies
package deps

import (
	"context"

	"github.com/haecker-felix/hebbot/internal/domain/news/entities"
)

// SnapshotStore persists registry snapshots
type SnapshotStore interface {
	// Load returns the stored snapshot. found is false when nothing was stored yet.
	Load(ctx context.Context) (snap entities.Snapshot, found bool, err error)

	// Save replaces the stored snapshot atomically
	Save(ctx context.Context, snap entities.Snapshot) error
}

// ChangePublisher publishes accepted registry changes to other systems
type ChangePublisher interface {
	PublishChange(ctx context.Context, change entities.Change) error
}

// Sender posts to the chat rooms
// This interface is used to break the cyclic dependency between UseCase and the Matrix delivery
type Sender interface {
	// SendText sends a plain text message
	SendText(ctx context.Context, roomID, text string) error

	// SendNotice sends a notice. When html is set, text is sent as formatted body.
	SendNotice(ctx context.Context, roomID, text string, html bool) error

	// SendReaction reacts to an event with key
	SendReaction(ctx context.Context, roomID, eventID, key string) error

	// SendFile uploads data and posts it as a file message
	SendFile(ctx context.Context, roomID, filename, contentType string, data []byte) error
}

// RenderArchive keeps rendered documents outside the chat
type RenderArchive interface {
	// Store saves a document and returns a URL operators can open
	Store(ctx context.Context, name string, data []byte) (url string, err error)
}

// CommandRunner runs operator-configured shell commands
type CommandRunner interface {
	// Run executes command with stdin and returns its combined output
	Run(ctx context.Context, command string, stdin []byte) (output string, err error)
}

// Restarter ends the process so that its supervisor starts it again
type Restarter interface {
	Restart() error
}
