// Package matrix contains Matrix homeserver infrastructure
package matrix

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"

	"github.com/haecker-felix/hebbot/config"
)

// Client wraps the mautrix client for the infrastructure layer
type Client struct {
	client *mautrix.Client
	cfg    *config.MatrixConfig
	logger zerolog.Logger
}

// NewClient creates a new Matrix client wrapper. Nothing is sent to the
// homeserver until Login.
func NewClient(cfg *config.MatrixConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.HomeserverURL == "" {
		return nil, fmt.Errorf("matrix homeserver url is required")
	}

	client, err := mautrix.NewClient(cfg.HomeserverURL, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix client: %w", err)
	}

	return &Client{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "matrix_client").Logger(),
	}, nil
}

// Raw returns the underlying mautrix client for handler registration
func (c *Client) Raw() *mautrix.Client {
	return c.client
}

// Syncer returns the default syncer of the client
func (c *Client) Syncer() (*mautrix.DefaultSyncer, error) {
	syncer, ok := c.client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return nil, errors.New("matrix client has no default syncer")
	}
	return syncer, nil
}

// Homeserver returns the homeserver base url without trailing slash
func (c *Client) Homeserver() string {
	return strings.TrimSuffix(c.client.HomeserverURL.String(), "/")
}

// UserID returns the user id the client is logged in as
func (c *Client) UserID() string {
	return c.client.UserID.String()
}

// Login authenticates with the password, or verifies the configured access token
func (c *Client) Login(ctx context.Context) error {
	if c.cfg.AccessToken != "" {
		resp, err := c.client.Whoami(ctx)
		if err != nil {
			return fmt.Errorf("failed to verify access token: %w", err)
		}
		c.client.UserID = resp.UserID
		c.client.DeviceID = resp.DeviceID

		c.logger.Info().Str("user_id", resp.UserID.String()).Msg("Logged in with access token")
		return nil
	}

	resp, err := c.client.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: c.cfg.UserID,
		},
		Password:                 c.cfg.Password,
		InitialDeviceDisplayName: c.cfg.DeviceName,
		StoreCredentials:         true,
	})
	if err != nil {
		return fmt.Errorf("failed to log in as %s: %w", c.cfg.UserID, err)
	}

	c.logger.Info().
		Str("user_id", resp.UserID.String()).
		Str("device_id", resp.DeviceID.String()).
		Msg("Logged in with password")
	return nil
}

// JoinRooms joins the given rooms. Rooms the bot already is in are no-ops on the homeserver.
func (c *Client) JoinRooms(ctx context.Context, roomIDs ...string) error {
	for _, roomID := range roomIDs {
		if _, err := c.client.JoinRoomByID(ctx, id.RoomID(roomID)); err != nil {
			return fmt.Errorf("failed to join room %s: %w", roomID, err)
		}
		c.logger.Info().Str("room_id", roomID).Msg("Joined room")
	}
	return nil
}

// DisplayName returns the global display name of the logged in user
func (c *Client) DisplayName(ctx context.Context) (string, error) {
	resp, err := c.client.GetOwnDisplayName(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get display name: %w", err)
	}
	return resp.DisplayName, nil
}

// Start runs the sync loop (blocking call)
func (c *Client) Start(ctx context.Context) error {
	c.logger.Info().Msg("Starting Matrix sync...")

	err := c.client.SyncWithContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error().Err(err).Msg("Matrix sync stopped with error")
		return err
	}

	c.logger.Info().Msg("Matrix sync stopped")
	return nil
}

// Stop stops the sync loop
func (c *Client) Stop() error {
	c.logger.Info().Msg("Stopping Matrix sync...")
	c.client.StopSync()
	return nil
}
