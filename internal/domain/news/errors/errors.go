// Package errors contains domain-specific errors for the news domain
package errors

import (
	"fmt"
	"html"

	pkgerrors "github.com/haecker-felix/hebbot/pkg/errors"
)

// Domain errors for news operations. Messages of user-facing errors are sent
// to the admin room verbatim.
var (
	ErrPermissionDenied   = pkgerrors.NewPermissionError("You don’t have the permission to use commands.")
	ErrUnknownCommand     = pkgerrors.NewValidationError("Unrecognized command. Use !help to list available commands.")
	ErrNoPublishCommand   = pkgerrors.NewValidationError("⚠️ No publish_command configured. Will not perform any action.")
	ErrSnapshotCorrupt    = pkgerrors.NewInternalError("snapshot is corrupt")
	ErrSnapshotWrite      = pkgerrors.NewInternalError("snapshot write failed")
	ErrRenderFailed       = pkgerrors.NewInternalError("render failed")
	ErrUploadFailed       = pkgerrors.NewInternalError("upload failed")
	ErrCommandFailed      = pkgerrors.NewInternalError("external command failed")
	ErrConfigReloadFailed = pkgerrors.NewInternalError("configuration reload failed")
	ErrMatrixAPI          = pkgerrors.NewInternalError("matrix API error")
	ErrKafkaProducer      = pkgerrors.NewInternalError("kafka producer error")
)

// Usage returns the usage error for a command that takes an argument
func Usage(command, argument string) error {
	return pkgerrors.NewValidationError(fmt.Sprintf("❌ Usage: !%s \"%s\"", command, argument))
}

// DetailsNotFound returns the error for a details lookup without a match
func DetailsNotFound(term string) error {
	return pkgerrors.NewNotFoundError(fmt.Sprintf("❌ Unable to find details for ”%s”.", html.EscapeString(term)))
}
