// Package consts contains constants for the news domain
package consts

// Command represents an admin room command
type Command struct {
	Name        string
	Argument    string
	Description string
}

// Admin commands
var (
	CommandAbout        = Command{Name: "about", Description: "Show version information"}
	CommandClear        = Command{Name: "clear", Description: "Remove all news entries"}
	CommandDetails      = Command{Name: "details", Argument: "term", Description: "Show details of a section or project"}
	CommandHelp         = Command{Name: "help", Description: "List available commands"}
	CommandListConfig   = Command{Name: "list-config", Description: "Show the active configuration"}
	CommandListProjects = Command{Name: "list-projects", Description: "List configured projects"}
	CommandListSections = Command{Name: "list-sections", Description: "List configured sections"}
	CommandPublish      = Command{Name: "publish", Description: "Render and pass the report to the publish command"}
	CommandRender       = Command{Name: "render", Description: "Render the report"}
	CommandRestart      = Command{Name: "restart", Description: "Restart the bot"}
	CommandSay          = Command{Name: "say", Argument: "message", Description: "Post a message to the reporting room"}
	CommandStatus       = Command{Name: "status", Description: "Show the collected news entries"}
	CommandUpdateConfig = Command{Name: "update-config", Description: "Update and reload the configuration"}
)

// AllCommands lists every admin command in help order
var AllCommands = []Command{
	CommandAbout,
	CommandClear,
	CommandDetails,
	CommandHelp,
	CommandListConfig,
	CommandListProjects,
	CommandListSections,
	CommandPublish,
	CommandRender,
	CommandRestart,
	CommandSay,
	CommandStatus,
	CommandUpdateConfig,
}

// CommandPrefix starts every admin command
const CommandPrefix = "!"

// RestartExitCode is the process exit code requesting a restart from the supervisor
const RestartExitCode = 75

// ReportingRoomLink formats the matrix.to link of an event in the reporting room
const ReportingRoomLink = `<a href="https://matrix.to/#/%s/%s">open message</a>`
