// Package dto contains data transfer objects for the news domain
package dto

// CommandResponse is the admin room reply to a command
type CommandResponse struct {
	Message string
	// HTML marks Message as formatted body
	HTML bool
}

// Plain returns a plain text response
func Plain(message string) *CommandResponse {
	return &CommandResponse{Message: message}
}

// HTML returns a formatted response
func HTML(message string) *CommandResponse {
	return &CommandResponse{Message: message, HTML: true}
}
