package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are rejected for everyone but the configured admin.
	AdminOnly bool
	// Hidden commands are routed but left out of the Telegram command menu.
	Hidden bool
	// Aliases are matched case-insensitively against plain text, with or without a slash.
	Aliases []string
}
