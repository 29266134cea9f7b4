// Package ui holds contracts between the transport core and the bot's own screens.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider answers updates no route claims: free text while no
// conversation is running, and buttons without a registered handler.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
