// Package state keeps per-user conversation data for Telegram bots.
// Stores are generic over the stored value so the bot decides what a session holds.
package state
