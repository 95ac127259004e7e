// ABOUTME: Thread metadata for listing and display
// ABOUTME: Titles derive from the first user message, truncated for sidebar-style listings
package models

import (
	"strings"
	"time"
)

// DefaultThreadTitle is shown for threads with no user message yet.
const DefaultThreadTitle = "New Chat"

// titleMaxRunes bounds the derived thread title length.
const titleMaxRunes = 40

// ThreadInfo summarizes one conversation thread.
type ThreadInfo struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	TurnCount int       `json:"turn_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ThreadTitle derives a display title from a thread's first user message.
func ThreadTitle(firstUserMessage string) string {
	title := strings.TrimSpace(firstUserMessage)
	if title == "" {
		return DefaultThreadTitle
	}
	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	return title
}
