// ABOUTME: Content is a tagged variant over plain text and structured blocks
// ABOUTME: Normalization to display text happens here, once, not at every consumer
package models

import (
	"encoding/json"
	"strings"
)

// ContentBlock is one element of structured content.
type ContentBlock struct {
	Type string          `json:"type"`
	Text string          `json:"text,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Content is either plain text or an ordered sequence of typed blocks.
// Exactly one of the two forms is populated.
type Content struct {
	text   string
	blocks []ContentBlock
}

// Text wraps a plain string as Content.
func Text(s string) Content {
	return Content{text: s}
}

// Blocks wraps structured blocks as Content.
func Blocks(blocks ...ContentBlock) Content {
	return Content{blocks: blocks}
}

// IsBlocks reports whether the content is in block form.
func (c Content) IsBlocks() bool {
	return c.blocks != nil
}

// IsEmpty reports whether the content carries no displayable text.
func (c Content) IsEmpty() bool {
	return strings.TrimSpace(c.PlainText()) == ""
}

// PlainText normalizes the content to a single display string. Block
// content joins the text of each block with newlines; non-text blocks
// are skipped.
func (c Content) PlainText() string {
	if c.blocks == nil {
		return c.text
	}
	var parts []string
	for _, b := range c.blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// MarshalJSON encodes text content as a JSON string and block content
// as a JSON array, mirroring the wire shapes chat APIs use.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.blocks != nil {
		return json.Marshal(c.blocks)
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON is the single place the text-or-blocks shape is decided.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var blocks []ContentBlock
		if err := json.Unmarshal(data, &blocks); err != nil {
			return err
		}
		*c = Content{blocks: blocks}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Content{text: s}
	return nil
}
