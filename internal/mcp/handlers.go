// ABOUTME: MCP tool handler implementations for the chatkit server
// ABOUTME: Wraps engine operations with proper error handling over MCP
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/akshith/chatkit/internal/engine"
	"github.com/akshith/chatkit/internal/log"
	"github.com/akshith/chatkit/internal/models"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	engine *engine.Engine
	logger log.Logger
}

// SendMessage handles the send_message tool
func (h *Handlers) SendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}

	threadKey := request.GetString("thread_key", "")
	created := false
	if threadKey == "" {
		threadKey = h.engine.CreateThread()
		created = true
	}

	final, err := h.engine.SubmitUserMessage(ctx, threadKey, message)
	if err != nil && !errors.Is(err, engine.ErrToolLoopExceeded) {
		return mcp.NewToolResultError(fmt.Sprintf("message failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"thread_key":     threadKey,
		"thread_created": created,
		"answer":         final.Content.PlainText(),
	}
	if errors.Is(err, engine.ErrToolLoopExceeded) {
		response["degraded"] = true
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}

// ListThreads handles the list_threads tool
func (h *Handlers) ListThreads(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := h.engine.Threads()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list threads: %v", err)), nil
	}

	threads := make([]map[string]interface{}, 0, len(infos))
	for _, info := range infos {
		threads = append(threads, map[string]interface{}{
			"thread_key": info.Key,
			"title":      info.Title,
			"turn_count": info.TurnCount,
			"created_at": info.CreatedAt.Format(time.RFC3339),
			"updated_at": info.UpdatedAt.Format(time.RFC3339),
		})
	}

	response := map[string]interface{}{
		"threads": threads,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}

// GetHistory handles the get_history tool
func (h *Handlers) GetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadKey, err := request.RequireString("thread_key")
	if err != nil {
		return mcp.NewToolResultError("thread_key argument is required and must be a string"), nil
	}

	includeTools := request.GetBool("include_tool_calls", false)

	var history []models.Turn
	if includeTools {
		history, err = h.engine.GetFullHistory(threadKey)
	} else {
		history, err = h.engine.GetHistory(threadKey)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get history: %v", err)), nil
	}

	turns := make([]map[string]interface{}, 0, len(history))
	for _, turn := range history {
		entry := map[string]interface{}{
			"seq":       turn.Seq,
			"role":      string(turn.Role),
			"content":   turn.Content.PlainText(),
			"timestamp": turn.Timestamp.Format(time.RFC3339),
		}
		if len(turn.ToolCalls) > 0 {
			entry["tool_calls"] = turn.ToolCalls
		}
		if turn.ToolName != "" {
			entry["tool_name"] = turn.ToolName
		}
		turns = append(turns, entry)
	}

	response := map[string]interface{}{
		"thread_key": threadKey,
		"turns":      turns,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}

// UploadDocument handles the upload_document tool
func (h *Handlers) UploadDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadKey, err := request.RequireString("thread_key")
	if err != nil {
		return mcp.NewToolResultError("thread_key argument is required and must be a string"), nil
	}
	filename, err := request.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError("filename argument is required and must be a string"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required and must be a string"), nil
	}

	stats, err := h.engine.UploadDocument(ctx, threadKey, []byte(content), filename)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("upload failed: %v", err)), nil
	}

	h.logger.Info("document uploaded over mcp", "thread", threadKey, "file", filename, "chunks", stats.Chunks)

	response := map[string]interface{}{
		"thread_key":     threadKey,
		"filename":       filename,
		"document_count": stats.Documents,
		"chunk_count":    stats.Chunks,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}
