// ABOUTME: MCP tool definitions and registration for the chatkit server
// ABOUTME: Defines JSON schemas for the conversation and document tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/akshith/chatkit/internal/engine"
	"github.com/akshith/chatkit/internal/log"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, eng *engine.Engine, logger log.Logger) *Handlers {
	handlers := &Handlers{
		engine: eng,
		logger: logger,
	}

	// 1. send_message - Send a message to a conversation thread
	server.AddTool(mcp.Tool{
		Name:        "send_message",
		Description: "Send a message to a conversation thread and get the assistant's answer. Creates a new thread when thread_key is omitted.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "User message to send",
				},
				"thread_key": map[string]interface{}{
					"type":        "string",
					"description": "Existing thread to continue. Omit to start a new thread.",
				},
			},
			Required: []string{"message"},
		},
	}, handlers.SendMessage)

	// 2. list_threads - List all conversation threads
	server.AddTool(mcp.Tool{
		Name:        "list_threads",
		Description: "List all conversation threads with their titles and turn counts, most recent first.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListThreads)

	// 3. get_history - Get the conversation history for a thread
	server.AddTool(mcp.Tool{
		Name:        "get_history",
		Description: "Get the conversation history for a thread. By default returns only user messages and final answers; set include_tool_calls for the full trace.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"thread_key": map[string]interface{}{
					"type":        "string",
					"description": "Thread to read history from",
				},
				"include_tool_calls": map[string]interface{}{
					"type":        "boolean",
					"description": "Include tool requests and results (default: false)",
					"default":     false,
				},
			},
			Required: []string{"thread_key"},
		},
	}, handlers.GetHistory)

	// 4. upload_document - Attach a document to a thread for retrieval
	server.AddTool(mcp.Tool{
		Name:        "upload_document",
		Description: "Upload a plain-text document to a thread. The assistant can then answer questions about it. Replaces any previously uploaded document.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"thread_key": map[string]interface{}{
					"type":        "string",
					"description": "Thread the document belongs to",
				},
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Name of the document file",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Plain-text content of the document",
				},
			},
			Required: []string{"thread_key", "filename", "content"},
		},
	}, handlers.UploadDocument)

	return handlers
}
