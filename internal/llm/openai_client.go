// ABOUTME: OpenAI-backed turn executor and embedding client
// ABOUTME: Maps conversation turns to chat completions with tool declarations, with retry
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/akshith/chatkit/internal/models"
	"github.com/akshith/chatkit/internal/tools"
	"github.com/akshith/chatkit/internal/util"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
)

// DefaultSystemPrompt frames the assistant and its tool use.
const DefaultSystemPrompt = "You are a helpful assistant. Use the available tools when they can " +
	"answer the user's question more accurately than you can alone. When a document has been " +
	"uploaded to the conversation, prefer the retrieve_document tool for questions about it."

// StreamHandler receives content fragments in emission order. Returning an
// error stops the stream; the fragment is not retried. An alias so callers
// can declare the same shape without importing this package.
type StreamHandler = func(fragment string) error

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	SystemPrompt   string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// BaseURL overrides the API endpoint. Empty means the OpenAI default.
	// Tests point this at a local server.
	BaseURL string
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: string(DefaultEmbeddingModel),
		SystemPrompt:   DefaultSystemPrompt,
		Timeout:        60 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
	}
}

// Client wraps the OpenAI API with retry logic. It is stateless: a pure
// mapping from (history, tool declarations) to the next turn.
type Client struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	systemPrompt   string
	timeout        time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

// NewClient creates a new OpenAI client with default configuration
func NewClient(apiKey string) (*Client, error) {
	return NewClientWithConfig(DefaultConfig(apiKey))
}

// NewClientWithConfig creates a new OpenAI client with custom configuration
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embeddingModel := openai.EmbeddingModel(config.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}

	return &Client{
		client:         openai.NewClientWithConfig(apiConfig),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		systemPrompt:   config.SystemPrompt,
		timeout:        timeout,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
	}, nil
}

// Next presents the turn history and tool declarations to the model and
// returns the next assistant turn: either final content or tool call
// requests.
func (c *Client) Next(ctx context.Context, turns []models.Turn, specs []tools.Spec) (*models.Turn, error) {
	request := openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: c.toMessages(turns),
		Tools:    toToolDeclarations(specs),
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(util.CalculateBackoff(c.retryDelay, attempt)):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateChatCompletion(attemptCtx, request)
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: no choices returned", attempt+1)
			continue
		}

		return fromMessage(resp.Choices[0].Message), nil
	}

	return nil, fmt.Errorf("chat completion failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// NextStreaming is the streaming variant of Next. Content fragments are
// handed to fn in emission order; the accumulated final turn is returned
// when the stream ends. Single-pass: re-invoking re-runs the model call.
func (c *Client) NextStreaming(ctx context.Context, turns []models.Turn, specs []tools.Spec, fn StreamHandler) (*models.Turn, error) {
	request := openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: c.toMessages(turns),
		Tools:    toToolDeclarations(specs),
		Stream:   true,
	}

	// Establishment is retried like Next; once the first fragment has
	// been handed to fn the stream is single-pass and failures surface.
	var stream *openai.ChatCompletionStream
	var cancel context.CancelFunc
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(util.CalculateBackoff(c.retryDelay, attempt)):
			}
		}

		attemptCtx, attemptCancel := context.WithTimeout(ctx, c.timeout)
		s, err := c.client.CreateChatCompletionStream(attemptCtx, request)
		if err != nil {
			attemptCancel()
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		stream, cancel = s, attemptCancel
		break
	}
	if stream == nil {
		return nil, fmt.Errorf("starting completion stream failed after %d attempts: %w", c.maxRetries+1, lastErr)
	}
	defer cancel()
	defer func() { _ = stream.Close() }()

	var content string
	calls := map[int]*models.ToolCall{}
	maxIndex := -1

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading completion stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta
		if delta.Content != "" {
			content += delta.Content
			if fn != nil {
				if err := fn(delta.Content); err != nil {
					return nil, fmt.Errorf("stream consumer stopped: %w", err)
				}
			}
		}

		// Tool call fragments arrive indexed; arguments accumulate.
		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			call, ok := calls[idx]
			if !ok {
				call = &models.ToolCall{}
				calls[idx] = call
				if idx > maxIndex {
					maxIndex = idx
				}
			}
			if tc.ID != "" {
				call.ID = tc.ID
			}
			if tc.Function.Name != "" {
				call.Name = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				call.Arguments = append(call.Arguments, []byte(tc.Function.Arguments)...)
			}
		}
	}

	var toolCalls []models.ToolCall
	for i := 0; i <= maxIndex; i++ {
		if call, ok := calls[i]; ok {
			toolCalls = append(toolCalls, *call)
		}
	}

	return models.NewAssistantTurn(models.Text(content), toolCalls), nil
}

// Embed generates embedding vectors for a batch of texts.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(util.CalculateBackoff(c.retryDelay, attempt)):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateEmbeddings(attemptCtx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: c.embeddingModel,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Data) != len(texts) {
			lastErr = fmt.Errorf("attempt %d: %d embeddings for %d inputs", attempt+1, len(resp.Data), len(texts))
			continue
		}

		vectors := make([][]float32, len(resp.Data))
		for i, item := range resp.Data {
			vectors[i] = item.Embedding
		}
		return vectors, nil
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// toMessages maps the turn history to chat messages, prefixed with the
// system prompt.
func (c *Client) toMessages(turns []models.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if c.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}
	for _, turn := range turns {
		messages = append(messages, toMessage(turn))
	}
	return messages
}

func toMessage(turn models.Turn) openai.ChatCompletionMessage {
	switch turn.Role {
	case models.RoleTool:
		return openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    turn.Content.PlainText(),
			ToolCallID: turn.ToolCallID,
			Name:       turn.ToolName,
		}
	case models.RoleAssistant:
		msg := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: turn.Content.PlainText(),
		}
		for _, call := range turn.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: string(call.Arguments),
				},
			})
		}
		return msg
	default:
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: turn.Content.PlainText(),
		}
	}
}

func fromMessage(msg openai.ChatCompletionMessage) *models.Turn {
	var toolCalls []models.ToolCall
	for _, call := range msg.ToolCalls {
		toolCalls = append(toolCalls, models.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: []byte(call.Function.Arguments),
		})
	}
	return models.NewAssistantTurn(models.Text(msg.Content), toolCalls)
}

func toToolDeclarations(specs []tools.Spec) []openai.Tool {
	declarations := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		declarations = append(declarations, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.InputSchema,
			},
		})
	}
	return declarations
}
