// ABOUTME: Tool interface and registry for model-invocable capabilities
// ABOUTME: Invoke never lets a failure escape as an error; faults become {"error": ...} payloads
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akshith/chatkit/internal/log"
)

// Tool is one capability the model may request be invoked on its behalf.
// Invoke may return an error; the registry converts it into a structured
// error payload before it reaches the conversation.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
}

// Spec is the declaration of a tool presented to the model.
type Spec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ErrUnknownTool indicates the model requested a name that was never registered.
var ErrUnknownTool = fmt.Errorf("unknown tool")

// Registry resolves tool names to executors. Tools are registered once at
// process start and the set is immutable afterward, so lookups are
// lock-free.
type Registry struct {
	logger log.Logger
	tools  map[string]Tool
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		logger: logger,
		tools:  make(map[string]Tool),
	}
}

// Register adds a tool. Registering a duplicate name is a programming
// error and fails.
func (r *Registry) Register(tool Tool) error {
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Resolve returns the tool registered under name.
func (r *Registry) Resolve(name string) (Tool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return tool, nil
}

// Specs returns the declarations for every registered tool in
// registration order.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		specs = append(specs, Spec{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	return specs
}

// Invoke executes the named tool synchronously and always returns a JSON
// payload. Any failure (unknown name, bad arguments, execution fault,
// even a panic inside the tool) is converted into {"error": reason}.
// Tool failures are conversational data the model can react to, not
// control-flow exceptions.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (payload json.RawMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "tool", name, "panic", rec)
			payload = ErrorPayload(fmt.Sprintf("tool %s panicked: %v", name, rec))
		}
	}()

	tool, err := r.Resolve(name)
	if err != nil {
		r.logger.Warn("tool not found", "tool", name)
		return ErrorPayload(err.Error())
	}

	result, err := tool.Invoke(ctx, args)
	if err != nil {
		r.logger.Warn("tool failed", "tool", name, "error", err)
		return ErrorPayload(err.Error())
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return ErrorPayload(fmt.Sprintf("tool %s produced unencodable result: %v", name, err))
	}
	return encoded
}

// ErrorPayload builds the structured error payload folded into the
// conversation when a tool fails.
func ErrorPayload(reason string) json.RawMessage {
	encoded, err := json.Marshal(map[string]string{"error": reason})
	if err != nil {
		return json.RawMessage(`{"error":"internal error"}`)
	}
	return encoded
}
