// ABOUTME: Tests for the tool registry
// ABOUTME: Verifies the never-throw contract: all faults become error payloads
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type stubTool struct {
	name   string
	result any
	err    error
	panics bool
}

func (s stubTool) Name() string                 { return s.name }
func (s stubTool) Description() string          { return "stub" }
func (s stubTool) InputSchema() map[string]any  { return map[string]any{"type": "object"} }
func (s stubTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func decodePayload(t *testing.T, payload json.RawMessage) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload %s is not JSON: %v", payload, err)
	}
	return decoded
}

func TestRegisterAndResolve(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(stubTool{name: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tool, err := reg.Resolve("a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tool.Name() != "a" {
		t.Errorf("Name = %q, want a", tool.Name())
	}
}

func TestResolveUnknownTool(t *testing.T) {
	reg := NewRegistry(nil)

	_, err := reg.Resolve("nope")
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("err = %v, want ErrUnknownTool", err)
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(stubTool{name: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(stubTool{name: "a"}); err == nil {
		t.Error("expected error registering duplicate name")
	}
}

func TestRegisterEmptyNameFails(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register(stubTool{name: ""}); err == nil {
		t.Error("expected error registering empty name")
	}
}

func TestSpecsPreserveRegistrationOrder(t *testing.T) {
	reg := NewRegistry(nil)
	for _, name := range []string{"c", "a", "b"} {
		if err := reg.Register(stubTool{name: name}); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	specs := reg.Specs()
	if len(specs) != 3 {
		t.Fatalf("len = %d, want 3", len(specs))
	}
	for i, want := range []string{"c", "a", "b"} {
		if specs[i].Name != want {
			t.Errorf("specs[%d] = %q, want %q", i, specs[i].Name, want)
		}
	}
}

func TestInvokeNeverReturnsError(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		tool      stubTool
		invoke    string
		wantErr   string
		wantField string
	}{
		{
			name:      "successful invocation",
			tool:      stubTool{name: "ok", result: map[string]any{"value": 42.0}},
			invoke:    "ok",
			wantField: "value",
		},
		{
			name:    "unknown tool becomes payload",
			tool:    stubTool{name: "registered"},
			invoke:  "missing",
			wantErr: "unknown tool",
		},
		{
			name:    "tool error becomes payload",
			tool:    stubTool{name: "fails", err: errors.New("division by zero")},
			invoke:  "fails",
			wantErr: "division by zero",
		},
		{
			name:    "panicking tool becomes payload",
			tool:    stubTool{name: "panics", panics: true},
			invoke:  "panics",
			wantErr: "panicked",
		},
		{
			name:    "unencodable result becomes payload",
			tool:    stubTool{name: "bad", result: make(chan int)},
			invoke:  "bad",
			wantErr: "unencodable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry(nil)
			if err := reg.Register(tt.tool); err != nil {
				t.Fatalf("Register: %v", err)
			}

			payload := reg.Invoke(ctx, tt.invoke, json.RawMessage(`{}`))
			decoded := decodePayload(t, payload)

			if tt.wantErr != "" {
				reason, ok := decoded["error"].(string)
				if !ok {
					t.Fatalf("payload %s missing error field", payload)
				}
				if !strings.Contains(reason, tt.wantErr) {
					t.Errorf("error %q should mention %q", reason, tt.wantErr)
				}
				return
			}
			if _, hasErr := decoded["error"]; hasErr {
				t.Fatalf("unexpected error payload: %s", payload)
			}
			if _, ok := decoded[tt.wantField]; !ok {
				t.Errorf("payload %s missing %q", payload, tt.wantField)
			}
		})
	}
}
