// ABOUTME: Tests for the orchestration loop state machine
// ABOUTME: Uses a scripted model so tool routing is deterministic
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/akshith/chatkit/internal/log"
	"github.com/akshith/chatkit/internal/models"
	"github.com/akshith/chatkit/internal/storage"
	"github.com/akshith/chatkit/internal/tools"
)

// scriptedModel returns pre-baked turns in order. It records the turn
// history it was shown on each call.
type scriptedModel struct {
	script   []*models.Turn
	call     int
	seen     [][]models.Turn
	streamed []string
}

func (m *scriptedModel) Next(ctx context.Context, turns []models.Turn, specs []tools.Spec) (*models.Turn, error) {
	snapshot := make([]models.Turn, len(turns))
	copy(snapshot, turns)
	m.seen = append(m.seen, snapshot)

	if m.call >= len(m.script) {
		return nil, fmt.Errorf("model called %d times, script has %d turns", m.call+1, len(m.script))
	}
	next := m.script[m.call]
	m.call++
	return next, nil
}

func (m *scriptedModel) NextStreaming(ctx context.Context, turns []models.Turn, specs []tools.Spec, fn StreamHandler) (*models.Turn, error) {
	next, err := m.Next(ctx, turns, specs)
	if err != nil {
		return nil, err
	}
	// Stream the final content word by word like a real completion.
	if len(next.ToolCalls) == 0 {
		for _, word := range strings.SplitAfter(next.Content.PlainText(), " ") {
			m.streamed = append(m.streamed, word)
			if err := fn(word); err != nil {
				return nil, err
			}
		}
	}
	return next, nil
}

// loopingModel always requests the same tool call and never answers.
type loopingModel struct{}

func (loopingModel) Next(ctx context.Context, turns []models.Turn, specs []tools.Spec) (*models.Turn, error) {
	return models.NewAssistantTurn(models.Content{}, []models.ToolCall{
		{ID: "call_loop", Name: "calculator", Arguments: json.RawMessage(`{"operation":"add","a":1,"b":1}`)},
	}), nil
}

func (m loopingModel) NextStreaming(ctx context.Context, turns []models.Turn, specs []tools.Spec, fn StreamHandler) (*models.Turn, error) {
	return m.Next(ctx, turns, specs)
}

func newTestEngine(t *testing.T, model Model) (*Engine, *storage.Store) {
	t.Helper()
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := tools.NewRegistry(log.NewNop())
	if err := registry.Register(tools.Calculator{}); err != nil {
		t.Fatalf("register calculator: %v", err)
	}
	return New(store, model, registry, nil, Options{Logger: log.NewNop()}), store
}

func toolCall(id, name, args string) models.ToolCall {
	return models.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func TestDirectAnswer(t *testing.T) {
	model := &scriptedModel{script: []*models.Turn{
		models.NewAssistantTurn(models.Text("Hello there."), nil),
	}}
	eng, store := newTestEngine(t, model)

	thread := eng.CreateThread()
	final, err := eng.SubmitUserMessage(context.Background(), thread, "hi")
	if err != nil {
		t.Fatalf("SubmitUserMessage: %v", err)
	}
	if got := final.Content.PlainText(); got != "Hello there." {
		t.Errorf("final answer = %q, want %q", got, "Hello there.")
	}

	turns, err := store.Latest(thread)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("persisted %d turns, want 2", len(turns))
	}
	if turns[0].Role != models.RoleUser || turns[1].Role != models.RoleAssistant {
		t.Errorf("roles = %s, %s; want user, assistant", turns[0].Role, turns[1].Role)
	}
}

func TestCalculatorRoundTrip(t *testing.T) {
	model := &scriptedModel{script: []*models.Turn{
		models.NewAssistantTurn(models.Content{}, []models.ToolCall{
			toolCall("call_1", "calculator", `{"operation":"add","a":2,"b":2}`),
		}),
		models.NewAssistantTurn(models.Text("2 plus 2 is 4."), nil),
	}}
	eng, store := newTestEngine(t, model)

	thread := eng.CreateThread()
	final, err := eng.SubmitUserMessage(context.Background(), thread, "what is 2+2?")
	if err != nil {
		t.Fatalf("SubmitUserMessage: %v", err)
	}
	if got := final.Content.PlainText(); !strings.Contains(got, "4") {
		t.Errorf("final answer = %q, want it to mention 4", got)
	}

	turns, err := store.Latest(thread)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	// user, assistant tool request, tool result, assistant answer
	if len(turns) != 4 {
		t.Fatalf("persisted %d turns, want 4", len(turns))
	}
	result := turns[2]
	if result.Role != models.RoleTool {
		t.Fatalf("turn 2 role = %s, want tool_result", result.Role)
	}
	if result.ToolCallID != "call_1" || result.ToolName != "calculator" {
		t.Errorf("tool result linkage = (%q, %q), want (call_1, calculator)", result.ToolCallID, result.ToolName)
	}

	var payload struct {
		Result float64 `json:"result"`
	}
	if err := json.Unmarshal([]byte(result.Content.PlainText()), &payload); err != nil {
		t.Fatalf("decoding tool payload: %v", err)
	}
	if payload.Result != 4 {
		t.Errorf("calculator result = %v, want 4", payload.Result)
	}

	// The second model call must see the tool result in its history.
	if len(model.seen) != 2 {
		t.Fatalf("model called %d times, want 2", len(model.seen))
	}
	second := model.seen[1]
	if second[len(second)-1].Role != models.RoleTool {
		t.Errorf("second model call did not end with the tool result")
	}
}

func TestMissingToolCallIDGeneratedBeforePersist(t *testing.T) {
	model := &scriptedModel{script: []*models.Turn{
		models.NewAssistantTurn(models.Content{}, []models.ToolCall{
			toolCall("", "calculator", `{"operation":"add","a":1,"b":2}`),
		}),
		models.NewAssistantTurn(models.Text("It's 3."), nil),
	}}
	eng, store := newTestEngine(t, model)

	thread := eng.CreateThread()
	if _, err := eng.SubmitUserMessage(context.Background(), thread, "1+2?"); err != nil {
		t.Fatalf("SubmitUserMessage: %v", err)
	}

	turns, err := store.Latest(thread)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("persisted %d turns, want 4", len(turns))
	}

	request := turns[1]
	if len(request.ToolCalls) != 1 {
		t.Fatalf("assistant turn has %d tool calls, want 1", len(request.ToolCalls))
	}
	id := request.ToolCalls[0].ID
	if id == "" {
		t.Fatal("persisted tool call still has an empty ID")
	}
	if !strings.HasPrefix(id, "call_") {
		t.Errorf("generated ID = %q, want a call_ prefix", id)
	}

	// The persisted result must back-reference an ID the history contains.
	result := turns[2]
	if result.ToolCallID != id {
		t.Errorf("tool result references %q, want %q", result.ToolCallID, id)
	}
}

func TestUnknownToolContinues(t *testing.T) {
	model := &scriptedModel{script: []*models.Turn{
		models.NewAssistantTurn(models.Content{}, []models.ToolCall{
			toolCall("call_1", "time_machine", `{}`),
		}),
		models.NewAssistantTurn(models.Text("I don't have that capability."), nil),
	}}
	eng, store := newTestEngine(t, model)

	thread := eng.CreateThread()
	final, err := eng.SubmitUserMessage(context.Background(), thread, "go back to 1985")
	if err != nil {
		t.Fatalf("unknown tool must not fail the loop: %v", err)
	}
	if final == nil || final.Content.IsEmpty() {
		t.Fatal("expected a final answer after the failed tool call")
	}

	turns, _ := store.Latest(thread)
	result := turns[2]
	var payload map[string]string
	if err := json.Unmarshal([]byte(result.Content.PlainText()), &payload); err != nil {
		t.Fatalf("decoding tool payload: %v", err)
	}
	if payload["error"] == "" {
		t.Errorf("tool result payload = %v, want an error field", payload)
	}
}

func TestToolArgumentErrorContinues(t *testing.T) {
	model := &scriptedModel{script: []*models.Turn{
		models.NewAssistantTurn(models.Content{}, []models.ToolCall{
			toolCall("call_1", "calculator", `{"operation":"divide","a":1,"b":0}`),
		}),
		models.NewAssistantTurn(models.Text("Dividing by zero is undefined."), nil),
	}}
	eng, _ := newTestEngine(t, model)

	thread := eng.CreateThread()
	if _, err := eng.SubmitUserMessage(context.Background(), thread, "1/0?"); err != nil {
		t.Fatalf("tool error must not fail the loop: %v", err)
	}
}

func TestToolLoopBound(t *testing.T) {
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	registry := tools.NewRegistry(log.NewNop())
	if err := registry.Register(tools.Calculator{}); err != nil {
		t.Fatalf("register calculator: %v", err)
	}
	eng := New(store, loopingModel{}, registry, nil, Options{MaxToolRounds: 3, Logger: log.NewNop()})

	thread := eng.CreateThread()
	final, err := eng.SubmitUserMessage(context.Background(), thread, "loop forever")
	if !errors.Is(err, ErrToolLoopExceeded) {
		t.Fatalf("err = %v, want ErrToolLoopExceeded", err)
	}
	if final == nil || final.Content.IsEmpty() {
		t.Fatal("expected a degraded final answer alongside the error")
	}

	turns, err := store.Latest(thread)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	// user + 3 rounds of (request, result) + the request that tripped the
	// bound + the degraded answer
	if len(turns) != 9 {
		t.Fatalf("persisted %d turns, want 9", len(turns))
	}
	last := turns[len(turns)-1]
	if !last.IsFinal() {
		t.Errorf("last persisted turn is not a final answer: %+v", last)
	}
}

func TestEmptyMessageRejected(t *testing.T) {
	eng, store := newTestEngine(t, &scriptedModel{})

	thread := eng.CreateThread()
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := eng.SubmitUserMessage(context.Background(), thread, text); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("SubmitUserMessage(%q) err = %v, want ErrEmptyMessage", text, err)
		}
	}

	turns, err := store.Latest(thread)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("rejected messages persisted %d turns, want 0", len(turns))
	}
}

func TestModelFailureAbortsCleanly(t *testing.T) {
	eng, store := newTestEngine(t, &scriptedModel{script: nil})

	thread := eng.CreateThread()
	if _, err := eng.SubmitUserMessage(context.Background(), thread, "hello"); err == nil {
		t.Fatal("expected an error when the model fails")
	}

	// The user turn is already durable; the failed model turn is not.
	turns, _ := store.Latest(thread)
	if len(turns) != 1 || turns[0].Role != models.RoleUser {
		t.Errorf("persisted turns after model failure = %d, want just the user turn", len(turns))
	}
}

func TestStreamingEmitsFragmentsInOrder(t *testing.T) {
	model := &scriptedModel{script: []*models.Turn{
		models.NewAssistantTurn(models.Text("streamed final answer"), nil),
	}}
	eng, _ := newTestEngine(t, model)

	var got []string
	thread := eng.CreateThread()
	final, err := eng.StreamUserMessage(context.Background(), thread, "hi", func(fragment string) error {
		got = append(got, fragment)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamUserMessage: %v", err)
	}
	if strings.Join(got, "") != "streamed final answer" {
		t.Errorf("fragments joined = %q, want %q", strings.Join(got, ""), "streamed final answer")
	}
	if final.Content.PlainText() != "streamed final answer" {
		t.Errorf("final turn content = %q", final.Content.PlainText())
	}
}

func TestStreamHandlerErrorStopsLoop(t *testing.T) {
	model := &scriptedModel{script: []*models.Turn{
		models.NewAssistantTurn(models.Text("long answer here"), nil),
	}}
	eng, _ := newTestEngine(t, model)

	thread := eng.CreateThread()
	wantErr := errors.New("consumer gone")
	_, err := eng.StreamUserMessage(context.Background(), thread, "hi", func(string) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want the handler's error", err)
	}
}
