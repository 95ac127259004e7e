// ABOUTME: The orchestration state machine: model turn, tool dispatch, repeat
// ABOUTME: Every produced turn is persisted before the loop proceeds
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/akshith/chatkit/internal/models"
	"github.com/akshith/chatkit/internal/tools"
)

// loopState enumerates the states of the orchestration machine.
type loopState int

const (
	awaitingModel loopState = iota
	executingTools
	done
)

// degradedAnswer is surfaced when the tool loop bound is exceeded.
const degradedAnswer = "I wasn't able to finish answering: the request required more tool calls than allowed."

// run drives one user request to completion. The caller holds the thread
// lock and has already appended the user turn to both the store and turns.
// When stream is non-nil, model calls go through the streaming variant and
// content fragments are forwarded in emission order.
//
// On ErrToolLoopExceeded the returned turn is a persisted, degraded final
// answer; for every other error the turn is nil.
func (e *Engine) run(ctx context.Context, threadKey string, turns []models.Turn, stream StreamHandler) (*models.Turn, error) {
	ctx = tools.ContextWithThreadKey(ctx, threadKey)
	specs := e.registry.Specs()

	state := awaitingModel
	var pending []models.ToolCall
	var final *models.Turn
	rounds := 0

	for state != done {
		switch state {
		case awaitingModel:
			next, err := e.nextTurn(ctx, turns, specs, stream)
			if err != nil {
				return nil, fmt.Errorf("model turn: %w", err)
			}
			// Fill in missing call IDs before the turn is persisted so
			// every tool result links to an ID the history contains.
			for i := range next.ToolCalls {
				if next.ToolCalls[i].ID == "" {
					next.ToolCalls[i].ID = "call_" + uuid.New().String()[:8]
				}
			}
			if err := e.store.Append(threadKey, next); err != nil {
				return nil, err
			}
			turns = append(turns, *next)

			if !next.RequestsTools() {
				final = next
				state = done
				break
			}

			if rounds >= e.maxToolRounds {
				e.logger.Warn("tool loop bound exceeded", "thread", threadKey, "rounds", rounds)
				degraded := models.NewAssistantTurn(models.Text(degradedAnswer), nil)
				if err := e.store.Append(threadKey, degraded); err != nil {
					return nil, err
				}
				return degraded, fmt.Errorf("%w after %d rounds", ErrToolLoopExceeded, rounds)
			}

			pending = next.ToolCalls
			state = executingTools

		case executingTools:
			// All pending results are appended before control returns
			// to the model.
			for _, call := range pending {
				e.logger.Debug("dispatching tool", "thread", threadKey, "tool", call.Name, "call_id", call.ID)

				payload := e.registry.Invoke(ctx, call.Name, call.Arguments)
				result := models.NewToolResultTurn(call.ID, call.Name, payload)
				if err := e.store.Append(threadKey, result); err != nil {
					return nil, err
				}
				turns = append(turns, *result)
			}
			pending = nil
			rounds++
			state = awaitingModel
		}
	}

	return final, nil
}

// nextTurn asks the model for the next turn, streaming when a handler is
// provided. The routing decision downstream is a pure function of the
// returned turn's shape.
func (e *Engine) nextTurn(ctx context.Context, turns []models.Turn, specs []tools.Spec, stream StreamHandler) (*models.Turn, error) {
	if stream != nil {
		return e.model.NextStreaming(ctx, turns, specs, stream)
	}
	return e.model.Next(ctx, turns, specs)
}
