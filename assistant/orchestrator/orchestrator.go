package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/contract"
	promptx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/prompt"
	toolx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/tool"
)

// Fixed user-facing fallback strings. No raw error ever reaches the caller.
const (
	apologyRephrase = "I apologize, but I couldn't process your request. Please try rephrasing your question."
	apologyRetry    = "I apologize, but I encountered an error while processing your request. Please try again later."
)

// state enumerates the per-turn protocol states. A turn walks
// AwaitingToolDecision -> (NoTool | ToolSelected) -> AwaitingFinalComposition
// -> Done; NoTool short-circuits to Done.
type state int

const (
	stateAwaitingToolDecision state = iota
	stateNoTool
	stateToolSelected
	stateAwaitingFinalComposition
	stateDone
)

// ChatService is the slice of the OpenAI client the orchestrator depends on.
// *openai.ChatCompletionService satisfies it.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type Config struct {
	Model string
}

// Orchestrator drives the two-phase tool-calling protocol: one model call to
// decide whether a tool is needed, a dispatch through the tool gateway, and a
// second model call to fold the tool output into a natural-language reply.
// Turns are stateless and independent; there is no session memory.
type Orchestrator struct {
	chat    ChatService
	tools   contractx.ToolGateway
	model   openai.ChatModel
	prompts promptx.PromptSet
}

func New(chat ChatService, tools contractx.ToolGateway, cfg Config) (*Orchestrator, error) {
	if chat == nil {
		return nil, errors.New("chat service is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("%w: chat model name is required", contractx.ErrConfiguration)
	}

	return &Orchestrator{
		chat:    chat,
		tools:   tools,
		model:   openai.ChatModel(model),
		prompts: promptx.LoadPromptSet(),
	}, nil
}

// Respond runs one turn for the user query and always returns a displayable
// reply: any internal failure is caught here and replaced with the fixed
// apology string.
func (o *Orchestrator) Respond(ctx context.Context, userQuery string) string {
	turnID := uuid.NewString()

	reply, err := o.runTurn(ctx, turnID, userQuery)
	if err != nil {
		log.Error().Err(err).Str("turn_id", turnID).Msg("turn failed")
		return apologyRetry
	}
	return reply
}

// turn carries the mutable per-turn data the state transitions operate on.
type turn struct {
	query    string
	decision *openai.ChatCompletionMessage
	toolReq  contractx.ToolRequest
	toolRes  contractx.ToolResult
	reply    string
}

func (o *Orchestrator) runTurn(ctx context.Context, turnID, userQuery string) (string, error) {
	t := &turn{query: userQuery}
	current := stateAwaitingToolDecision

	for {
		var err error
		switch current {
		case stateAwaitingToolDecision:
			current, err = o.decideTool(ctx, t)
		case stateNoTool:
			t.reply = contentOrApology(t.decision.Content)
			current = stateDone
		case stateToolSelected:
			t.toolRes = o.tools.Dispatch(ctx, t.query, t.toolReq)
			log.Debug().
				Str("turn_id", turnID).
				Str("tool", t.toolReq.Tool).
				Bool("tool_error", t.toolRes.Error != "").
				Msg("tool dispatched")
			current = stateAwaitingFinalComposition
		case stateAwaitingFinalComposition:
			current, err = o.composeReply(ctx, t)
		case stateDone:
			return t.reply, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// decideTool runs phase 1: the user query plus both tool schemas go to the
// model, and its tool-selection output decides the next state.
func (o *Orchestrator) decideTool(ctx context.Context, t *turn) (state, error) {
	completion, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(o.prompts.ToolSelection),
			openai.UserMessage(t.query),
		},
		Tools: toolDefinitions(),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: tool decision call: %v", contractx.ErrUpstream, err)
	}
	if len(completion.Choices) == 0 {
		return 0, fmt.Errorf("%w: tool decision returned no choices", contractx.ErrUpstream)
	}

	message := completion.Choices[0].Message
	t.decision = &message

	if len(message.ToolCalls) == 0 {
		return stateNoTool, nil
	}

	call := message.ToolCalls[0]
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return 0, fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolArguments, call.Function.Name, err)
		}
	}

	t.toolReq = contractx.ToolRequest{
		Tool: call.Function.Name,
		Args: args,
	}
	return stateToolSelected, nil
}

// composeReply runs phase 2: the original user message, the assistant's
// tool-selection turn, and the serialized tool result go back to the model
// for the final natural-language answer.
func (o *Orchestrator) composeReply(ctx context.Context, t *turn) (state, error) {
	payload, err := json.Marshal(t.toolRes)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal tool result: %v", contractx.ErrValidation, err)
	}

	completion, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(o.prompts.FinalAnswer),
			openai.UserMessage(t.query),
			t.decision.ToParam(),
			openai.ToolMessage(string(payload), t.decision.ToolCalls[0].ID),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: final composition call: %v", contractx.ErrUpstream, err)
	}
	if len(completion.Choices) == 0 {
		return 0, fmt.Errorf("%w: final composition returned no choices", contractx.ErrUpstream)
	}

	t.reply = contentOrApology(completion.Choices[0].Message.Content)
	return stateDone, nil
}

// toolDefinitions returns the two fixed tool schemas supplied verbatim on
// every phase-1 call.
func toolDefinitions() []openai.ChatCompletionToolParam {
	return []openai.ChatCompletionToolParam{
		{
			Function: openai.FunctionDefinitionParam{
				Name:        toolx.ToolSearchProducts,
				Description: openai.String("Search for products based on user query"),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": `The search query for products (e.g., "present", "phone", "watch")`,
						},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name:        toolx.ToolConvertCurrencies,
				Description: openai.String("Convert amount from one currency to another"),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"amount": map[string]any{
							"type":        "number",
							"description": "The amount to convert",
						},
						"fromCurrency": map[string]any{
							"type":        "string",
							"description": "The source currency code (e.g., USD, EUR)",
						},
						"toCurrency": map[string]any{
							"type":        "string",
							"description": "The target currency code (e.g., USD, EUR)",
						},
					},
					"required": []string{"amount", "fromCurrency", "toCurrency"},
				},
			},
		},
	}
}

func contentOrApology(content string) string {
	if trimmed := strings.TrimSpace(content); trimmed != "" {
		return trimmed
	}
	return apologyRephrase
}
