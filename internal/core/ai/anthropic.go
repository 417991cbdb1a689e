package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/agentcore/core/internal/core/types"
)

const defaultMaxTokens = 8192

// AnthropicProvider streams turns through the official Anthropic SDK.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider builds a Provider bound to apiKey and a default model.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *AnthropicProvider) ID() string { return "anthropic" }

// Stream sends req and returns a channel of StreamEvent as the response
// arrives over SSE.
func (p *AnthropicProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	messages, err := buildMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("ai: build messages: %w", err)
	}

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(defaultMaxTokens),
		Messages:  messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	if req.EnableThinking {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(10000)
		if req.MaxTokens <= 0 {
			params.MaxTokens = 16384
		}
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	events := make(chan StreamEvent, 100)
	go handleStream(stream, events)
	return events, nil
}

func buildTools(defs []ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		var schema map[string]any
		if err := json.Unmarshal(def.InputSchema, &schema); err != nil {
			continue
		}

		toolParam := anthropic.ToolParam{
			Name:        def.Name,
			Description: anthropic.String(def.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
			},
		}
		if required, ok := schema["required"].([]any); ok {
			reqStrings := make([]string, len(required))
			for i, r := range required {
				reqStrings[i], _ = r.(string)
			}
			toolParam.InputSchema.Required = reqStrings
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return tools
}

// buildMessages converts the core's Message history into Anthropic's wire
// format. Two passes over the history: the first records every assistant
// ToolUse id and every ToolResult id it answers; the second pass emits
// only tool_use blocks that have a matching tool_result, and only
// tool_result blocks that answer a tool_use still present in the
// history — this is what keeps a compacted or truncated history from
// producing an orphaned half of a tool_use/tool_result pair, which the
// API rejects outright.
func buildMessages(msgs []types.Message) ([]anthropic.MessageParam, error) {
	toolUseIDs := make(map[string]bool)
	answeredIDs := make(map[string]bool)
	for _, msg := range msgs {
		for _, b := range msg.ToolUseBlocks() {
			toolUseIDs[b.ToolUseID] = true
		}
		for _, id := range msg.ToolResultIDs() {
			answeredIDs[id] = true
		}
	}

	var out []anthropic.MessageParam
	for _, msg := range msgs {
		switch msg.Role {
		case types.RoleUser:
			blocks := buildUserBlocks(msg, toolUseIDs, answeredIDs)
			if len(blocks) > 0 {
				out = append(out, anthropic.NewUserMessage(blocks...))
			}
		case types.RoleAssistant:
			blocks := buildAssistantBlocks(msg, answeredIDs)
			if len(blocks) > 0 {
				out = append(out, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleAssistant,
					Content: blocks,
				})
			}
		}
	}
	return out, nil
}

func buildUserBlocks(msg types.Message, toolUseIDs, answeredIDs map[string]bool) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, b := range msg.Content {
		switch b.Kind {
		case types.BlockText:
			if b.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			}
		case types.BlockImage:
			blocks = append(blocks, anthropic.NewImageBlockBase64(b.MediaType, b.Base64Data))
		case types.BlockToolResult:
			if !toolUseIDs[b.ToolResultForID] {
				continue // orphaned: no matching tool_use survives in history
			}
			blocks = append(blocks, buildToolResultBlock(b))
		}
	}
	return blocks
}

func buildToolResultBlock(b types.ContentBlock) anthropic.ContentBlockParamUnion {
	isError := false
	var parts []anthropic.ToolResultBlockParamContentUnion
	for _, part := range b.ToolResultParts {
		switch part.Kind {
		case types.ToolResultPartText:
			parts = append(parts, anthropic.ToolResultBlockParamContentUnion{
				OfText: &anthropic.TextBlockParam{Text: part.Text},
			})
		case types.ToolResultPartImage:
			parts = append(parts, anthropic.ToolResultBlockParamContentUnion{
				OfImage: &anthropic.ImageBlockParam{
					Source: anthropic.ImageBlockParamSourceUnion{
						OfBase64: &anthropic.Base64ImageSourceParam{
							MediaType: anthropic.Base64ImageSourceMediaType(part.MediaType),
							Data:      part.Base64Data,
						},
					},
				},
			})
		}
	}
	return anthropic.ContentBlockParamUnion{
		OfToolResult: &anthropic.ToolResultBlockParam{
			ToolUseID: b.ToolResultForID,
			Content:   parts,
			IsError:   anthropic.Bool(isError),
		},
	}
}

func buildAssistantBlocks(msg types.Message, answeredIDs map[string]bool) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, b := range msg.Content {
		switch b.Kind {
		case types.BlockText:
			if b.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			}
		case types.BlockThinking:
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfThinking: &anthropic.ThinkingBlockParam{Thinking: b.Text},
			})
		case types.BlockRedactedThinking:
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfRedactedThinking: &anthropic.RedactedThinkingBlockParam{Data: b.Opaque},
			})
		case types.BlockToolUse, types.BlockServerToolUse:
			if !answeredIDs[b.ToolUseID] {
				continue // history was truncated before this call got its result
			}
			var input map[string]any
			if err := json.Unmarshal(b.ToolInput, &input); err != nil {
				input = map[string]any{}
			}
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID: b.ToolUseID, Name: b.ToolName, Input: input,
				},
			})
		}
	}
	return blocks
}

func handleStream(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], events chan<- StreamEvent) {
	defer close(events)

	var toolID, toolName, inputBuf string
	var usage types.Usage

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "message_start":
			ms := event.AsMessageStart()
			usage.InputTokens = int(ms.Message.Usage.InputTokens)
			usage.CacheCreationInputTokens = int(ms.Message.Usage.CacheCreationInputTokens)
			usage.CacheReadInputTokens = int(ms.Message.Usage.CacheReadInputTokens)

		case "message_delta":
			md := event.AsMessageDelta()
			usage.OutputTokens = int(md.Usage.OutputTokens)

		case "content_block_start":
			cb := event.AsContentBlockStart()
			if tu, ok := cb.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				toolID, toolName, inputBuf = tu.ID, tu.Name, ""
				events <- StreamEvent{Type: EventTypeToolUseStart, ToolUse: &ToolUse{ID: tu.ID, Name: tu.Name}}
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta()
			switch d := delta.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				events <- StreamEvent{Type: EventTypeTextDelta, Text: d.Text}
			case anthropic.ThinkingDelta:
				events <- StreamEvent{Type: EventTypeThinkingDelta, Text: d.Thinking}
			case anthropic.InputJSONDelta:
				inputBuf += d.PartialJSON
			}

		case "content_block_stop":
			if toolID != "" {
				if inputBuf == "" {
					inputBuf = "{}"
				}
				events <- StreamEvent{
					Type:    EventTypeToolUse,
					ToolUse: &ToolUse{ID: toolID, Name: toolName, Input: json.RawMessage(inputBuf)},
				}
				toolID, toolName, inputBuf = "", "", ""
			}

		case "message_stop":
			events <- StreamEvent{Type: EventTypeMessageStop, Usage: usage}
			return

		case "error":
			events <- StreamEvent{Type: EventTypeError, Error: fmt.Errorf("ai: stream error: %s", event.RawJSON())}
			return
		}
	}

	if err := stream.Err(); err != nil {
		events <- StreamEvent{Type: EventTypeError, Error: err}
		return
	}
	events <- StreamEvent{Type: EventTypeMessageStop, Usage: usage}
}
