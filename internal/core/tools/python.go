package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/types"
)

type pythonInput struct {
	Code     string `json:"code"`
	SaveTo   string `json:"save_to"`
	TaskType string `json:"task_type"`
}

func (d *Dispatcher) dispatchPython(ctx context.Context, toolUse types.ContentBlock) (types.ContentBlock, error) {
	in, err := parseInput[pythonInput](toolUse.ToolInput)
	if err != nil {
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: parse python input: %w", err)), nil
	}

	result, err := d.Interpreter.Execute(ctx, in.Code, in.SaveTo)
	if err != nil {
		return types.ContentBlock{}, err
	}

	_ = events.Emit(d.Bus, events.TopicPythonResult, result)

	var sb strings.Builder
	fmt.Fprintf(&sb, "exit_code=%d\n", result.ExitCode)
	if len(result.CreatedFiles) > 0 {
		fmt.Fprintf(&sb, "created files: %s\n", strings.Join(result.CreatedFiles, ", "))
	}
	fmt.Fprintf(&sb, "stdout:\n%s\n", result.Stdout)
	if result.Stderr != "" {
		fmt.Fprintf(&sb, "stderr:\n%s\n", result.Stderr)
	}
	if len(result.Suggestions) > 0 {
		fmt.Fprintf(&sb, "suggestions: %s\n", strings.Join(result.Suggestions, "; "))
	}
	return textResult(toolUse.ToolUseID, sb.String()), nil
}
