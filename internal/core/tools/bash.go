package tools

import (
	"fmt"

	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/types"
)

type bashInput struct {
	Command string `json:"command"`
	Restart bool   `json:"restart"`
}

func (d *Dispatcher) dispatchBash(toolUse types.ContentBlock) (types.ContentBlock, error) {
	in, err := parseInput[bashInput](toolUse.ToolInput)
	if err != nil {
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: parse bash input: %w", err)), nil
	}

	if in.Restart {
		if err := d.Shell.Restart(); err != nil {
			return types.ContentBlock{}, err
		}
		return textResult(toolUse.ToolUseID, "shell restarted"), nil
	}

	res, err := d.Shell.Execute(in.Command)
	if err != nil {
		return types.ContentBlock{}, err
	}

	_ = events.Emit(d.Bus, events.TopicBashResult, res)

	text := fmt.Sprintf("exit_code=%d\nstdout:\n%s\nstderr:\n%s", res.ExitCode, res.Stdout, res.Stderr)
	return textResult(toolUse.ToolUseID, text), nil
}
