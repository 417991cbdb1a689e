package tools

import (
	"context"
	"fmt"

	"github.com/agentcore/core/internal/core/types"
)

type deepResearchInput struct {
	Query string `json:"query"`
	Depth int    `json:"depth"`
}

const defaultResearchDepth = 3

func (d *Dispatcher) dispatchDeepResearch(ctx context.Context, toolUse types.ContentBlock) (types.ContentBlock, error) {
	in, err := parseInput[deepResearchInput](toolUse.ToolInput)
	if err != nil {
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: parse deep_research input: %w", err)), nil
	}
	depth := in.Depth
	if depth <= 0 {
		depth = defaultResearchDepth
	}

	report, err := d.Research.Run(ctx, in.Query, depth)
	if err != nil {
		return types.ContentBlock{}, err
	}
	return textResult(toolUse.ToolUseID, report), nil
}
