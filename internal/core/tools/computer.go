package tools

import (
	"encoding/base64"
	"fmt"

	"github.com/agentcore/core/internal/core/types"
)

const mediaTypeJPEG = "image/jpeg"

func (d *Dispatcher) dispatchComputer(toolUse types.ContentBlock) (types.ContentBlock, error) {
	action, err := parseInput[types.ComputerAction](toolUse.ToolInput)
	if err != nil {
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: parse computer action: %w", err)), nil
	}

	if action.Verb == types.VerbZoom {
		img, err := d.Screen.PerformAction(action)
		if err != nil {
			return types.ContentBlock{}, err
		}
		return imageResult(toolUse.ToolUseID, mediaTypeJPEG, base64.StdEncoding.EncodeToString(img)), nil
	}

	img, err := d.Screen.PerformAction(action)
	if err != nil {
		return types.ContentBlock{}, err
	}
	if img == nil {
		// Non-screenshot verb: capture a fresh post-action frame with the
		// assistant's own surfaces composited out, so the model never sees
		// its own chrome in the result it reasons over next.
		img, err = d.Screen.TakeScreenshotExcludingSelfWindows()
		if err != nil {
			return types.ContentBlock{}, err
		}
	}
	return imageResult(toolUse.ToolUseID, mediaTypeJPEG, base64.StdEncoding.EncodeToString(img)), nil
}
