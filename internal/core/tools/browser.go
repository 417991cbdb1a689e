package tools

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/agentcore/core/internal/core/browser"
	"github.com/agentcore/core/internal/core/types"
)

const defaultWaitForTextTimeout = 5 * time.Second

func waitForTextTimeout(ms int) time.Duration {
	if ms <= 0 {
		return defaultWaitForTextTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

type seePageInput struct {
	Verb string `json:"verb"`
}

func (d *Dispatcher) dispatchSeePage(toolUse types.ContentBlock) (types.ContentBlock, error) {
	in, err := parseInput[seePageInput](toolUse.ToolInput)
	if err != nil {
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: parse see_page input: %w", err)), nil
	}
	tab, err := d.Browser.ActiveTab()
	if err != nil {
		return types.ContentBlock{}, err
	}

	switch in.Verb {
	case "snapshot", "":
		snap, err := tab.Snapshot()
		if err != nil {
			return types.ContentBlock{}, err
		}
		return textResult(toolUse.ToolUseID, snap), nil
	case "screenshot":
		img, err := tab.Screenshot()
		if err != nil {
			return types.ContentBlock{}, err
		}
		return imageResult(toolUse.ToolUseID, mediaTypeJPEG, base64.StdEncoding.EncodeToString(img)), nil
	case "list-tabs":
		tabs := d.Browser.ListTabs()
		var sb []byte
		for id, title := range tabs {
			sb = append(sb, []byte(fmt.Sprintf("%s: %s\n", id, title))...)
		}
		return textResult(toolUse.ToolUseID, string(sb)), nil
	default:
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: unknown see_page verb %q", in.Verb)), nil
	}
}

type pageActionInput struct {
	Verb       string            `json:"verb"`
	UID        string            `json:"uid"`
	FromUID    string            `json:"from_uid"`
	ToUID      string            `json:"to_uid"`
	Text       string            `json:"text"`
	Key        string            `json:"key"`
	DX         float64           `json:"dx"`
	DY         float64           `json:"dy"`
	Fields     map[string]string `json:"fields"`
	Accept     bool              `json:"accept"`
	PromptText string            `json:"prompt_text"`
}

func (d *Dispatcher) dispatchPageAction(toolUse types.ContentBlock) (types.ContentBlock, error) {
	in, err := parseInput[pageActionInput](toolUse.ToolInput)
	if err != nil {
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: parse page_action input: %w", err)), nil
	}
	tab, err := d.Browser.ActiveTab()
	if err != nil {
		return types.ContentBlock{}, err
	}

	var actionErr error
	switch in.Verb {
	case "click":
		actionErr = tab.Click(in.UID)
	case "double_click":
		actionErr = tab.DoubleClick(in.UID)
	case "type_into":
		actionErr = tab.Fill(in.UID, in.Text)
	case "hover":
		actionErr = tab.Hover(in.UID)
	case "drag_from_to":
		actionErr = tab.DragFromTo(in.FromUID, in.ToUID)
	case "press_key":
		actionErr = tab.PressKey(in.UID, in.Key)
	case "scroll":
		actionErr = tab.Scroll(in.UID, in.DX, in.DY)
	case "fill_form":
		actionErr = tab.FillForm(in.Fields)
	case "dialog":
		tab.HandleDialog(in.Accept, in.PromptText)
	default:
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: unknown page_action verb %q", in.Verb)), nil
	}
	if actionErr != nil {
		if stale, ok := actionErr.(*browser.StaleUIDError); ok {
			return textResult(toolUse.ToolUseID, stale.Error()), nil
		}
		return types.ContentBlock{}, actionErr
	}
	return textResult(toolUse.ToolUseID, "ok"), nil
}

type browserNavigateInput struct {
	Verb      string `json:"verb"`
	URL       string `json:"url"`
	TabID     string `json:"tab_id"`
	Text      string `json:"text"`
	TimeoutMs int    `json:"timeout_ms"`
}

func (d *Dispatcher) dispatchBrowserNavigate(toolUse types.ContentBlock) (types.ContentBlock, error) {
	in, err := parseInput[browserNavigateInput](toolUse.ToolInput)
	if err != nil {
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: parse browser_navigate input: %w", err)), nil
	}

	switch in.Verb {
	case "open_new_tab":
		tab, err := d.Browser.OpenNewTab()
		if err != nil {
			return types.ContentBlock{}, err
		}
		if in.URL != "" {
			if err := tab.GoToURL(in.URL); err != nil {
				return types.ContentBlock{}, err
			}
		}
		return textResult(toolUse.ToolUseID, fmt.Sprintf("opened tab %s", tab.ID)), nil
	case "switch_to_tab":
		if err := d.Browser.SwitchToTab(in.TabID); err != nil {
			return types.ContentBlock{}, err
		}
		return textResult(toolUse.ToolUseID, "switched"), nil
	case "close_tab":
		if err := d.Browser.CloseTab(in.TabID); err != nil {
			return types.ContentBlock{}, err
		}
		return textResult(toolUse.ToolUseID, "closed"), nil
	}

	tab, err := d.Browser.ActiveTab()
	if err != nil {
		return types.ContentBlock{}, err
	}

	switch in.Verb {
	case "go_to_url":
		err = tab.GoToURL(in.URL)
	case "back":
		err = tab.Back()
	case "forward":
		err = tab.Forward()
	case "reload":
		err = tab.Reload(false)
	case "reload_skip_cache":
		err = tab.Reload(true)
	case "wait_for_text":
		err = tab.WaitForText(in.Text, waitForTextTimeout(in.TimeoutMs))
	default:
		return errorResult(toolUse.ToolUseID, fmt.Errorf("tools: unknown browser_navigate verb %q", in.Verb)), nil
	}
	if err != nil {
		return types.ContentBlock{}, err
	}
	return textResult(toolUse.ToolUseID, "ok"), nil
}
