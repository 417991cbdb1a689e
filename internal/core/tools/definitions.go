package tools

import "github.com/agentcore/core/internal/core/ai"

// Each *Schema constant is a minimal JSON Schema literal; kept here rather than in ai so
// the tool surface and its schemas live next to the dispatch switch they
// describe.
const computerSchema = `{
  "type": "object",
  "properties": {
    "verb": {"type": "string", "enum": ["click","double-click","move","drag","type","key","scroll","zoom","wait","screenshot"]},
    "coordinate": {"type": "object", "properties": {"x": {"type": "integer"}, "y": {"type": "integer"}}},
    "start_coordinate": {"type": "object", "properties": {"x": {"type": "integer"}, "y": {"type": "integer"}}},
    "text": {"type": "string"},
    "scroll_direction": {"type": "string"},
    "scroll_amount": {"type": "integer"},
    "key": {"type": "string"},
    "region": {"type": "object", "properties": {"x": {"type": "integer"}, "y": {"type": "integer"}, "width": {"type": "integer"}, "height": {"type": "integer"}}}
  },
  "required": ["verb"]
}`

const bashSchema = `{
  "type": "object",
  "properties": {
    "command": {"type": "string"},
    "restart": {"type": "boolean"}
  }
}`

const pythonSchema = `{
  "type": "object",
  "properties": {
    "code": {"type": "string"},
    "save_to": {"type": "string"},
    "task_type": {"type": "string", "enum": ["report","chart","presentation","spreadsheet","dashboard"]}
  },
  "required": ["code"]
}`

const speakSchema = `{
  "type": "object",
  "properties": {"text": {"type": "string"}},
  "required": ["text"]
}`

const deepResearchSchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string"},
    "depth": {"type": "integer"}
  },
  "required": ["query"]
}`

const seePageSchema = `{
  "type": "object",
  "properties": {"verb": {"type": "string", "enum": ["snapshot","screenshot","list-tabs"]}}
}`

const pageActionSchema = `{
  "type": "object",
  "properties": {
    "verb": {"type": "string", "enum": ["click","double_click","type_into","hover","drag_from_to","press_key","scroll","fill_form","dialog"]},
    "uid": {"type": "string"},
    "from_uid": {"type": "string"},
    "to_uid": {"type": "string"},
    "text": {"type": "string"},
    "key": {"type": "string"},
    "dx": {"type": "number"},
    "dy": {"type": "number"},
    "fields": {"type": "object"},
    "accept": {"type": "boolean"},
    "prompt_text": {"type": "string"}
  },
  "required": ["verb"]
}`

const browserNavigateSchema = `{
  "type": "object",
  "properties": {
    "verb": {"type": "string", "enum": ["go_to_url","back","forward","reload","reload_skip_cache","open_new_tab","switch_to_tab","close_tab","wait_for_text"]},
    "url": {"type": "string"},
    "tab_id": {"type": "string"},
    "text": {"type": "string"},
    "timeout_ms": {"type": "integer"}
  },
  "required": ["verb"]
}`

// Definitions returns the fixed tool surface spec.md §4.5 names, in the
// shape the LLM adapter expects. The Single-Agent Loop passes this on every
// ChatRequest; the Swarm Scheduler's executor path never needs it, since
// swarm subtasks call Actuators directly rather than through a model call
// carrying a tool belt.
func Definitions() []ai.ToolDefinition {
	return []ai.ToolDefinition{
		{Name: ToolComputer, Description: "Control the screen and input devices: click, type, scroll, drag, take screenshots.", InputSchema: []byte(computerSchema)},
		{Name: ToolBash, Description: "Run a command in a persistent shell session. Pass restart:true to recover a wedged session.", InputSchema: []byte(bashSchema)},
		{Name: ToolPython, Description: "Run Python code in a sandboxed interpreter with document-generation helpers (reports, charts, presentations, spreadsheets, dashboards).", InputSchema: []byte(pythonSchema)},
		{Name: ToolSpeak, Description: "Speak text aloud via text-to-speech.", InputSchema: []byte(speakSchema)},
		{Name: ToolDeepResearch, Description: "Run a multi-query web research pass and return a cited markdown report.", InputSchema: []byte(deepResearchSchema)},
		{Name: ToolSeePage, Description: "Observe the active browser tab: an accessibility snapshot, a screenshot, or the open tab list.", InputSchema: []byte(seePageSchema)},
		{Name: ToolPageAction, Description: "Act on an element in the active tab by UID from the last snapshot: click, type, hover, drag, press a key, scroll, fill a form, or answer a dialog.", InputSchema: []byte(pageActionSchema)},
		{Name: ToolBrowserNavigate, Description: "Navigate the active tab or manage tabs: go to a URL, back/forward/reload, open/switch/close a tab, wait for text to appear.", InputSchema: []byte(browserNavigateSchema)},
	}
}
