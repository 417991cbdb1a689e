//go:build windows

package actuators

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/agentcore/core/internal/core/types"
)

// windowsBackend drives input via PowerShell, combining user32.dll P/Invoke
// for mouse control with System.Windows.Forms.SendKeys for the keyboard.
type windowsBackend struct{}

func newPlatformBackend() inputBackend { return &windowsBackend{} }

// pinWorkerThread is a no-op here; PowerShell invocations don't benefit from
// the OS-thread pinning the linux xdotool/ydotool backend uses.
func pinWorkerThread() {}

const mouseOpsType = `
Add-Type -TypeDefinition @"
using System;
using System.Runtime.InteropServices;
public class MouseOps {
    [DllImport("user32.dll")]
    public static extern bool SetCursorPos(int X, int Y);
    [DllImport("user32.dll")]
    public static extern void mouse_event(uint dwFlags, int dx, int dy, uint dwData, int dwExtraInfo);
    public const uint MOUSEEVENTF_LEFTDOWN = 0x02;
    public const uint MOUSEEVENTF_LEFTUP = 0x04;
    public const uint MOUSEEVENTF_RIGHTDOWN = 0x08;
    public const uint MOUSEEVENTF_RIGHTUP = 0x10;
    public const uint MOUSEEVENTF_WHEEL = 0x0800;
}
"@
`

func (b *windowsBackend) click(p types.Point, button string, clicks int) error {
	down, up := "MOUSEEVENTF_LEFTDOWN", "MOUSEEVENTF_LEFTUP"
	if button == "right" {
		down, up = "MOUSEEVENTF_RIGHTDOWN", "MOUSEEVENTF_RIGHTUP"
	}
	var script strings.Builder
	script.WriteString(mouseOpsType)
	fmt.Fprintf(&script, "[MouseOps]::SetCursorPos(%d, %d)\nStart-Sleep -Milliseconds 50\n", p.X, p.Y)
	for i := 0; i < clicks; i++ {
		fmt.Fprintf(&script, "[MouseOps]::mouse_event([MouseOps]::%s, 0, 0, 0, 0)\n", down)
		fmt.Fprintf(&script, "[MouseOps]::mouse_event([MouseOps]::%s, 0, 0, 0, 0)\n", up)
		if i+1 < clicks {
			script.WriteString("Start-Sleep -Milliseconds 100\n")
		}
	}
	return runPowerShell(script.String())
}

func (b *windowsBackend) move(p types.Point) error {
	script := mouseOpsType + fmt.Sprintf("[MouseOps]::SetCursorPos(%d, %d)\n", p.X, p.Y)
	return runPowerShell(script)
}

func (b *windowsBackend) drag(from, to types.Point) error {
	script := mouseOpsType + fmt.Sprintf(`[MouseOps]::SetCursorPos(%d, %d)
Start-Sleep -Milliseconds 50
[MouseOps]::mouse_event([MouseOps]::MOUSEEVENTF_LEFTDOWN, 0, 0, 0, 0)
Start-Sleep -Milliseconds 50
[MouseOps]::SetCursorPos(%d, %d)
Start-Sleep -Milliseconds 50
[MouseOps]::mouse_event([MouseOps]::MOUSEEVENTF_LEFTUP, 0, 0, 0, 0)
`, from.X, from.Y, to.X, to.Y)
	return runPowerShell(script)
}

func (b *windowsBackend) typeText(text string) error {
	script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms
[System.Windows.Forms.SendKeys]::SendWait("%s")
`, escapeSendKeys(text))
	return runPowerShell(script)
}

func (b *windowsBackend) pressKey(key string) error {
	script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms
[System.Windows.Forms.SendKeys]::SendWait("%s")
`, convertToSendKeys(key))
	return runPowerShell(script)
}

func (b *windowsBackend) scroll(direction string, amount int) error {
	delta := amount * 120
	if direction == "down" {
		delta = -delta
	}
	script := mouseOpsType + fmt.Sprintf("[MouseOps]::mouse_event([MouseOps]::MOUSEEVENTF_WHEEL, 0, 0, %d, 0)\n", delta)
	return runPowerShell(script)
}

func runPowerShell(script string) error {
	out, err := exec.Command("powershell", "-NoProfile", "-Command", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("actuators: powershell: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func escapeSendKeys(s string) string {
	replacer := strings.NewReplacer(
		"+", "{+}", "^", "{^}", "%", "{%}", "~", "{~}",
		"(", "{(}", ")", "{)}", "[", "{[}", "]", "{]}",
		"{", "{{}", "}", "{}}",
	)
	return replacer.Replace(s)
}

func convertToSendKeys(keys string) string {
	parts := strings.Split(strings.ToLower(keys), "+")
	var result strings.Builder
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "ctrl", "control":
			result.WriteString("^")
		case "alt":
			result.WriteString("%")
		case "shift":
			result.WriteString("+")
		case "win", "cmd", "super":
			result.WriteString("^{ESC}")
		case "enter", "return":
			result.WriteString("{ENTER}")
		case "tab":
			result.WriteString("{TAB}")
		case "esc", "escape":
			result.WriteString("{ESC}")
		case "backspace", "back":
			result.WriteString("{BACKSPACE}")
		case "delete", "del":
			result.WriteString("{DELETE}")
		case "home":
			result.WriteString("{HOME}")
		case "end":
			result.WriteString("{END}")
		case "up":
			result.WriteString("{UP}")
		case "down":
			result.WriteString("{DOWN}")
		case "left":
			result.WriteString("{LEFT}")
		case "right":
			result.WriteString("{RIGHT}")
		default:
			result.WriteString(escapeSendKeys(part))
		}
	}
	return result.String()
}
