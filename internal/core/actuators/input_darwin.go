//go:build darwin

package actuators

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/agentcore/core/internal/core/types"
)

// darwinBackend drives input via cliclick when present, falling back to
// AppleScript's "System Events" keystroke/click primitives.
type darwinBackend struct {
	useCliclick bool
}

// pinWorkerThread is a no-op here; the linux backend uses it to nice its
// own thread around xdotool/ydotool exec calls, a concern this backend's
// cliclick/AppleScript calls don't share.
func pinWorkerThread() {}

func newPlatformBackend() inputBackend {
	_, err := exec.LookPath("cliclick")
	return &darwinBackend{useCliclick: err == nil}
}

func (b *darwinBackend) click(p types.Point, button string, clicks int) error {
	if b.useCliclick {
		cmd := "c"
		switch {
		case button == "right":
			cmd = "rc"
		case clicks == 2:
			cmd = "dc"
		}
		return run("cliclick", fmt.Sprintf("%s:%d,%d", cmd, p.X, p.Y))
	}
	return runOsascript(fmt.Sprintf(`tell application "System Events" to click at {%d, %d}`, p.X, p.Y))
}

func (b *darwinBackend) move(p types.Point) error {
	if !b.useCliclick {
		return fmt.Errorf("actuators: move requires cliclick")
	}
	return run("cliclick", fmt.Sprintf("m:%d,%d", p.X, p.Y))
}

func (b *darwinBackend) drag(from, to types.Point) error {
	if !b.useCliclick {
		return fmt.Errorf("actuators: drag requires cliclick")
	}
	return run("cliclick", fmt.Sprintf("dd:%d,%d", from.X, from.Y), fmt.Sprintf("du:%d,%d", to.X, to.Y))
}

func (b *darwinBackend) typeText(text string) error {
	if b.useCliclick {
		return run("cliclick", "t:"+text)
	}
	escaped := strings.ReplaceAll(text, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return runOsascript(fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, escaped))
}

func (b *darwinBackend) pressKey(key string) error {
	parts := strings.Split(strings.ToLower(key), "+")
	var modifiers []string
	var base string
	for _, p := range parts {
		switch p {
		case "cmd", "command":
			modifiers = append(modifiers, "command down")
		case "ctrl", "control":
			modifiers = append(modifiers, "control down")
		case "alt", "option":
			modifiers = append(modifiers, "option down")
		case "shift":
			modifiers = append(modifiers, "shift down")
		default:
			base = p
		}
	}
	if len(modifiers) > 0 {
		return runOsascript(fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, base, strings.Join(modifiers, ", ")))
	}
	return runOsascript(fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, base))
}

func (b *darwinBackend) scroll(direction string, amount int) error {
	if !b.useCliclick {
		return fmt.Errorf("actuators: scroll requires cliclick")
	}
	var dx, dy int
	switch direction {
	case "up":
		dy = amount
	case "down":
		dy = -amount
	case "left":
		dx = amount
	case "right":
		dx = -amount
	default:
		return fmt.Errorf("actuators: invalid scroll direction %q", direction)
	}
	return run("cliclick", fmt.Sprintf("scroll:%d,%d", dx, dy))
}

func run(name string, args ...string) error {
	if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("actuators: %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func runOsascript(script string) error {
	return run("osascript", "-e", script)
}
