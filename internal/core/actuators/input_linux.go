//go:build linux

package actuators

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/agentcore/core/internal/core/types"
)

// pinWorkerThread locks the input worker to its current OS thread and nices
// it slightly above normal, so xdotool/ydotool invocations queue behind a
// thread the scheduler doesn't preempt for unrelated goroutine work. Best
// effort: a failed Setpriority call (e.g. no CAP_SYS_NICE) is not fatal, the
// worker just runs at default priority.
func pinWorkerThread() {
	runtime.LockOSThread()
	_ = unix.Setpriority(unix.PRIO_PROCESS, 0, -5)
}

// linuxBackend drives input via xdotool under X11 or ydotool under Wayland,
// whichever is found on PATH first.
type linuxBackend struct {
	tool string // "xdotool", "ydotool", or ""
}

func newPlatformBackend() inputBackend {
	if _, err := exec.LookPath("xdotool"); err == nil {
		return &linuxBackend{tool: "xdotool"}
	}
	if _, err := exec.LookPath("ydotool"); err == nil {
		return &linuxBackend{tool: "ydotool"}
	}
	return &linuxBackend{}
}

func (b *linuxBackend) require() error {
	if b.tool == "" {
		return fmt.Errorf("actuators: no input backend found (install xdotool or ydotool)")
	}
	return nil
}

func (b *linuxBackend) click(p types.Point, button string, clicks int) error {
	if err := b.require(); err != nil {
		return err
	}
	if b.tool == "ydotool" {
		return b.ydotoolClick(p, button, clicks)
	}
	btn := "1"
	if button == "right" {
		btn = "3"
	}
	args := []string{"mousemove", strconv.Itoa(p.X), strconv.Itoa(p.Y), "click", "--repeat", strconv.Itoa(clicks), btn}
	return run("xdotool", args...)
}

func (b *linuxBackend) ydotoolClick(p types.Point, button string, clicks int) error {
	if err := run("ydotool", "mousemove", "--absolute", strconv.Itoa(p.X), strconv.Itoa(p.Y)); err != nil {
		return err
	}
	btn := "0xC0"
	if button == "right" {
		btn = "0xC1"
	}
	for i := 0; i < clicks; i++ {
		if err := run("ydotool", "click", btn); err != nil {
			return err
		}
	}
	return nil
}

func (b *linuxBackend) move(p types.Point) error {
	if err := b.require(); err != nil {
		return err
	}
	if b.tool == "ydotool" {
		return run("ydotool", "mousemove", "--absolute", strconv.Itoa(p.X), strconv.Itoa(p.Y))
	}
	return run("xdotool", "mousemove", strconv.Itoa(p.X), strconv.Itoa(p.Y))
}

func (b *linuxBackend) drag(from, to types.Point) error {
	if err := b.require(); err != nil {
		return err
	}
	if b.tool == "ydotool" {
		return fmt.Errorf("actuators: drag is not supported under ydotool/Wayland")
	}
	return run("xdotool", "mousemove", strconv.Itoa(from.X), strconv.Itoa(from.Y),
		"mousedown", "1", "mousemove", strconv.Itoa(to.X), strconv.Itoa(to.Y), "mouseup", "1")
}

func (b *linuxBackend) typeText(text string) error {
	if err := b.require(); err != nil {
		return err
	}
	if b.tool == "ydotool" {
		return run("ydotool", "type", text)
	}
	return run("xdotool", "type", "--delay", "12", text)
}

func (b *linuxBackend) pressKey(key string) error {
	if err := b.require(); err != nil {
		return err
	}
	key = strings.ReplaceAll(key, "cmd", "super")
	key = strings.ReplaceAll(key, "option", "alt")
	if b.tool == "ydotool" {
		return run("ydotool", "key", key)
	}
	return run("xdotool", "key", key)
}

func (b *linuxBackend) scroll(direction string, amount int) error {
	if err := b.require(); err != nil {
		return err
	}
	if b.tool == "ydotool" {
		dx, dy := 0, amount
		switch direction {
		case "down":
			dy = -amount
		case "left":
			dx, dy = -amount, 0
		case "right":
			dx, dy = amount, 0
		}
		return run("ydotool", "mousemove", "--wheel", strconv.Itoa(dx), strconv.Itoa(dy))
	}
	button := "4" // up
	switch direction {
	case "down":
		button = "5"
	case "left":
		button = "6"
	case "right":
		button = "7"
	}
	return run("xdotool", "click", "--repeat", strconv.Itoa(amount), button)
}

func run(name string, args ...string) error {
	if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("actuators: %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
