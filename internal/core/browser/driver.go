// Package browser is the Browser driver actuator: a remote-tab controller
// over a devtools channel, backed by playwright-go the way the teacher's
// internal/browser package drives Chrome — connect-or-launch, a persistent
// profile directory, accessibility-tree snapshots keyed by stable refs. The
// core generalizes the teacher's chromedp-era connect/launch dance onto
// playwright-go's ConnectOverCDP/LaunchPersistentContext pair and adds the
// snapshot-id-scoped UID and stealth-preamble machinery spec.md requires.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// NeedsRestartError is returned by Connect when a browser is already
// running without the debug channel the driver needs. Connect does not
// attempt to restart that browser itself. The caller (the Single-Agent
// Loop) turns this into a dedicated UI event asking the user to restart
// manually.
type NeedsRestartError struct {
	Reason string
}

func (e *NeedsRestartError) Error() string {
	return fmt.Sprintf("browser: needs restart with debug channel enabled: %s", e.Reason)
}

// StaleUIDError is returned when a UID's snapshot_id no longer matches the
// tab's current snapshot.
type StaleUIDError struct {
	UID             string
	CurrentSnapshot string
}

func (e *StaleUIDError) Error() string {
	return fmt.Sprintf("browser: stale uid %q, current snapshot is %q — take a fresh snapshot", e.UID, e.CurrentSnapshot)
}

const (
	defaultCDPPort   = 9222
	cdpProbeTimeout  = 1500 * time.Millisecond
	navigateSoftWait = 10 * time.Second
)

// Driver owns the single shared browser handle behind a mutex — the core
// holds it across tool calls within one run per the concurrency model.
type Driver struct {
	mu sync.Mutex

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext

	profileDir string
	stealthOn  bool

	tabs        map[string]*Tab // tabID -> Tab
	activeTabID string
	nextTabSeq  int
}

// Tab wraps one playwright Page plus the driver's snapshot/UID bookkeeping.
type Tab struct {
	ID   string
	page playwright.Page

	mu          sync.Mutex
	snapshotID  string
	snapshotSeq int
	refs        map[string]elementRef // uid -> ref
}

type elementRef struct {
	role string
	name string
	nth  int
}

// NewDriver constructs an unconnected Driver. Connect must be called before
// any tab operation.
func NewDriver(profileDir string, stealthOn bool) *Driver {
	return &Driver{profileDir: profileDir, stealthOn: stealthOn, tabs: make(map[string]*Tab)}
}

// Connect auto-discovers an existing debuggable browser instance on the
// well-known CDP port; failing that, it launches a fresh instance with a
// dedicated profile directory and debugging enabled. If a browser is
// already running on the target profile without a debug channel, it
// returns a *NeedsRestartError so the UI can prompt the user.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser != nil {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("browser: start playwright driver: %w", err)
	}
	d.pw = pw

	if wsURL, ok := discoverCDPEndpoint(defaultCDPPort); ok {
		b, err := pw.Chromium.ConnectOverCDP(wsURL)
		if err == nil {
			d.browser = b
			contexts := b.Contexts()
			if len(contexts) > 0 {
				d.context = contexts[0]
			} else {
				d.context, err = b.NewContext()
				if err != nil {
					return fmt.Errorf("browser: new context on connected instance: %w", err)
				}
			}
			return d.finishConnect()
		}
	}

	if cdpPortOccupiedByNonDebugBrowser(defaultCDPPort) {
		return &NeedsRestartError{Reason: "a browser instance is running without --remote-debugging-port"}
	}

	profile := filepathForProfile(d.profileDir)
	if err := os.MkdirAll(profile, 0o755); err != nil {
		return fmt.Errorf("browser: create profile dir: %w", err)
	}

	launchCtx, err := pw.Chromium.LaunchPersistentContext(profile, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(false),
		Args: []string{
			fmt.Sprintf("--remote-debugging-port=%d", defaultCDPPort),
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		return fmt.Errorf("browser: launch persistent context: %w", err)
	}
	d.context = launchCtx
	return d.finishConnect()
}

func (d *Driver) finishConnect() error {
	if d.stealthOn {
		if err := registerStealthPreamble(d.context); err != nil {
			return fmt.Errorf("browser: register stealth preamble: %w", err)
		}
		if err := presetConsentCookies(d.context); err != nil {
			return fmt.Errorf("browser: preset consent cookies: %w", err)
		}
	}

	pages := d.context.Pages()
	if len(pages) > 0 {
		d.adoptPage(pages[0])
	}
	return nil
}

func (d *Driver) adoptPage(p playwright.Page) *Tab {
	d.nextTabSeq++
	t := &Tab{ID: fmt.Sprintf("tab-%d", d.nextTabSeq), page: p, refs: make(map[string]elementRef)}
	d.tabs[t.ID] = t
	d.activeTabID = t.ID
	return t
}

// Close tears down the browser, releasing the playwright driver process.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.context != nil {
		_ = d.context.Close()
	}
	if d.browser != nil {
		_ = d.browser.Close()
	}
	if d.pw != nil {
		return d.pw.Stop()
	}
	return nil
}

// ActiveTab returns the currently selected tab, or an error if none exists.
func (d *Driver) ActiveTab() (*Tab, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tabs[d.activeTabID]
	if !ok {
		return nil, fmt.Errorf("browser: no active tab")
	}
	return t, nil
}

// discoverCDPEndpoint probes the well-known devtools port for a reachable
// instance and returns its websocket debugger URL.
func discoverCDPEndpoint(port int) (string, bool) {
	client := http.Client{Timeout: cdpProbeTimeout}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/json/version", port))
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	var info struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.WebSocketDebuggerURL == "" {
		return "", false
	}
	return info.WebSocketDebuggerURL, true
}

// cdpPortOccupiedByNonDebugBrowser is a best-effort heuristic: something is
// listening on the ordinary HTTP port used by a browser's default profile
// but /json/version never answered, implying a browser is up without the
// debug flag.
func cdpPortOccupiedByNonDebugBrowser(port int) bool {
	client := http.Client{Timeout: cdpProbeTimeout}
	_, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/json/version", port))
	return err != nil && strings.Contains(err.Error(), "connection reset")
}

// filepathForProfile builds a per-user dedicated profile directory path,
// mirroring the teacher's practice of never reusing the user's default
// browser profile for an automated session.
func filepathForProfile(base string) string {
	return filepath.Join(base, "agentcore-browser-profile")
}
