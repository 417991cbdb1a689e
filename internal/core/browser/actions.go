package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Click clicks the element identified by uid.
func (t *Tab) Click(uid string) error {
	ref, err := t.resolve(uid)
	if err != nil {
		return err
	}
	return t.page.Locator(t.locatorForRef(ref)).Click()
}

// DoubleClick double-clicks the element identified by uid.
func (t *Tab) DoubleClick(uid string) error {
	ref, err := t.resolve(uid)
	if err != nil {
		return err
	}
	return t.page.Locator(t.locatorForRef(ref)).Dblclick()
}

// Hover moves the pointer over the element identified by uid.
func (t *Tab) Hover(uid string) error {
	ref, err := t.resolve(uid)
	if err != nil {
		return err
	}
	return t.page.Locator(t.locatorForRef(ref)).Hover()
}

// Fill types text into the element identified by uid, replacing its
// current value.
func (t *Tab) Fill(uid, text string) error {
	ref, err := t.resolve(uid)
	if err != nil {
		return err
	}
	return t.page.Locator(t.locatorForRef(ref)).Fill(text)
}

// DragFromTo drags from the element identified by fromUID to toUID.
func (t *Tab) DragFromTo(fromUID, toUID string) error {
	fromRef, err := t.resolve(fromUID)
	if err != nil {
		return err
	}
	toRef, err := t.resolve(toUID)
	if err != nil {
		return err
	}
	return t.page.Locator(t.locatorForRef(fromRef)).DragTo(t.page.Locator(t.locatorForRef(toRef)))
}

// PressKey sends a key combination to the element identified by uid, or to
// the page if uid is empty.
func (t *Tab) PressKey(uid, key string) error {
	if uid == "" {
		return t.page.Keyboard().Press(key)
	}
	ref, err := t.resolve(uid)
	if err != nil {
		return err
	}
	return t.page.Locator(t.locatorForRef(ref)).Press(key)
}

// Scroll scrolls the element identified by uid (or the page if empty) by
// the given pixel delta.
func (t *Tab) Scroll(uid string, dx, dy float64) error {
	if uid != "" {
		ref, err := t.resolve(uid)
		if err != nil {
			return err
		}
		_, err = t.page.Locator(t.locatorForRef(ref)).Evaluate(
			fmt.Sprintf("el => el.scrollBy(%f, %f)", dx, dy), nil)
		return err
	}
	_, err := t.page.Evaluate(fmt.Sprintf("window.scrollBy(%f, %f)", dx, dy))
	return err
}

// FillForm fills several fields identified by uid in one call.
func (t *Tab) FillForm(fields map[string]string) error {
	for uid, value := range fields {
		if err := t.Fill(uid, value); err != nil {
			return fmt.Errorf("browser: fill form field %s: %w", uid, err)
		}
	}
	return nil
}

// HandleDialog arms a one-shot handler for the next native dialog (alert,
// confirm, prompt) on the tab, accepting or dismissing it with optional
// prompt text.
func (t *Tab) HandleDialog(accept bool, promptText string) {
	t.page.Once("dialog", func(d playwright.Dialog) {
		if accept {
			_ = d.Accept(promptText)
		} else {
			_ = d.Dismiss()
		}
	})
}

// UploadFile sets the file input identified by uid to the given local paths.
func (t *Tab) UploadFile(uid string, paths ...string) error {
	ref, err := t.resolve(uid)
	if err != nil {
		return err
	}
	return t.page.Locator(t.locatorForRef(ref)).SetInputFiles(paths)
}

// WaitForText waits up to timeout for text to appear anywhere in the page.
func (t *Tab) WaitForText(text string, timeout time.Duration) error {
	loc := t.page.GetByText(text, playwright.PageGetByTextOptions{Exact: playwright.Bool(false)})
	return loc.First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// Screenshot captures the tab's current viewport as a JPEG.
func (t *Tab) Screenshot() ([]byte, error) {
	return t.page.Screenshot(playwright.PageScreenshotOptions{
		Type:    playwright.ScreenshotTypeJpeg,
		Quality: playwright.Int(85),
	})
}

// GoToURL navigates the tab, soft-timing out after navigateSoftWait —
// a slow load proceeds rather than failing the tool call outright.
func (t *Tab) GoToURL(url string) error {
	_, err := t.page.Goto(url, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(navigateSoftWait.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return nil
	}
	return err
}

// Back navigates the tab's history backward.
func (t *Tab) Back() error {
	_, err := t.page.GoBack()
	return err
}

// Forward navigates the tab's history forward.
func (t *Tab) Forward() error {
	_, err := t.page.GoForward()
	return err
}

// Reload reloads the tab. With skipCache it waits for the network to go
// idle before returning; it does not bypass the HTTP cache.
func (t *Tab) Reload(skipCache bool) error {
	opts := playwright.PageReloadOptions{}
	if skipCache {
		opts.WaitUntil = playwright.WaitUntilStateNetworkidle
	}
	_, err := t.page.Reload(opts)
	return err
}

// OpenNewTab opens about:blank in a fresh tab on the driver and makes it
// active, returning the new Tab.
func (d *Driver) OpenNewTab() (*Tab, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	page, err := d.context.NewPage()
	if err != nil {
		return nil, err
	}
	return d.adoptPage(page), nil
}

// ListTabs returns every open tab's id and current URL.
func (d *Driver) ListTabs() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.tabs))
	for id, t := range d.tabs {
		out[id] = t.page.URL()
	}
	return out
}

// SwitchToTab makes tabID the active tab and brings it to the foreground.
func (d *Driver) SwitchToTab(tabID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tabs[tabID]
	if !ok {
		return fmt.Errorf("browser: unknown tab %q", tabID)
	}
	if err := t.page.BringToFront(); err != nil {
		return err
	}
	d.activeTabID = tabID
	return nil
}

// CloseTab closes and forgets tabID. If it was active, the driver falls
// back to any remaining tab.
func (d *Driver) CloseTab(tabID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tabs[tabID]
	if !ok {
		return fmt.Errorf("browser: unknown tab %q", tabID)
	}
	if err := t.page.Close(); err != nil {
		return err
	}
	delete(d.tabs, tabID)
	if d.activeTabID == tabID {
		d.activeTabID = ""
		for id := range d.tabs {
			d.activeTabID = id
			break
		}
	}
	return nil
}
