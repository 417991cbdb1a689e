package browser

import (
	"github.com/playwright-community/playwright-go"
)

// stealthPreamble overrides the automation-detection signals a target page
// can probe for. It is registered via AddInitScript so it runs before any
// page script on every new document — content-equivalent across pages,
// never injected after navigation.
const stealthPreamble = `
(() => {
  const define = (obj, prop, value) => Object.defineProperty(obj, prop, { get: () => value, configurable: true });

  define(navigator, 'webdriver', undefined);
  define(navigator, 'languages', ['en-US', 'en']);
  define(navigator, 'plugins', [1, 2, 3, 4, 5]);
  define(navigator, 'hardwareConcurrency', 8);
  define(navigator, 'deviceMemory', 8);
  define(navigator, 'connection', { effectiveType: '4g', rtt: 50, downlink: 10, saveData: false });

  const originalQuery = window.navigator.permissions && window.navigator.permissions.query;
  if (originalQuery) {
    window.navigator.permissions.query = (params) => (
      params && params.name === 'notifications'
        ? Promise.resolve({ state: Notification.permission })
        : originalQuery(params)
    );
  }

  const getParameter = WebGLRenderingContext.prototype.getParameter;
  WebGLRenderingContext.prototype.getParameter = function (param) {
    if (param === 37445) return 'Intel Inc.';
    if (param === 37446) return 'Intel Iris OpenGL Engine';
    return getParameter.call(this, param);
  };

  delete window.__playwright;
  delete window.__pw_manual;
  delete window.__PW_inspect;
  delete window.cdc_adoQpoasnfa76pfcZLmcfl_Array;
  delete window.cdc_adoQpoasnfa76pfcZLmcfl_Promise;
  delete window.cdc_adoQpoasnfa76pfcZLmcfl_Symbol;
})();
`

// registerStealthPreamble installs the preamble on every new document in
// the context, via the devtools "evaluate on new document" hook.
func registerStealthPreamble(ctx playwright.BrowserContext) error {
	return ctx.AddInitScript(playwright.Script{Content: playwright.String(stealthPreamble)})
}

// consentCookies presets acceptance for the major search provider's cookie
// consent banner so a stealth-open never stalls on a dialog the model has
// to notice and dismiss.
var consentCookies = []playwright.OptionalCookie{
	{
		Name:   "CONSENT",
		Value:  "YES+",
		Domain: playwright.String(".google.com"),
		Path:   playwright.String("/"),
	},
}

func presetConsentCookies(ctx playwright.BrowserContext) error {
	return ctx.AddCookies(consentCookies)
}

// commonConsentSelectors are tried, in order, by the best-effort
// cookie-consent dismisser after a stealth-open navigation completes.
var commonConsentSelectors = []string{
	`button:has-text("Accept all")`,
	`button:has-text("I agree")`,
	`button:has-text("Accept")`,
	`#L2AGLb`, // Google's consent-dialog accept button id
	`[aria-label="Accept all"]`,
}

// dismissConsentBanner tries each common selector in turn, clicking the
// first one that's visible within a short timeout. It never errors — a
// missing banner is the common case, not a failure.
func dismissConsentBanner(page playwright.Page) {
	for _, sel := range commonConsentSelectors {
		loc := page.Locator(sel).First()
		if err := loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(800)}); err == nil {
			return
		}
	}
}

// StealthOpen opens a blank page first, lets the init script + consent
// cookies apply, then navigates — so every script on the target page
// observes the spoofed environment from its very first tick.
func (d *Driver) StealthOpen(url string) (*Tab, error) {
	d.mu.Lock()
	page, err := d.context.NewPage()
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	tab := d.adoptPage(page)
	d.mu.Unlock()

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(navigateSoftWait.Milliseconds())),
	}); err != nil {
		return tab, err
	}
	dismissConsentBanner(page)
	return tab, nil
}
