package actuators

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/kbinani/screenshot"

	"github.com/agentcore/core/internal/core/types"
)

const jpegQuality = 85

// SelfWindowLocator reports the screen-space bounds of the assistant's own
// on-screen surfaces (e.g. a Wails overlay window), so screenshots meant to
// show the user's desktop can composite around them. A nil or empty result
// means no self-windows are currently visible.
type SelfWindowLocator interface {
	SelfWindowBounds() ([]types.Rect, error)
}

// noSelfWindows is used when the host has no on-screen surfaces to exclude
// (e.g. headless/background mode).
type noSelfWindows struct{}

func (noSelfWindows) SelfWindowBounds() ([]types.Rect, error) { return nil, nil }

// Screen is the Screen/Input actuator: capture plus input dispatch.
type Screen struct {
	locator SelfWindowLocator
	input   *inputWorker
}

// NewScreen builds a Screen actuator. locator may be nil, in which case
// TakeScreenshotExcludingSelfWindows behaves like TakeScreenshot.
func NewScreen(locator SelfWindowLocator) *Screen {
	if locator == nil {
		locator = noSelfWindows{}
	}
	return &Screen{locator: locator, input: newInputWorker()}
}

// Close stops the input worker goroutine. Safe to call once.
func (s *Screen) Close() { s.input.close() }

// TakeScreenshot captures every active display, unioned into one image, and
// returns it JPEG-encoded.
func (s *Screen) TakeScreenshot() ([]byte, error) {
	img, err := captureAllDisplays()
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img)
}

// TakeScreenshotExcludingSelfWindows captures the desktop and paints over any
// region the SelfWindowLocator reports as belonging to the assistant's own
// surfaces, so the model never sees its own chrome.
func (s *Screen) TakeScreenshotExcludingSelfWindows() ([]byte, error) {
	img, err := captureAllDisplays()
	if err != nil {
		return nil, err
	}

	self, err := s.locator.SelfWindowBounds()
	if err != nil {
		return nil, fmt.Errorf("actuators: locate self windows: %w", err)
	}

	if len(self) > 0 {
		rgba, ok := img.(*image.RGBA)
		if !ok {
			converted := image.NewRGBA(img.Bounds())
			draw.Draw(converted, img.Bounds(), img, img.Bounds().Min, draw.Src)
			rgba = converted
		}
		for _, r := range self {
			blackout(rgba, r)
		}
		img = rgba
	}

	return encodeJPEG(img)
}

// TakeScreenshotRegion captures a single rectangle of the desktop.
func (s *Screen) TakeScreenshotRegion(rect types.Rect) ([]byte, error) {
	bounds := image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("actuators: capture region: %w", err)
	}
	return encodeJPEG(img)
}

// PerformAction dispatches one ComputerAction on the platform input worker.
// Screenshot-producing verbs (screenshot, zoom) return the captured image;
// all other verbs return nil on success.
func (s *Screen) PerformAction(action types.ComputerAction) ([]byte, error) {
	switch action.Verb {
	case types.VerbScreenshot:
		return s.TakeScreenshotExcludingSelfWindows()
	case types.VerbZoom:
		if action.Region == nil {
			return nil, fmt.Errorf("actuators: zoom requires a region")
		}
		return s.TakeScreenshotRegion(*action.Region)
	case types.VerbWait:
		return nil, s.input.run(action)
	default:
		return nil, s.input.run(action)
	}
}

func captureAllDisplays() (image.Image, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, fmt.Errorf("actuators: no active displays")
	}
	if n == 1 {
		bounds := screenshot.GetDisplayBounds(0)
		return screenshot.CaptureRect(bounds)
	}

	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}

	canvas := image.NewRGBA(image.Rect(0, 0, union.Dx(), union.Dy()))
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		shot, err := screenshot.CaptureRect(bounds)
		if err != nil {
			return nil, fmt.Errorf("actuators: capture display %d: %w", i, err)
		}
		offset := image.Pt(bounds.Min.X-union.Min.X, bounds.Min.Y-union.Min.Y)
		draw.Draw(canvas, shot.Bounds().Add(offset), shot, image.Point{}, draw.Src)
	}
	return canvas, nil
}

func blackout(img *image.RGBA, r types.Rect) {
	region := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Intersect(img.Bounds())
	if region.Empty() {
		return
	}
	draw.Draw(img, region, image.Black, image.Point{}, draw.Src)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("actuators: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
