//go:build darwin

package actuators

// checkPlatformPermissions probes macOS's accessibility grant via
// System Events (no prompt if already trusted) and treats screen
// recording as granted when a capture actually succeeds — there is no
// prompt-free AppleScript equivalent for CGPreflightScreenCaptureAccess.
func checkPlatformPermissions() PermissionStatus {
	accessible := runOsascript(`tell application "System Events" to get UI elements enabled`) == nil

	_, err := captureAllDisplays()
	screenRecording := err == nil

	return PermissionStatus{Accessibility: accessible, ScreenRecording: screenRecording}
}
