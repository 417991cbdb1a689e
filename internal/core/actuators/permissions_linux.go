//go:build linux

package actuators

func checkPlatformPermissions() PermissionStatus {
	return PermissionStatus{Accessibility: true, ScreenRecording: true}
}
