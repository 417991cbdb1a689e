//go:build windows

package actuators

import "fmt"

func shellCommand() (string, []string) { return "cmd.exe", []string{} }

func wrapWithSentinel(command, token string) string {
	return fmt.Sprintf("%s\necho %s:%%errorlevel%%\necho %s:%%errorlevel%% 1>&2\n",
		command, token, token)
}
