//go:build darwin || linux

package actuators

import "fmt"

func shellCommand() (string, []string) { return "bash", []string{} }

func wrapWithSentinel(command, token string) string {
	return fmt.Sprintf("%s\n__agentcore_rc=$?\necho %s:$__agentcore_rc\necho %s:$__agentcore_rc 1>&2\n",
		command, token, token)
}
