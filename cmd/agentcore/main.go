// Command agentcore runs the agentic execution core's CLI entrypoint.
package main

import "github.com/agentcore/core/cmd/agentcore/cli"

func main() {
	cli.Execute()
}
