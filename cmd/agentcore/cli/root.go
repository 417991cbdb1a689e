// Package cli is the cobra command tree for the agentcore binary.
// Grounded on the teacher's cmd/nebo package (one file per command group,
// constructor functions returning *cobra.Command, a shared config/store
// bootstrap helper every subcommand calls into).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentcore/core/internal/core/config"
)

// Execute builds the root command and runs it. Called from main.go.
func Execute() {
	root := &cobra.Command{
		Use:   "agentcore",
		Short: "Agentic execution core: a desktop computer-use assistant",
		Long: `agentcore runs a single instruction through the agent loop, a
swarm of subtasks, or a cached skill replay, observing the screen or an
active browser tab and acting on it with a fixed tool belt.`,
	}

	root.PersistentFlags().String("config", "", "path to the YAML config file (defaults to ./agentcore.yaml)")

	root.AddCommand(RunCmd())
	root.AddCommand(DoctorCmd())
	root.AddCommand(SkillsCmd())
	root.AddCommand(SessionsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads --config (or the default path) into a config.Config,
// applying defaults for anything absent.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = "agentcore.yaml"
	}
	return config.Load(path)
}
