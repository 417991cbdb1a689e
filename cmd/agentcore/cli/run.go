package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentcore/core/internal/core/agentloop"
	"github.com/agentcore/core/internal/core/types"
)

// RunCmd builds "agentcore run <instruction>" — one instruction through
// the Single-Agent Loop, printed to stdout on completion.
func RunCmd() *cobra.Command {
	var mode string
	var voice bool
	var conversationID string

	cmd := &cobra.Command{
		Use:   "run [instruction]",
		Short: "Run one instruction through the agent loop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			a, err := buildApp(cfg)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer a.Close()

			m := types.ModeComputer
			if mode == "browser" {
				m = types.ModeBrowser
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := a.Loop.Run(ctx, agentloop.Request{
				Instruction:    args[0],
				Mode:           m,
				VoiceMode:      voice,
				ConversationID: conversationID,
				Model:          cfg.Anthropic.Model,
			})
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			fmt.Println(res.FinalText)
			fmt.Fprintf(cmd.ErrOrStderr(), "conversation: %s\n", res.Conversation.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "computer", "computer or browser")
	cmd.Flags().BoolVar(&voice, "voice", false, "treat the instruction as having arrived by voice")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "resume an existing conversation by id")

	return cmd
}
