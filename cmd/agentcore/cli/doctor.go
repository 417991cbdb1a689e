package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentcore/core/internal/core/actuators"
)

type checkResult struct {
	name    string
	ok      bool
	message string
}

// DoctorCmd builds "agentcore doctor", grounded on the teacher's doctor
// command: a flat list of pass/fail checks printed with a status glyph,
// no attempt to auto-fix anything this core doesn't itself own.
func DoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, permissions, and storage health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			var results []checkResult

			results = append(results, checkResult{
				name: "Anthropic API key", ok: cfg.Anthropic.APIKey != "",
				message: "set Anthropic.APIKey in config or ANTHROPIC_API_KEY in the environment",
			})

			perms := actuators.CheckPermissions()
			results = append(results, checkResult{
				name: "Accessibility permission", ok: perms.Accessibility,
				message: "grant accessibility access so the computer tool can control input",
			})
			results = append(results, checkResult{
				name: "Screen recording permission", ok: perms.ScreenRecording,
				message: "grant screen-recording access so the computer tool can capture the desktop",
			})

			a, err := buildApp(cfg)
			if err != nil {
				results = append(results, checkResult{name: "Database and actuators bootstrap", ok: false, message: err.Error()})
			} else {
				results = append(results, checkResult{name: "Database and actuators bootstrap", ok: true})
				a.Close()
			}

			failed := 0
			for _, r := range results {
				glyph := "ok"
				if !r.ok {
					glyph = "FAIL"
					failed++
				}
				if r.message != "" && !r.ok {
					fmt.Printf("[%s] %s — %s\n", glyph, r.name, r.message)
				} else {
					fmt.Printf("[%s] %s\n", glyph, r.name)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}
