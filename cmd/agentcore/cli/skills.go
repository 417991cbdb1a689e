package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/logging"
	"github.com/agentcore/core/internal/core/skills"
)

// SkillsCmd builds "agentcore skills [list|show]", grounded on the
// teacher's cmd/nebo skills command (a parent with list/show children,
// each loading its own store rather than sharing the run command's full
// bootstrap).
func SkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Inspect predefined and learned skills",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every loaded skill",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeDB, err := openSkillCache(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			for _, sk := range cache.Skills() {
				kind := "learned"
				if sk.Predefined {
					kind = "predefined"
				}
				fmt.Printf("%-30s %-10s uses=%-5d success_rate=%.2f  %s\n",
					sk.Name, kind, sk.TotalUses, sk.SuccessRate, sk.Description)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show [name]",
		Short: "Show one skill's full action sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeDB, err := openSkillCache(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			for _, sk := range cache.Skills() {
				if sk.Name != args[0] {
					continue
				}
				fmt.Printf("%s — %s\n", sk.Name, sk.Description)
				fmt.Printf("keywords: %v\n", sk.Pattern.IntentKeywords)
				for i, step := range sk.Actions {
					fmt.Printf("  %d. %s %v\n", i+1, step.Action, step.Payload)
				}
				return nil
			}
			return fmt.Errorf("no skill named %q", args[0])
		},
	})

	return cmd
}

func openSkillCache(cmd *cobra.Command) (*skills.Cache, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	dbStore, err := db.Open(cfg.Database.SQLitePath, logging.Nop())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	cache, err := skills.NewCache(dbStore)
	if err != nil {
		_ = dbStore.Close()
		return nil, nil, fmt.Errorf("load skill cache: %w", err)
	}
	return cache, func() { _ = dbStore.Close() }, nil
}
