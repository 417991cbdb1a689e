package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/logging"
	"github.com/agentcore/core/internal/core/session"
)

// SessionsCmd builds "agentcore sessions [list|delete]", grounded on
// the teacher's cmd/nebo session command.
func SessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage stored conversations",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openSessionStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			convs, err := store.List(limit)
			if err != nil {
				return fmt.Errorf("list conversations: %w", err)
			}
			for _, c := range convs {
				fmt.Printf("%s  %-10s %-8s messages=%-3d  %s\n", c.ID, c.Mode, c.Model, len(c.Messages), c.Title)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "maximum conversations to list")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openSessionStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			return store.Delete(args[0])
		},
	})

	return cmd
}

func openSessionStore(cmd *cobra.Command) (*session.Store, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	dbStore, err := db.Open(cfg.Database.SQLitePath, logging.Nop())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return session.New(dbStore), func() { _ = dbStore.Close() }, nil
}
