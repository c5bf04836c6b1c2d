package app

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// サブコマンド名
const (
	CommandServe           = "serve"
	CommandMigrate         = "migrate"
	CommandCleanupSessions = "cleanup-sessions"
	CommandDeleteUser      = "delete-user"
	CommandHealthcheck     = "healthcheck"
)

// NewRootCommand はtodomanのコマンドツリーを構築する。
// サブコマンドを省略した場合はserveとして動作する。
func NewRootCommand(w io.Writer) *cobra.Command {
	var migrateFirst bool

	serveRun := func(cmd *cobra.Command, args []string) error {
		cfg, err := Init(w)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg, migrateFirst)
	}

	root := &cobra.Command{
		Use:           "todoman",
		Short:         "Multi-user to-do list web application",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serveRun,
	}
	root.SetOut(w)
	root.SetErr(w)

	serveCmd := &cobra.Command{
		Use:   CommandServe,
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  serveRun,
	}
	serveCmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")

	migrateCmd := &cobra.Command{
		Use:   CommandMigrate,
		Short: "Apply all pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(w)
			if err != nil {
				return err
			}
			return runMigrate(cfg)
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   CommandCleanupSessions,
		Short: "Delete expired sessions and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(w)
			if err != nil {
				return err
			}
			return runCleanupSessions(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	deleteUserCmd := &cobra.Command{
		Use:   CommandDeleteUser + " <username>",
		Short: "Delete a user together with their todos and sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(w)
			if err != nil {
				return err
			}
			return runDeleteUser(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
		},
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	healthcheckCmd := &cobra.Command{
		Use:   CommandHealthcheck,
		Short: "Probe the local /health endpoint (for container health checks)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port := os.Getenv("SERVER_PORT")
			if port == "" {
				port = "8080"
			}
			return runHealthcheck(cmd.Context(), port)
		},
	}

	root.AddCommand(serveCmd, migrateCmd, cleanupCmd, deleteUserCmd, healthcheckCmd)
	return root
}
