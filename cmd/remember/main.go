package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	remember "github.com/unowned-ai/remember/pkg"
	"github.com/unowned-ai/remember/pkg/config"
	pkgdb "github.com/unowned-ai/remember/pkg/db"
	"github.com/unowned-ai/remember/pkg/logger"
	"github.com/unowned-ai/remember/pkg/utils"
	"go.uber.org/zap"
)

var (
	cfg *config.Config

	dbPath   string
	walMode  bool
	syncMode string
	logLevel string
	timeZone string
)

var rootCmd = &cobra.Command{
	Use:     "remember",
	Short:   "Remember the people you meet.",
	Long:    `Keep track of the people you meet: when you met them, a photo, notes and tags.`,
	Version: fmt.Sprintf("v%s", remember.Version),
	// The stdio and terminal front ends own the terminal, so only the log file is written for them.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		console := cmd.Name() != mcpCmd.Name() && cmd.Name() != "tui"
		_, err := logger.Init(logger.Options{
			Dir:     cfg.Log.Dir,
			Level:   logLevel,
			Console: console,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for remember.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(remember completion bash)

  Zsh:
    $ remember completion zsh > "${fpath[1]}/_remember"

  Fish:
    $ remember completion fish > ~/.config/fish/completions/remember.fish

  PowerShell:
    PS> remember completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	// Completion output goes to stdout; skip logger setup noise.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of remember",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		info := remember.GetInfo()
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remember %s (commit %s, built %s)\n", info.Version, info.GitCommit, info.BuildTime)
		return nil
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the remember database",
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Create or upgrade the database schema",
	Long: `Connects to the SQLite database (the --db flag, REMEMBER_DB or the system default) and
brings the contactsdb component up to the current schema version. A missing database is
created and initialised.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := utils.ResolveAndEnsureDBPath(dbPath)
		if err != nil {
			return err
		}
		zap.L().Info("upgrading database",
			zap.String("db", resolved),
			zap.Bool("wal", walMode),
			zap.String("sync", syncMode),
		)

		dbConn, err := pkgdb.OpenDBConnection(resolved, walMode, syncMode)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := pkgdb.UpgradeDB(dbConn, resolved, pkgdb.TargetSchemaVersion); err != nil {
			return err
		}
		version, err := pkgdb.GetComponentSchemaVersion(dbConn, pkgdb.ContactsDBComponent)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database %s is at schema version %d.\n", resolved, version)
		return nil
	},
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.Database.Path, "Path to the database file (defaults to a system-specific location)")
	rootCmd.PersistentFlags().BoolVar(&walMode, "wal", cfg.Database.WAL, "Enable SQLite WAL (Write-Ahead Logging) mode")
	rootCmd.PersistentFlags().StringVar(&syncMode, "sync", cfg.Database.Sync, "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&timeZone, "tz", cfg.TimeZone, "Time zone contacts are grouped by day in (defaults to local time)")

	versionCmd.Flags().Bool("json", false, "Print version information as JSON")

	dbCmd.AddCommand(dbUpgradeCmd)

	initContactsCmd()
	initTagsCmd()
	initSettingsCmd()
	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, contactsCmd, tagsCmd, settingsCmd, mcpCmd)
}

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
