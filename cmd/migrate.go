package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nethalo/dbmigrate/internal/classify"
	"github.com/nethalo/dbmigrate/internal/migrate"
	"github.com/nethalo/dbmigrate/internal/mysqlconn"
	"github.com/nethalo/dbmigrate/internal/parser"
	"github.com/nethalo/dbmigrate/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var migrateCmd = &cobra.Command{
	Use:   "run [ALTER statement]",
	Short: "Run an ALTER TABLE through the shadow-table engine",
	Long: `Run classifies the statement, then refuses to proceed when a direct
ALTER would be just as safe, unless --force skips that check. Otherwise it
creates a shadow table, applies the statement to the shadow,
mirrors live writes with triggers, back-fills existing rows in bounded
chunks, and cuts over with an atomic RENAME (or LOCK TABLES if the server
can't do the atomic swap).

--callback-file reads a flat .sql script instead of a single statement and
applies every ALTER TABLE in it to the shadow, in order; the pre-flight
recommendation check only looks at the first statement, since that is
normally the schema change driving the migration.

Ctrl-C during a run cancels the in-flight step; the entangler and switcher
unwind their own triggers and locks on cancellation, but a chunk copy that
is already committed stays committed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		statements, err := getCallbackStatements(cmd, args)
		if err != nil {
			return err
		}
		sqlText := statements[0]

		parsed, err := parser.Parse(sqlText)
		if err != nil {
			return fmt.Errorf("SQL parse error: %w", err)
		}
		if parsed.Table == "" {
			return fmt.Errorf("could not determine target table from statement")
		}

		connCfg := mysqlconn.ConnectionConfig{
			Host:     viper.GetString("host"),
			Port:     viper.GetInt("port"),
			User:     viper.GetString("user"),
			Password: viper.GetString("password"),
			Database: viper.GetString("database"),
			Socket:   viper.GetString("socket"),
		}

		if connCfg.Host == "" && connCfg.Socket == "" {
			connCfg.Host = "127.0.0.1"
		}
		if connCfg.User == "" {
			connCfg.User = "dbmigrate"
		}
		if connCfg.Database == "" && parsed.Database != "" {
			connCfg.Database = parsed.Database
		}
		if connCfg.Database == "" {
			return fmt.Errorf("database not specified: use -d flag or specify database in SQL (e.g., ALTER TABLE mydb.users ...)")
		}
		if connCfg.Password == "" {
			connCfg.Password = mysqlconn.PromptPassword()
		}

		conn, err := mysqlconn.Connect(connCfg)
		if err != nil {
			return fmt.Errorf("connection failed: %w", err)
		}
		defer conn.Close()

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			planner := classify.NewPlanner(conn)
			plan, err := planner.Plan(context.Background(), sqlText)
			if err != nil {
				return fmt.Errorf("pre-flight classification failed: %w", err)
			}
			if plan.Recommendation == classify.RecommendDirect {
				return fmt.Errorf("%s: run it directly instead, or pass --force to use the migrate engine anyway", plan.Reason)
			}
		}

		cfg := migrate.Config{
			Stride:        viper.GetInt("stride"),
			Throttle:      time.Duration(viper.GetInt("throttle_ms")) * time.Millisecond,
			ArchivePrefix: viper.GetString("archive_prefix"),
		}

		runner := migrate.NewRunner(conn, connCfg.Database, parsed.Table, cfg)

		format := viper.GetString("format")
		runner.SetReporter(render.NewReporter(format, os.Stdout))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, err = runner.Run(ctx, func(ctx context.Context, shadow *mysqlconn.Table) error {
			for _, stmt := range statements {
				rewritten, err := parser.RewriteAlterTarget(stmt, shadow.Database(), shadow.Name())
				if err != nil {
					return err
				}
				if _, err := shadow.Exec(ctx, rewritten); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().String("file", "", "Read the ALTER statement from file instead of argument")
	migrateCmd.Flags().String("callback-file", "", "Read a flat .sql script of statements to apply to the shadow table")
	migrateCmd.Flags().Bool("force", false, "Skip the pre-flight recommendation check and always use the migrate engine")
	migrateCmd.Flags().Int("stride", 2000, "Chunker rows per back-fill batch")
	migrateCmd.Flags().Int("throttle-ms", 100, "Milliseconds to sleep between chunks")
	migrateCmd.Flags().String("archive-prefix", "dmg_archive", "Prefix for the post-cutover origin table name")

	viper.BindPFlag("stride", migrateCmd.Flags().Lookup("stride"))
	viper.BindPFlag("throttle_ms", migrateCmd.Flags().Lookup("throttle-ms"))
	viper.BindPFlag("archive_prefix", migrateCmd.Flags().Lookup("archive-prefix"))
}

// getCallbackStatements resolves the ALTER statement(s) to apply to the
// shadow table: --callback-file splits a flat .sql script into individual
// statements via the vitess tokenizer, otherwise the single statement comes
// from --file or the positional argument as usual.
func getCallbackStatements(cmd *cobra.Command, args []string) ([]string, error) {
	callbackFile, _ := cmd.Flags().GetString("callback-file")
	if callbackFile == "" {
		sqlText, err := getSQLInput(cmd, args)
		if err != nil {
			return nil, err
		}
		return []string{sqlText}, nil
	}

	data, err := os.ReadFile(callbackFile)
	if err != nil {
		return nil, fmt.Errorf("could not read callback file %s: %w", callbackFile, err)
	}
	statements, err := parser.SplitStatements(string(data))
	if err != nil {
		return nil, fmt.Errorf("splitting callback file %s: %w", callbackFile, err)
	}
	if len(statements) == 0 {
		return nil, fmt.Errorf("callback file %s contains no statements", callbackFile)
	}
	return statements, nil
}
