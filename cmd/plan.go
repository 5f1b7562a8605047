package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nethalo/dbmigrate/internal/classify"
	"github.com/nethalo/dbmigrate/internal/mysqlconn"
	"github.com/nethalo/dbmigrate/internal/parser"
	"github.com/nethalo/dbmigrate/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var planCmd = &cobra.Command{
	Use:   "plan [SQL statement]",
	Short: "Classify a DDL statement before running it",
	Long: `Classify a MySQL ALTER TABLE statement against the connected server and report:
  - Algorithm and lock level (INSTANT, INPLACE, COPY)
  - Whether it rebuilds the table
  - A recommendation: run it directly, or route it through the migrate engine
  - Topology and primary-key warnings that apply to either path`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sqlText, err := getSQLInput(cmd, args)
		if err != nil {
			return err
		}

		parsed, err := parser.Parse(sqlText)
		if err != nil {
			return fmt.Errorf("SQL parse error: %w", err)
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

		planner := classify.NewPlanner(conn)
		plan, err := planner.Plan(context.Background(), sqlText)
		if err != nil {
			return fmt.Errorf("classification failed: %w", err)
		}

		format := viper.GetString("format")
		renderer := render.NewPlanRenderer(format, os.Stdout)
		renderer.RenderPlan(plan)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().String("file", "", "Read SQL from file instead of argument")
}

func getSQLInput(cmd *cobra.Command, args []string) (string, error) {
	filePath, _ := cmd.Flags().GetString("file")

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("could not read file %s: %w", filePath, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}

	return "", fmt.Errorf("provide a SQL statement as argument or use --file flag")
}
