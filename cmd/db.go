package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ap6pack/PDF-Search-Plus/internal/config"
	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
	dbCmd.AddCommand(Check())
	dbCmd.AddCommand(Reindex())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		Run: func(cmd *cobra.Command, args []string) {
			db := config.GetDb(config.LoadConfig())
			err := model.Migrate(db)
			if err != nil {
				panic(err)
			}
			color.Green("schema is up to date")
		},
	}

	return command
}

func Check() *cobra.Command {
	command := &cobra.Command{
		Use:   "check",
		Short: "Verify the schema and heal a drifted search index",
		Run: func(cmd *cobra.Command, args []string) {
			db := config.GetDb(config.LoadConfig())
			err := model.VerifySchema(db)
			if err != nil {
				color.Red("schema verification failed: %v", err)
				return
			}
			color.Green("schema verified")
		},
	}

	return command
}

func Reindex() *cobra.Command {
	command := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the full-text index from the stored text",
		Run: func(cmd *cobra.Command, args []string) {
			db := config.GetDb(config.LoadConfig())
			err := model.RebuildFTS(db)
			if err != nil {
				color.Red("reindex failed: %v", err)
				return
			}
			color.Green("full-text index rebuilt")
		},
	}

	return command
}
