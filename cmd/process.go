package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ap6pack/PDF-Search-Plus/internal/app"
	"github.com/Ap6pack/PDF-Search-Plus/internal/config"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "extract text and images from pdf files",
}

func init() {
	processCmd.AddCommand(processFileCommand())
	processCmd.AddCommand(processFolderCommand())
}

func processFileCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "file",
		Short: "Process a single pdf file",
		Run: func(cmd *cobra.Command, args []string) {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				color.Red("missing file path")
				return
			}

			session := openSession()
			defer session.Close()

			if err := session.StartJobs(); err != nil {
				color.Red("failed to start background jobs: %v", err)
				return
			}

			ctx, cancel := signalContext()
			defer cancel()

			result, err := session.Ingestor.ProcessFile(ctx, path)
			if err != nil {
				color.Red("failed to process %s: %v", path, err)
				return
			}
			color.Green("processed %s: document %d, %d pages", path, result.PDFID, result.Pages)
		},
	}

	command.Flags().StringP("file", "f", "", "path to the pdf file")

	return command
}

func processFolderCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "folder",
		Short: "Process every pdf file in a folder",
		Run: func(cmd *cobra.Command, args []string) {
			dir, _ := cmd.Flags().GetString("dir")
			workers, _ := cmd.Flags().GetInt("workers")
			if dir == "" {
				color.Red("missing folder path")
				return
			}

			cnf := config.LoadConfig()
			if workers > 0 {
				cnf.Workers = workers
			}
			session, err := app.Open(cnf)
			if err != nil {
				color.Red("failed to start: %v", err)
				return
			}
			defer session.Close()

			if err := session.StartJobs(); err != nil {
				color.Red("failed to start background jobs: %v", err)
				return
			}

			ctx, cancel := signalContext()
			defer cancel()

			summary, err := session.Ingestor.ProcessFolder(ctx, dir)
			if err != nil {
				color.Red("batch stopped: %v", err)
			}
			if summary == nil {
				return
			}

			color.Green("batch %s: %d processed, %d failed in %s",
				summary.BatchID, summary.Processed, summary.Failed, summary.Elapsed)
			for _, res := range summary.Results {
				if res.Err != nil {
					color.Red("  %s: %v", res.Path, res.Err)
				}
			}
		},
	}

	command.Flags().StringP("dir", "d", "", "path to the folder")
	command.Flags().IntP("workers", "w", 0, "override the configured worker count")

	return command
}
