package cmd

import (
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func similarCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "similar",
		Short: "Find documents with similar text content",
	}
	command.AddCommand(similarToDocumentCommand())
	command.AddCommand(similarToTextCommand())
	command.AddCommand(similarClustersCommand())
	return command
}

func similarToDocumentCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "doc [id]",
		Short: "Rank documents against a stored document",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				color.Red("invalid document id %q", args[0])
				return
			}
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			limit, _ := cmd.Flags().GetInt("limit")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			hits, err := session.Similarity.FindSimilarDocuments(ctx, uint(id), threshold, limit)
			if err != nil {
				color.Red("similarity search failed: %v", err)
				return
			}
			if len(hits) == 0 {
				color.Yellow("no similar documents found")
				return
			}
			for _, hit := range hits {
				color.Cyan("[%d] %s (%.2f)", hit.PDFID, hit.FileName, hit.Score)
			}
		},
	}
	command.Flags().Float64("threshold", 0, "minimum similarity score between 0 and 1")
	command.Flags().IntP("limit", "n", 0, "maximum number of results")
	return command
}

func similarToTextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "text [query]",
		Short: "Rank documents against free text",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			limit, _ := cmd.Flags().GetInt("limit")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			hits, err := session.Similarity.SearchByText(ctx, args[0], threshold, limit)
			if err != nil {
				color.Red("similarity search failed: %v", err)
				return
			}
			if len(hits) == 0 {
				color.Yellow("no similar documents found")
				return
			}
			for _, hit := range hits {
				color.Cyan("[%d] %s (%.2f)", hit.PDFID, hit.FileName, hit.Score)
			}
		},
	}
	command.Flags().Float64("threshold", 0, "minimum similarity score between 0 and 1")
	command.Flags().IntP("limit", "n", 0, "maximum number of results")
	return command
}

func similarClustersCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "clusters",
		Short: "Group documents by text similarity",
		Run: func(cmd *cobra.Command, args []string) {
			threshold, _ := cmd.Flags().GetFloat64("threshold")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			clusters, err := session.Similarity.DocumentClusters(ctx, threshold)
			if err != nil {
				color.Red("clustering failed: %v", err)
				return
			}
			if len(clusters) == 0 {
				color.Yellow("no clusters found")
				return
			}
			for i, cluster := range clusters {
				color.Green("cluster %d (%d documents)", i+1, len(cluster))
				for _, id := range cluster {
					color.Cyan("  [%d]", id)
				}
			}
		},
	}
	command.Flags().Float64("threshold", 0, "minimum similarity score between 0 and 1")
	return command
}
