package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func listCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "List ingested documents, most recently used first",
		Run: func(cmd *cobra.Command, args []string) {
			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			files, err := session.Library.ListDocuments(ctx)
			if err != nil {
				color.Red("failed to list documents: %v", err)
				return
			}
			if len(files) == 0 {
				color.Yellow("no documents ingested yet")
				return
			}

			for _, file := range files {
				color.Cyan("[%d] %s", file.ID, file.FileName)
				color.White("    %s (last used %s)", file.FilePath, file.LastAccessed.Format("2006-01-02 15:04"))
			}
		},
	}

	return command
}

func showCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "show",
		Short: "Show a document's details, or one page's text",
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := cmd.Flags().GetUint("document")
			page, _ := cmd.Flags().GetInt("page")
			if id == 0 {
				color.Red("missing document id")
				return
			}

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if page > 0 {
				text, err := session.Library.GetPageText(ctx, id, page)
				if err != nil {
					color.Red("failed to read page %d: %v", page, err)
					return
				}
				color.White("%s", text)
				return
			}

			detail, err := session.Library.GetDocument(ctx, id)
			if err != nil {
				color.Red("failed to load document %d: %v", id, err)
				return
			}

			color.Cyan("[%d] %s", detail.File.ID, detail.File.FileName)
			color.White("    path:   %s", detail.File.FilePath)
			color.White("    pages:  %d", detail.PageCount)
			color.White("    images: %d", len(detail.Images))
			for _, tag := range detail.Tags {
				color.White("    tag:    %s %s", tag.Name, tag.Color)
			}
			for _, category := range detail.Categories {
				color.White("    category: %s", category.Name)
			}
		},
	}

	command.Flags().UintP("document", "d", 0, "document id")
	command.Flags().IntP("page", "p", 0, "print this page's text instead")

	return command
}

func deleteCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "delete",
		Short: "Delete a document with all its pages, images and annotations",
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := cmd.Flags().GetUint("document")
			if id == 0 {
				color.Red("missing document id")
				return
			}

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if err := session.Library.DeleteDocument(ctx, id); err != nil {
				color.Red("failed to delete document %d: %v", id, err)
				return
			}
			color.Green("deleted document %d", id)
		},
	}

	command.Flags().UintP("document", "d", 0, "document id")

	return command
}
