package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
)

var annotationCmd = &cobra.Command{
	Use:   "annotate",
	Short: "manage page annotations",
}

func init() {
	annotationCmd.AddCommand(annotationAddCommand())
	annotationCmd.AddCommand(annotationListCommand())
	annotationCmd.AddCommand(annotationDeleteCommand())
	annotationCmd.AddCommand(annotationSearchCommand())
}

func annotationAddCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "add",
		Short: "Add a note or highlight to a page region",
		Run: func(cmd *cobra.Command, args []string) {
			pdfID, _ := cmd.Flags().GetUint("document")
			page, _ := cmd.Flags().GetInt("page")
			content, _ := cmd.Flags().GetString("content")
			kind, _ := cmd.Flags().GetString("type")
			x, _ := cmd.Flags().GetFloat64("x")
			y, _ := cmd.Flags().GetFloat64("y")
			w, _ := cmd.Flags().GetFloat64("width")
			h, _ := cmd.Flags().GetFloat64("height")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			annotation := &model.Annotation{
				PDFID:      pdfID,
				PageNumber: page,
				Content:    content,
				Type:       kind,
				X:          x,
				Y:          y,
				Width:      w,
				Height:     h,
			}
			if err := session.Annotations.Create(ctx, annotation); err != nil {
				color.Red("failed to add annotation: %v", err)
				return
			}
			color.Green("added annotation %d on page %d of document %d", annotation.ID, page, pdfID)
		},
	}

	command.Flags().UintP("document", "d", 0, "document id")
	command.Flags().IntP("page", "p", 1, "page number, starting at 1")
	command.Flags().StringP("content", "c", "", "annotation text")
	command.Flags().StringP("type", "t", "note", "note, highlight or underline")
	command.Flags().Float64("x", 0, "left edge of the region")
	command.Flags().Float64("y", 0, "top edge of the region")
	command.Flags().Float64("width", 0, "region width")
	command.Flags().Float64("height", 0, "region height")

	return command
}

func annotationListCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "List a document's annotations",
		Run: func(cmd *cobra.Command, args []string) {
			pdfID, _ := cmd.Flags().GetUint("document")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			annotations, err := session.Annotations.ForDocument(ctx, pdfID)
			if err != nil {
				color.Red("failed to list annotations: %v", err)
				return
			}
			for _, a := range annotations {
				color.Cyan("[%d] page %d %s: %s", a.ID, a.PageNumber, a.Type, condense(a.Content))
			}
		},
	}

	command.Flags().UintP("document", "d", 0, "document id")

	return command
}

func annotationDeleteCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "delete",
		Short: "Delete an annotation",
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := cmd.Flags().GetUint("annotation")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if err := session.Annotations.Delete(ctx, id); err != nil {
				color.Red("failed to delete annotation %d: %v", id, err)
				return
			}
			color.Green("deleted annotation %d", id)
		},
	}

	command.Flags().UintP("annotation", "a", 0, "annotation id")

	return command
}

func annotationSearchCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "search",
		Short: "Search annotation text",
		Run: func(cmd *cobra.Command, args []string) {
			term, _ := cmd.Flags().GetString("query")
			limit, _ := cmd.Flags().GetInt("limit")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			annotations, err := session.Annotations.Search(ctx, term, limit, 0)
			if err != nil {
				color.Red("annotation search failed: %v", err)
				return
			}
			for _, a := range annotations {
				color.Cyan("[%d] document %d page %d: %s", a.ID, a.PDFID, a.PageNumber, condense(a.Content))
			}
		},
	}

	command.Flags().StringP("query", "q", "", "search term")
	command.Flags().Int("limit", 20, "maximum results")

	return command
}
