package cmd

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ap6pack/PDF-Search-Plus/internal/service"
	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
)

func searchCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "search",
		Short: "Search extracted and recognized text",
		Run: func(cmd *cobra.Command, args []string) {
			term, _ := cmd.Flags().GetString("query")
			page, _ := cmd.Flags().GetInt("page")
			pageSize, _ := cmd.Flags().GetInt("page-size")
			fts, _ := cmd.Flags().GetBool("fts")
			tagIDs, _ := cmd.Flags().GetUintSlice("tag")
			allTags, _ := cmd.Flags().GetBool("all-tags")
			categoryIDs, _ := cmd.Flags().GetUintSlice("category")

			session := openSession()
			defer session.Close()

			mode := session.SearchMode()
			if fts {
				mode = store.SearchModeFTS
			}

			ctx, cancel := signalContext()
			defer cancel()

			result, err := session.Searcher.Search(ctx, service.Query{
				Term:     term,
				Page:     page,
				PageSize: pageSize,
				Mode:     mode,
				Filter: store.SearchFilter{
					TagIDs:      tagIDs,
					TagMatchAll: allTags,
					CategoryIDs: categoryIDs,
				},
			})
			if err != nil {
				color.Red("search failed: %v", err)
				return
			}

			color.Green("%d results, page %d of %d", result.Total, result.Page, result.TotalPages)
			for _, hit := range result.Hits {
				color.Cyan("[%d] %s, page %d (%s)", hit.PDFID, hit.FileName, hit.PageNumber, hit.Source)
				color.White("    %s", condense(hit.Snippet))
			}
		},
	}

	command.Flags().StringP("query", "q", "", "search term")
	command.Flags().IntP("page", "p", 1, "result page, starting at 1")
	command.Flags().Int("page-size", 20, "results per page")
	command.Flags().Bool("fts", false, "use the full-text index instead of substring matching")
	command.Flags().UintSliceP("tag", "t", nil, "restrict to documents with these tag ids")
	command.Flags().Bool("all-tags", false, "require every given tag instead of any")
	command.Flags().UintSliceP("category", "c", nil, "restrict to documents in these category ids")

	return command
}

// condense flattens a snippet to a single trimmed line for terminal output.
func condense(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 160 {
		s = s[:160] + "..."
	}
	return s
}
