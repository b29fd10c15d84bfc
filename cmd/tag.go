package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "manage tags",
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "manage hierarchical categories",
}

func init() {
	tagCmd.AddCommand(tagCreateCommand())
	tagCmd.AddCommand(tagListCommand())
	tagCmd.AddCommand(tagDeleteCommand())
	tagCmd.AddCommand(tagAssignCommand())
	tagCmd.AddCommand(tagRemoveCommand())

	categoryCmd.AddCommand(categoryCreateCommand())
	categoryCmd.AddCommand(categoryListCommand())
	categoryCmd.AddCommand(categoryMoveCommand())
	categoryCmd.AddCommand(categoryAssignCommand())
}

func tagCreateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "create",
		Short: "Create a tag",
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			colorHex, _ := cmd.Flags().GetString("color")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			tag, err := session.Tagging.CreateTag(ctx, name, colorHex)
			if err != nil {
				color.Red("failed to create tag: %v", err)
				return
			}
			color.Green("created tag %d: %s (%s)", tag.ID, tag.Name, tag.Color)
		},
	}

	command.Flags().StringP("name", "n", "", "tag name")
	command.Flags().StringP("color", "c", "", "hex color, defaults to #808080")

	return command
}

func tagListCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Run: func(cmd *cobra.Command, args []string) {
			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			tags, err := session.Tagging.ListTags(ctx)
			if err != nil {
				color.Red("failed to list tags: %v", err)
				return
			}
			for _, tag := range tags {
				color.Cyan("[%d] %s %s", tag.ID, tag.Name, tag.Color)
			}
		},
	}

	return command
}

func tagDeleteCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "delete",
		Short: "Delete a tag and its assignments",
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := cmd.Flags().GetUint("tag")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if err := session.Tagging.DeleteTag(ctx, id); err != nil {
				color.Red("failed to delete tag %d: %v", id, err)
				return
			}
			color.Green("deleted tag %d", id)
		},
	}

	command.Flags().UintP("tag", "t", 0, "tag id")

	return command
}

func tagAssignCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "assign",
		Short: "Assign a tag to a document",
		Run: func(cmd *cobra.Command, args []string) {
			pdfID, _ := cmd.Flags().GetUint("document")
			tagID, _ := cmd.Flags().GetUint("tag")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if err := session.Tagging.TagDocument(ctx, pdfID, tagID); err != nil {
				color.Red("failed to assign tag: %v", err)
				return
			}
			color.Green("tagged document %d with tag %d", pdfID, tagID)
		},
	}

	command.Flags().UintP("document", "d", 0, "document id")
	command.Flags().UintP("tag", "t", 0, "tag id")

	return command
}

func tagRemoveCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "remove",
		Short: "Remove a tag from a document",
		Run: func(cmd *cobra.Command, args []string) {
			pdfID, _ := cmd.Flags().GetUint("document")
			tagID, _ := cmd.Flags().GetUint("tag")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if err := session.Tagging.UntagDocument(ctx, pdfID, tagID); err != nil {
				color.Red("failed to remove tag: %v", err)
				return
			}
			color.Green("removed tag %d from document %d", tagID, pdfID)
		},
	}

	command.Flags().UintP("document", "d", 0, "document id")
	command.Flags().UintP("tag", "t", 0, "tag id")

	return command
}

func categoryCreateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "create",
		Short: "Create a category, optionally under a parent",
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			parent, _ := cmd.Flags().GetUint("parent")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			var parentID *uint
			if parent != 0 {
				parentID = &parent
			}

			category, err := session.Tagging.CreateCategory(ctx, name, parentID)
			if err != nil {
				color.Red("failed to create category: %v", err)
				return
			}
			color.Green("created category %d: %s", category.ID, category.Name)
		},
	}

	command.Flags().StringP("name", "n", "", "category name")
	command.Flags().UintP("parent", "p", 0, "parent category id")

	return command
}

func categoryListCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Run: func(cmd *cobra.Command, args []string) {
			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			categories, err := session.Tagging.ListCategories(ctx)
			if err != nil {
				color.Red("failed to list categories: %v", err)
				return
			}
			for _, category := range categories {
				if category.ParentID != nil {
					color.Cyan("[%d] %s (parent %d)", category.ID, category.Name, *category.ParentID)
				} else {
					color.Cyan("[%d] %s", category.ID, category.Name)
				}
			}
		},
	}

	return command
}

func categoryMoveCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "move",
		Short: "Move a category under a new parent, or to the root with no parent",
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := cmd.Flags().GetUint("category")
			parent, _ := cmd.Flags().GetUint("parent")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			var parentID *uint
			if parent != 0 {
				parentID = &parent
			}

			if err := session.Tagging.MoveCategory(ctx, id, parentID); err != nil {
				color.Red("failed to move category %d: %v", id, err)
				return
			}
			color.Green("moved category %d", id)
		},
	}

	command.Flags().UintP("category", "c", 0, "category id")
	command.Flags().UintP("parent", "p", 0, "new parent category id, omit for root")

	return command
}

func categoryAssignCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "assign",
		Short: "Assign a category to a document",
		Run: func(cmd *cobra.Command, args []string) {
			pdfID, _ := cmd.Flags().GetUint("document")
			categoryID, _ := cmd.Flags().GetUint("category")

			session := openSession()
			defer session.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if err := session.Tagging.CategorizeDocument(ctx, pdfID, categoryID); err != nil {
				color.Red("failed to assign category: %v", err)
				return
			}
			color.Green("assigned category %d to document %d", categoryID, pdfID)
		},
	}

	command.Flags().UintP("document", "d", 0, "document id")
	command.Flags().UintP("category", "c", 0, "category id")

	return command
}
