package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/unowned-ai/remember/pkg/editor"
	"github.com/unowned-ai/remember/pkg/listing"
	"github.com/unowned-ai/remember/pkg/people"
	"go.uber.org/zap"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage tags",
	Long:  `List tags by popularity, tag and untag contacts, and delete tags.`,
}

var listTagsCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags, most used first",
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := location()
		if err != nil {
			return err
		}
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		list := listing.New(dbConn, zap.L(), loc)
		if err := list.Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}

		tags := list.PopularTags()
		if len(tags) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tags found.")
			return nil
		}
		for _, tag := range tags {
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %d\n", tag.Name, list.TagCount(tag.ID))
		}
		return nil
	},
}

var addTagCmd = &cobra.Command{
	Use:   "add [contact-id] [tag]",
	Short: "Tag a contact, creating the tag if needed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContactForm(cmd, args[0], func(dbConn *sql.DB, form *editor.Form) error {
			return form.AddTag(cmd.Context(), args[1])
		})
	},
}

var toggleTagCmd = &cobra.Command{
	Use:   "toggle [contact-id] [tag]",
	Short: "Add or remove an existing tag on a contact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContactForm(cmd, args[0], func(dbConn *sql.DB, form *editor.Form) error {
			tag, err := people.FindTagByName(cmd.Context(), dbConn, args[1])
			if errors.Is(err, people.ErrTagNotFound) {
				return fmt.Errorf("tag not found: %s", args[1])
			}
			if err != nil {
				return err
			}
			return form.ToggleTag(cmd.Context(), tag)
		})
	},
}

// withContactForm opens an editor on the contact and runs fn. Tag changes are stored
// immediately, so the form is not committed afterwards.
func withContactForm(cmd *cobra.Command, idArg string, fn func(*sql.DB, *editor.Form) error) error {
	loc, err := location()
	if err != nil {
		return err
	}
	dbConn, err := openDB()
	if err != nil {
		return err
	}
	defer dbConn.Close()

	id, err := resolveContactID(cmd.Context(), dbConn, idArg)
	if err != nil {
		return err
	}
	c, err := people.GetContact(cmd.Context(), dbConn, id)
	if err != nil {
		return fmt.Errorf("failed to get contact: %w", err)
	}

	form := listing.New(dbConn, zap.L(), loc).Open(c)
	if err := fn(dbConn, form); err != nil {
		return err
	}
	c = form.Contact()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", listing.DisplayName(c), formatTagsList(c.Tags))
	return nil
}

var confirmDeleteFlag bool

var deleteTagCmd = &cobra.Command{
	Use:   "delete [tag]",
	Short: "Delete a tag from every contact",
	Long:  `Delete a tag. It is removed from every contact that carries it. Requires --yes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		tag, err := people.FindTagByName(cmd.Context(), dbConn, args[0])
		if errors.Is(err, people.ErrTagNotFound) {
			return fmt.Errorf("tag not found: %s", args[0])
		}
		if err != nil {
			return err
		}
		if !confirmDeleteFlag {
			return fmt.Errorf("deleting tag '%s' removes it from all contacts; pass --yes to confirm", tag.Name)
		}
		if err := people.DeleteTag(cmd.Context(), dbConn, tag.ID); err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}
		zap.L().Info("tag deleted", zap.String("tag", tag.Name))
		fmt.Fprintf(cmd.OutOrStdout(), "Tag '%s' deleted.\n", tag.Name)
		return nil
	},
}

func initTagsCmd() {
	deleteTagCmd.Flags().BoolVarP(&confirmDeleteFlag, "yes", "y", false, "Confirm the deletion")

	tagsCmd.AddCommand(listTagsCmd, addTagCmd, toggleTagCmd, deleteTagCmd)
}
