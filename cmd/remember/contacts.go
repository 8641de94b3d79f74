package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/unowned-ai/remember/pkg/editor"
	"github.com/unowned-ai/remember/pkg/listing"
	"github.com/unowned-ai/remember/pkg/people"
	"github.com/unowned-ai/remember/pkg/photos"
	"github.com/unowned-ai/remember/pkg/views"
	"go.uber.org/zap"
)

var (
	nameFlag          string
	notesFlag         string
	dateFlag          string
	tagsFlag          string
	photoFlag         string
	tagFilterFlag     string
	sortFlag          string
	excludeDraftsFlag bool
	outFlag           string
	csvOutFlag        string
)

var contactsCmd = &cobra.Command{
	Use:     "contacts",
	Aliases: []string{"people"},
	Short:   "Manage the people you met",
	Long:    `Add, list, show, edit, delete and export contacts.`,
}

var addContactCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new person",
	Long:  `Record a new person met today (or on --date). An empty name is stored as "New Person".`,
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
		form, err := list.AddNewContact(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}

		if err := applyFormFlags(cmd, form, loc); err != nil {
			if delErr := form.Delete(cmd.Context()); delErr != nil {
				cmd.PrintErrf("Failed to discard draft %s: %v\n", form.Contact().ID, delErr)
			}
			return err
		}
		if err := form.Close(cmd.Context()); err != nil {
			return fmt.Errorf("failed to save contact: %w", err)
		}

		printContact(cmd.OutOrStdout(), form.Contact(), loc)
		return nil
	},
}

var editContactCmd = &cobra.Command{
	Use:   "edit [contact-id]",
	Short: "Edit a contact",
	Long:  `Change the fields given as flags. Tags listed in --tags are added; use "tags toggle" to remove one.`,
	Args:  cobra.ExactArgs(1),
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

		id, err := resolveContactID(cmd.Context(), dbConn, args[0])
		if err != nil {
			return err
		}
		c, err := people.GetContact(cmd.Context(), dbConn, id)
		if errors.Is(err, people.ErrContactNotFound) {
			return fmt.Errorf("contact not found: %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get contact: %w", err)
		}

		form := listing.New(dbConn, zap.L(), loc).Open(c)
		if err := applyFormFlags(cmd, form, loc); err != nil {
			return err
		}
		if err := form.Close(cmd.Context()); err != nil {
			return fmt.Errorf("failed to save contact: %w", err)
		}

		printContact(cmd.OutOrStdout(), form.Contact(), loc)
		return nil
	},
}

// applyFormFlags copies the flags the user set onto form.
func applyFormFlags(cmd *cobra.Command, form *editor.Form, loc *time.Location) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		form.SetName(nameFlag)
	}
	if flags.Changed("notes") {
		form.SetNotes(notesFlag)
	}
	if flags.Changed("date") {
		t, err := parseDateFlag(dateFlag, loc)
		if err != nil {
			return err
		}
		form.SetDateMet(t)
	}
	if flags.Changed("photo") && photoFlag != "" {
		if err := form.PickPhoto(cmd.Context(), photoFlag); err != nil {
			return fmt.Errorf("failed to load photo '%s': %w", photoFlag, err)
		}
	}
	for _, name := range splitTags(tagsFlag) {
		if err := form.AddTag(cmd.Context(), name); err != nil {
			return fmt.Errorf("failed to apply tag '%s': %w", name, err)
		}
	}
	return nil
}

var showContactCmd = &cobra.Command{
	Use:   "show [contact-id]",
	Short: "Show a contact",
	Args:  cobra.ExactArgs(1),
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

		id, err := resolveContactID(cmd.Context(), dbConn, args[0])
		if err != nil {
			return err
		}
		c, err := people.GetContact(cmd.Context(), dbConn, id)
		if errors.Is(err, people.ErrContactNotFound) {
			return fmt.Errorf("contact not found: %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get contact: %w", err)
		}

		printContact(cmd.OutOrStdout(), c, loc)
		return nil
	},
}

var listContactsCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts grouped by the day you met them",
	Long: `List contacts, most recently met first, under a header for each day.
--tag shows only contacts carrying that tag. --sort name or --sort created prints a flat list instead.`,
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

		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		var tagFilter *people.Tag
		if tagFilterFlag != "" {
			tag, err := people.FindTagByName(ctx, dbConn, tagFilterFlag)
			if errors.Is(err, people.ErrTagNotFound) {
				return fmt.Errorf("tag not found: %s", tagFilterFlag)
			}
			if err != nil {
				return err
			}
			tagFilter = &tag
		}

		switch sortFlag {
		case "", "date":
		case "name", "created":
			sort := people.SortNameAsc
			if sortFlag == "created" {
				sort = people.SortCreatedDesc
			}
			q := people.ContactQuery{Sort: sort, ExcludeDrafts: excludeDraftsFlag}
			if tagFilter != nil {
				q.TagID = &tagFilter.ID
			}
			contacts, err := people.ListContacts(ctx, dbConn, q)
			if err != nil {
				return fmt.Errorf("failed to list contacts: %w", err)
			}
			if len(contacts) == 0 {
				fmt.Fprintln(out, "No contacts found.")
				return nil
			}
			for _, c := range contacts {
				printContactLine(out, c)
			}
			return nil
		default:
			return fmt.Errorf("unknown sort %q (want date, name or created)", sortFlag)
		}

		list := listing.New(dbConn, zap.L(), loc)
		if err := list.Refresh(ctx); err != nil {
			return fmt.Errorf("failed to list contacts: %w", err)
		}
		list.SelectTagFilter(tagFilter)

		sections := list.Sections()
		if excludeDraftsFlag {
			sections = withoutDrafts(sections)
		}
		if len(sections) == 0 {
			fmt.Fprintln(out, "No contacts found.")
			return nil
		}
		for i, sec := range sections {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s (%s)\n", sec.Day.Time(loc).Format(dayHeaderLayout), sec.Day)
			for j, c := range sec.Contacts {
				fmt.Fprintf(out, "%3d", j)
				printContactLine(out, c)
			}
		}
		return nil
	},
}

func withoutDrafts(sections []views.DaySection) []views.DaySection {
	var kept []views.DaySection
	for _, sec := range sections {
		var contacts []people.Contact
		for _, c := range sec.Contacts {
			if !c.IsNew() {
				contacts = append(contacts, c)
			}
		}
		if len(contacts) > 0 {
			kept = append(kept, views.DaySection{Day: sec.Day, Contacts: contacts})
		}
	}
	return kept
}

var (
	dayFlag       string
	positionsFlag string
)

var deleteContactCmd = &cobra.Command{
	Use:   "delete [contact-id...]",
	Short: "Delete contacts",
	Long: `Delete contacts by id, or by position within a day of the list:

  remember contacts delete 3f2a9c1b
  remember contacts delete --day 2024-05-01 --positions 0,2
  remember contacts delete --tag Family --day 2024-05-01 --positions 1

Positions count from 0 and are the numbers printed by "contacts list" with the same --tag
(and without --exclude-drafts).`,
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
		ctx := cmd.Context()

		if dayFlag == "" {
			if len(args) == 0 {
				return errors.New("give contact ids or --day with --positions")
			}
			for _, arg := range args {
				id, err := resolveContactID(ctx, dbConn, arg)
				if err != nil {
					return err
				}
				if err := people.DeleteContact(ctx, dbConn, id); err != nil {
					return fmt.Errorf("failed to delete contact %s: %w", arg, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Contact %s deleted.\n", id)
			}
			return nil
		}

		day, err := views.ParseDay(dayFlag)
		if err != nil {
			return err
		}
		var positions []int
		for _, p := range strings.Split(positionsFlag, ",") {
			if p = strings.TrimSpace(p); p == "" {
				continue
			}
			n, err := strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", p, err)
			}
			positions = append(positions, n)
		}
		if len(positions) == 0 {
			return errors.New("--positions is required with --day")
		}

		list := listing.New(dbConn, zap.L(), loc)
		if err := list.Refresh(ctx); err != nil {
			return err
		}
		if tagFilterFlag != "" {
			tag, err := people.FindTagByName(ctx, dbConn, tagFilterFlag)
			if err != nil {
				return fmt.Errorf("tag not found: %s", tagFilterFlag)
			}
			list.SelectTagFilter(&tag)
		}

		deleted, err := list.DeleteContacts(ctx, day, positions)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d contact(s) deleted.\n", deleted)
		return nil
	},
}

var searchContactsCmd = &cobra.Command{
	Use:   "search [tag...]",
	Short: "Find contacts by tags, best matches first",
	Long: `Find saved contacts carrying any of the given tags. Contacts matching more of the tags
are listed first. Tag names match exactly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		var tagNames []string
		for _, arg := range args {
			tagNames = append(tagNames, splitTags(arg)...)
		}
		results, err := people.SearchContactsByTags(cmd.Context(), dbConn, tagNames)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contacts found.")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d", r.MatchCount, len(tagNames))
			printContactLine(cmd.OutOrStdout(), r.Contact)
		}
		return nil
	},
}

var placeholderFlag bool

var exportPhotoCmd = &cobra.Command{
	Use:   "export-photo [contact-id]",
	Short: "Write a contact's photo to a file",
	Long:  `Write the stored photo to --out. With --placeholder a generated portrait is written for contacts without a photo.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if outFlag == "" {
			return errors.New("--out is required")
		}
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		id, err := resolveContactID(cmd.Context(), dbConn, args[0])
		if err != nil {
			return err
		}
		c, err := people.GetContact(cmd.Context(), dbConn, id)
		if err != nil {
			return fmt.Errorf("failed to get contact: %w", err)
		}

		data := c.Photo
		if len(data) == 0 {
			if !placeholderFlag {
				return fmt.Errorf("contact %s has no photo (use --placeholder for a generated one)", shortID(c.ID))
			}
			if data, err = photos.Placeholder(c.ID.String()); err != nil {
				return err
			}
		}

		if err := photos.Export(afero.NewOsFs(), outFlag, data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Photo written to %s (%d bytes).\n", outFlag, len(data))
		return nil
	},
}

var exportCSVCmd = &cobra.Command{
	Use:   "export-csv",
	Short: "Export all contacts as CSV",
	Long:  `Write every saved contact as CSV (id,name,date_met,tags,notes) to --out, or to stdout when --out is "-" or empty.`,
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

		contacts, err := people.ListContacts(cmd.Context(), dbConn, people.ContactQuery{ExcludeDrafts: true})
		if err != nil {
			return fmt.Errorf("failed to list contacts: %w", err)
		}

		if csvOutFlag == "" || csvOutFlag == "-" {
			return writeContactsCSV(cmd.OutOrStdout(), contacts, loc)
		}

		f, err := afero.NewOsFs().OpenFile(csvOutFlag, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", csvOutFlag, err)
		}
		if err := writeContactsCSV(f, contacts, loc); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d contact(s) exported to %s.\n", len(contacts), csvOutFlag)
		return nil
	},
}

func writeContactsCSV(w io.Writer, contacts []people.Contact, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "date_met", "tags", "notes"}); err != nil {
		return err
	}
	for _, c := range contacts {
		record := []string{
			c.ID.String(),
			c.Name,
			c.DateMet.In(loc).Format(time.DateOnly),
			strings.Join(c.TagNames(), ";"),
			c.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var olderThanFlag time.Duration

var cleanDraftsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete contacts that were created but never saved",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		n, err := people.CleanDrafts(cmd.Context(), dbConn, time.Now().Add(-olderThanFlag))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d draft(s) removed.\n", n)
		return nil
	},
}

func initContactsCmd() {
	for _, c := range []*cobra.Command{addContactCmd, editContactCmd} {
		c.Flags().StringVarP(&nameFlag, "name", "n", "", "Name of the person")
		c.Flags().StringVar(&notesFlag, "notes", "", "Notes")
		c.Flags().StringVarP(&dateFlag, "date", "d", "", "Day you met (YYYY-MM-DD or RFC3339)")
		c.Flags().StringVarP(&tagsFlag, "tags", "t", "", "Comma-separated tags to add")
		c.Flags().StringVarP(&photoFlag, "photo", "p", "", "Image file to use as the photo")
	}

	listContactsCmd.Flags().StringVar(&tagFilterFlag, "tag", "", "Only show contacts with this tag")
	listContactsCmd.Flags().StringVar(&sortFlag, "sort", "date", "Sort order: date, name or created")
	listContactsCmd.Flags().BoolVar(&excludeDraftsFlag, "exclude-drafts", false, "Hide contacts that were never saved")

	deleteContactCmd.Flags().StringVar(&dayFlag, "day", "", "Day section to delete from (YYYY-MM-DD)")
	deleteContactCmd.Flags().StringVar(&positionsFlag, "positions", "", "Comma-separated positions within the day")
	deleteContactCmd.Flags().StringVar(&tagFilterFlag, "tag", "", "Tag filter the positions refer to")

	exportPhotoCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output file")
	exportPhotoCmd.Flags().BoolVar(&placeholderFlag, "placeholder", false, "Write a generated portrait when there is no photo")

	exportCSVCmd.Flags().StringVarP(&csvOutFlag, "out", "o", "-", "Output file (- for stdout)")

	cleanDraftsCmd.Flags().DurationVar(&olderThanFlag, "older-than", 24*time.Hour, "Only remove drafts created at least this long ago")

	contactsCmd.AddCommand(addContactCmd, editContactCmd, showContactCmd, listContactsCmd, searchContactsCmd, deleteContactCmd, exportPhotoCmd, exportCSVCmd, cleanDraftsCmd)
}
