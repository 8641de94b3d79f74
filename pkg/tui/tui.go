package tui

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/unowned-ai/remember/pkg/editor"
	"github.com/unowned-ai/remember/pkg/listing"
	"github.com/unowned-ai/remember/pkg/people"
	"github.com/unowned-ai/remember/pkg/settings"
	"github.com/unowned-ai/remember/pkg/views"
	"go.uber.org/zap"
)

type pane int

const (
	paneList pane = iota
	paneEditor
	paneSettings
)

// Editor focus order. fieldTags is the tag list, the rest are text inputs.
const (
	fieldName = iota
	fieldNotes
	fieldDate
	fieldPhoto
	fieldTag
	fieldTags
	fieldCount
)

const dayHeaderLayout = "Jan 2, 2006"

// listRow is one contact line of the list pane, addressed the way listing.DeleteContacts expects.
type listRow struct {
	day     views.Day
	offset  int
	contact people.Contact
}

type model struct {
	ctx    context.Context
	db     *sql.DB
	logger *zap.Logger
	list   *listing.List

	theme  settings.Theme
	styles styles

	pane       pane
	width      int // Current terminal width (for layout)
	height     int // Current terminal height
	err        error
	status     string
	dbFilename string
	quitting   bool

	rows             []listRow
	cursor           int // Index into rows
	filterIdx        int // 0 = All Tags, i = PopularTags()[i-1]
	deleting         bool
	deleteConfirmIdx int // 0 = "Yes" selected, 1 = "No"

	form         *editor.Form
	inputs       []textinput.Model
	focus        int
	tagCursor    int
	shownDate    string
	formErr      string
	photoLoading bool

	themeCursor int
}

func newModel(db *sql.DB, logger *zap.Logger, loc *time.Location) model {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := model{
		ctx:        context.Background(),
		db:         db,
		logger:     logger,
		list:       listing.New(db, logger, loc),
		theme:      settings.ThemeSystem,
		styles:     newStyles(settings.ThemeSystem),
		dbFilename: filepath.Base(getDbFile(db)),
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return loadTheme(m.db)
}

// refresh reloads the list and keeps the cursor in range.
func (m *model) refresh() {
	if err := m.list.Refresh(m.ctx); err != nil {
		m.err = err
		return
	}
	m.filterIdx = 0
	if selected, ok := m.list.SelectedTag(); ok {
		for i, t := range m.list.PopularTags() {
			if t.ID == selected.ID {
				m.filterIdx = i + 1
			}
		}
	}
	m.buildRows()
}

func (m *model) buildRows() {
	m.rows = nil
	for _, sec := range m.list.Sections() {
		for i, c := range sec.Contacts {
			m.rows = append(m.rows, listRow{day: sec.Day, offset: i, contact: c})
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) cycleFilter(step int) {
	tags := m.list.PopularTags()
	n := len(tags) + 1
	m.filterIdx = ((m.filterIdx+step)%n + n) % n
	if m.filterIdx == 0 {
		m.list.SelectTagFilter(nil)
	} else {
		tag := tags[m.filterIdx-1]
		m.list.SelectTagFilter(&tag)
	}
	m.cursor = 0
	m.buildRows()
}

func (m *model) openEditor(form *editor.Form) tea.Cmd {
	fields := form.Fields()
	m.form = form
	m.shownDate = fields.DateMet.In(m.list.Location()).Format(time.DateOnly)
	m.formErr = ""
	m.photoLoading = false
	m.focus = fieldName
	m.tagCursor = 0

	placeholders := [...]string{people.PlaceholderName, "Notes", "YYYY-MM-DD", "Path to an image file", "New tag"}
	values := [...]string{fields.Name, fields.Notes, m.shownDate, "", ""}
	m.inputs = make([]textinput.Model, fieldTags)
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 512
		in.SetValue(values[i])
		m.inputs[i] = in
	}
	m.pane = paneEditor
	return m.inputs[fieldName].Focus()
}

func (m *model) setFocus(field int) tea.Cmd {
	if m.focus < fieldTags {
		m.inputs[m.focus].Blur()
	}
	m.focus = (field + fieldCount) % fieldCount
	if m.focus < fieldTags {
		return m.inputs[m.focus].Focus()
	}
	return nil
}

// syncFields copies the inputs into the form. The meeting date is only replaced when the
// user changed its text, which keeps the time of day of an untouched date.
func (m *model) syncFields() error {
	m.form.SetName(strings.TrimSpace(m.inputs[fieldName].Value()))
	m.form.SetNotes(m.inputs[fieldNotes].Value())

	raw := strings.TrimSpace(m.inputs[fieldDate].Value())
	if raw == m.shownDate {
		return nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, m.list.Location())
	if err != nil {
		return fmt.Errorf("invalid date %q: use YYYY-MM-DD", raw)
	}
	m.form.SetDateMet(t)
	m.shownDate = raw
	return nil
}

// closeEditor commits the form and returns to the list. An invalid date keeps the editor
// open unless the program is quitting, in which case the stored date is kept.
func (m *model) closeEditor(quitting bool) {
	if m.form.Deleted() {
		m.form, m.inputs = nil, nil
		m.pane = paneList
		m.refresh()
		return
	}
	if err := m.syncFields(); err != nil {
		if !quitting {
			m.formErr = err.Error()
			return
		}
		m.logger.Warn("keeping stored date on quit", zap.Stringer("contact_id", m.form.Contact().ID), zap.Error(err))
	}
	if err := m.form.Close(m.ctx); err != nil {
		m.logger.Warn("failed to save contact", zap.Stringer("contact_id", m.form.Contact().ID), zap.Error(err))
		m.status = fmt.Sprintf("Could not save contact: %v", err)
	} else {
		m.status = fmt.Sprintf("Saved %s.", listing.DisplayName(m.form.Contact()))
	}
	m.form = nil
	m.inputs = nil
	m.pane = paneList
	m.refresh()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case error:
		m.err = msg
		return m, nil

	case themeLoadedMsg:
		m.theme = settings.Theme(msg)
		m.styles = newStyles(m.theme)
		return m, nil

	case photoLoadedMsg:
		if m.form == nil {
			return m, nil
		}
		res := editor.PhotoLoaded(msg)
		if m.form.ApplyPhoto(res) {
			m.photoLoading = false
			m.formErr = ""
			m.inputs[fieldPhoto].Reset()
		} else if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
			m.photoLoading = false
			m.formErr = fmt.Sprintf("Could not load photo: %v", res.Err)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.form != nil {
				m.closeEditor(true)
			}
			m.quitting = true
			return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)
		}
		switch m.pane {
		case paneEditor:
			return m.updateEditor(msg)
		case paneSettings:
			return m.updateSettings(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.deleting {
		switch msg.String() {
		case "up", "k":
			m.deleteConfirmIdx = 0
		case "down", "j":
			m.deleteConfirmIdx = 1
		case "enter":
			m.deleting = false
			if m.deleteConfirmIdx == 0 && m.cursor < len(m.rows) {
				row := m.rows[m.cursor]
				if _, err := m.list.DeleteContacts(m.ctx, row.day, []int{row.offset}); err != nil {
					m.status = fmt.Sprintf("Could not delete contact: %v", err)
				} else {
					m.status = fmt.Sprintf("Deleted %s.", listing.DisplayName(row.contact))
				}
				m.buildRows()
			}
		case "esc":
			m.deleting = false
		}
		return m, nil
	}

	m.status = ""
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case "t":
		m.cycleFilter(1)

	case "T":
		m.cycleFilter(-1)

	case "n":
		form, err := m.list.AddNewContact(m.ctx)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m, m.openEditor(form)

	case "enter", "e":
		if m.cursor < len(m.rows) {
			return m, m.openEditor(m.list.Open(m.rows[m.cursor].contact))
		}

	case "d":
		if len(m.rows) > 0 {
			m.deleteConfirmIdx = 1
			m.deleting = true
		}

	case "r":
		m.refresh()

	case "s":
		m.themeCursor = int(m.theme)
		m.pane = paneSettings
	}
	return m, nil
}

func (m model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if tag, ok := m.form.PendingDeleteTag(); ok {
		switch msg.String() {
		case "y", "enter":
			if err := m.form.ConfirmDeleteTag(m.ctx); err != nil {
				m.formErr = fmt.Sprintf("Could not delete tag %s: %v", tag.Name, err)
			}
			m.refresh()
		case "n", "esc":
			m.form.CancelDeleteTag()
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.closeEditor(false)
		return m, nil

	case "ctrl+d":
		if err := m.form.Delete(m.ctx); err != nil {
			m.formErr = fmt.Sprintf("Could not delete contact: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted %s.", listing.DisplayName(m.form.Contact()))
		m.closeEditor(false)
		return m, nil

	case "tab":
		return m, m.setFocus(m.focus + 1)

	case "shift+tab":
		return m, m.setFocus(m.focus - 1)

	case "enter":
		switch m.focus {
		case fieldPhoto:
			path := strings.TrimSpace(m.inputs[fieldPhoto].Value())
			if path == "" {
				return m, nil
			}
			m.photoLoading = true
			m.formErr = ""
			return m, loadPhoto(m.form.BeginPhotoPick(m.ctx, path))
		case fieldTag:
			m.form.SetTagInput(strings.TrimSpace(m.inputs[fieldTag].Value()))
			if err := m.form.SubmitTagInput(m.ctx); err != nil {
				m.formErr = fmt.Sprintf("Could not add tag: %v", err)
				return m, nil
			}
			m.inputs[fieldTag].Reset()
			m.refresh()
			return m, nil
		case fieldTags:
			return m, m.toggleSelectedTag()
		default:
			return m, m.setFocus(m.focus + 1)
		}
	}

	if m.focus == fieldTags {
		tags := m.list.PopularTags()
		switch msg.String() {
		case "up", "k":
			if m.tagCursor > 0 {
				m.tagCursor--
			}
		case "down", "j":
			if m.tagCursor < len(tags)-1 {
				m.tagCursor++
			}
		case " ":
			return m, m.toggleSelectedTag()
		case "x":
			if m.tagCursor < len(tags) {
				m.form.RequestDeleteTag(tags[m.tagCursor])
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *model) toggleSelectedTag() tea.Cmd {
	tags := m.list.PopularTags()
	if m.tagCursor >= len(tags) {
		return nil
	}
	if err := m.form.ToggleTag(m.ctx, tags[m.tagCursor]); err != nil {
		m.formErr = fmt.Sprintf("Could not change tag: %v", err)
		return nil
	}
	m.refresh()
	// Popularity order may have changed; follow the tag.
	for i, t := range m.list.PopularTags() {
		if t.ID == tags[m.tagCursor].ID {
			m.tagCursor = i
		}
	}
	return nil
}

func (m model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.themeCursor > 0 {
			m.themeCursor--
		}
	case "down", "j":
		if m.themeCursor < len(settings.Themes)-1 {
			m.themeCursor++
		}
	case "enter", " ":
		theme := settings.Themes[m.themeCursor]
		if err := settings.SetTheme(m.ctx, m.db, theme); err != nil {
			m.status = fmt.Sprintf("Could not save theme: %v", err)
			return m, nil
		}
		m.theme = theme
		m.styles = newStyles(theme)
		m.logger.Info("theme changed", zap.Stringer("theme", theme))
	case "esc", "s", "q":
		m.pane = paneList
	}
	return m, nil
}

// Assembles the UI string for each frame
func (m model) View() string {
	if m.quitting {
		return "See you next time.\n"
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	s := m.styles
	titleBar := s.title.Width(m.width).Render("Remember - the people you met")

	var body, footer string
	switch m.pane {
	case paneEditor:
		body = m.editorView()
		footer = "tab to move • enter to add/load/toggle • space to toggle tag • x to delete tag • ctrl+d to delete contact • esc to save and close"
	case paneSettings:
		body = m.settingsView()
		footer = "↑/↓ to choose • enter to apply • esc to go back"
	default:
		body = m.listView()
		footer = "↑/↓ to navigate • enter to edit • n to add • t/T to filter by tag • d to delete • s for settings • q to quit"
	}

	if m.status != "" {
		body += "\n\n" + s.status.Render(m.status)
	}
	return titleBar + "\n\n" + body + "\n" + s.footer.Width(m.width).Render("\n"+footer)
}

func (m model) listView() string {
	s := m.styles
	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth
	panelHeight := m.height - 6
	if panelHeight < 0 {
		panelHeight = 0
	}

	var lb strings.Builder
	filter := "All Tags"
	if tag, ok := m.list.SelectedTag(); ok {
		filter = fmt.Sprintf("%s (%d)", tag.Name, m.list.TagCount(tag.ID))
	}
	lb.WriteString(s.subtitle.Render("  People") + "  " + s.tag.Render("filter: ") + s.tagOn.Render(filter))
	lb.WriteString("\n\n")

	if len(m.rows) == 0 {
		lb.WriteString("  No contacts yet. Press 'n' to add someone.\n")
	}
	var lastDay views.Day
	for i, row := range m.rows {
		if i == 0 || row.day != lastDay {
			if i > 0 {
				lb.WriteString("\n")
			}
			lb.WriteString(s.dayHeader.Render(row.day.Time(m.list.Location()).Format(dayHeaderLayout)) + "\n")
			lastDay = row.day
		}

		pointer := "  "
		itemStyle := s.item
		if listing.IsPlaceholder(row.contact) {
			itemStyle = s.placeholder
		}
		if i == m.cursor {
			pointer = "> "
			itemStyle = s.selected
			if m.deleting {
				itemStyle = s.dangerSel
			}
		}
		line := pointer + itemStyle.Render(listing.DisplayName(row.contact))
		if len(row.contact.Tags) > 0 {
			line += " " + s.tag.Render(strings.Join(row.contact.TagNames(), " "))
		}
		lb.WriteString(lipgloss.NewStyle().MaxWidth(leftWidth-4).Render(line) + "\n")
	}

	var rb strings.Builder
	if m.deleting && m.cursor < len(m.rows) {
		rb.WriteString(s.subtitle.Render("Delete Contact") + "\n\n")
		rb.WriteString("Name: " + s.danger.Render(listing.DisplayName(m.rows[m.cursor].contact)) + "\n\n")
		yesOpt, noOpt := "Yes", "No"
		if m.deleteConfirmIdx == 0 {
			yesOpt = s.dangerSel.Render(" >" + yesOpt)
			noOpt = s.item.Render("  " + noOpt)
		} else {
			yesOpt = s.item.Render("  " + yesOpt)
			noOpt = s.selected.Render(" >" + noOpt)
		}
		rb.WriteString(fmt.Sprintf("%s\n%s\n\n", yesOpt, noOpt))
		rb.WriteString("(enter to confirm, esc to cancel, up/down to switch)")
	} else if m.cursor < len(m.rows) {
		rb.WriteString(m.detailView(m.rows[m.cursor].contact))
	} else {
		rb.WriteString("Database file: " + s.status.Render(m.dbFilename))
	}

	left := s.panel.Width(leftWidth).Height(panelHeight).Render(lb.String())
	right := lipgloss.NewStyle().Padding(0, 2).Width(rightWidth).Height(panelHeight).Render(rb.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m model) detailView(c people.Contact) string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.label.Render("Name: ") + s.item.Render(listing.DisplayName(c)) + "\n")
	b.WriteString(s.label.Render("Met:  ") + s.item.Render(c.DateMet.In(m.list.Location()).Format(dayHeaderLayout)) + "\n")

	tags := "-"
	if len(c.Tags) > 0 {
		tags = strings.Join(c.TagNames(), " ")
	}
	b.WriteString(s.label.Render("Tags: ") + s.tagOn.Render(tags) + "\n")
	b.WriteString(s.label.Render("Photo: ") + photoSummary(c.Photo, c.PhotoHash) + "\n")
	if c.IsNew() {
		b.WriteString(s.placeholder.Render("never saved") + "\n")
	}
	if c.Notes != "" {
		b.WriteString("\n" + s.item.Render(c.Notes))
	}
	return b.String()
}

func photoSummary(data []byte, hash string) string {
	if len(data) == 0 {
		return "none"
	}
	if hash == "" {
		return fmt.Sprintf("%d KB", (len(data)+1023)/1024)
	}
	return fmt.Sprintf("%d KB (%s)", (len(data)+1023)/1024, hash)
}

func (m model) editorView() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.subtitle.Render(m.form.Title()) + "\n\n")

	labels := [...]string{"Name", "Notes", "Date met", "Photo", "Add tag"}
	for i, in := range m.inputs {
		label := fmt.Sprintf("%-9s", labels[i]+":")
		if m.focus == i {
			label = s.selected.Render(label)
		} else {
			label = s.label.Render(label)
		}
		b.WriteString(label + " " + in.View() + "\n")
		if i == fieldPhoto {
			fields := m.form.Fields()
			summary := photoSummary(fields.Photo, "")
			switch {
			case m.photoLoading:
				summary = "loading..."
			case m.form.PhotoCaptured():
				summary += " (new)"
			case len(fields.Photo) == 0:
				summary = "none, a generated portrait is shown instead"
			}
			b.WriteString("          " + s.tag.Render(summary) + "\n")
		}
	}

	b.WriteString("\n" + s.subtitle.Render("Tags") + "\n")
	tags := m.list.PopularTags()
	if len(tags) == 0 {
		b.WriteString(s.tag.Render("  No tags yet. Type one above and press enter.") + "\n")
	}
	for i, tag := range tags {
		pointer := "  "
		if m.focus == fieldTags && i == m.tagCursor {
			pointer = "> "
		}
		check, style := "[ ]", s.tag
		if m.form.HasTag(tag.ID) {
			check, style = "[x]", s.tagOn
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s\n", pointer, check, style.Render(tag.Name), s.tag.Render(fmt.Sprintf("(%d)", m.list.TagCount(tag.ID)))))
	}

	if tag, ok := m.form.PendingDeleteTag(); ok {
		b.WriteString("\n" + s.danger.Render(fmt.Sprintf("Delete tag '%s' from all contacts? (y/n)", tag.Name)) + "\n")
	}
	if m.formErr != "" {
		b.WriteString("\n" + s.errText.Render(m.formErr) + "\n")
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func (m model) settingsView() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.subtitle.Render("Theme") + "\n\n")
	for i, theme := range settings.Themes {
		pointer := "  "
		name := s.item.Render(theme.String())
		if i == m.themeCursor {
			pointer = "> "
			name = s.selected.Render(theme.String())
		}
		b.WriteString(pointer + name)
		if theme == m.theme {
			b.WriteString(" " + s.status.Render("(current)"))
		}
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

// ShowTUI runs the interactive contact browser until the user quits. Days are computed in loc.
func ShowTUI(db *sql.DB, logger *zap.Logger, loc *time.Location) error {
	p := tea.NewProgram(newModel(db, logger, loc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
