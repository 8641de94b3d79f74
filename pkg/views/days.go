// Package views derives the list-screen projections of the contact set: day sections,
// tag usage counts, popularity ordering and tag filtering. Everything here is pure and
// works on the slice returned by people.ListContacts.
package views

import (
	"fmt"
	"sort"
	"time"

	"github.com/unowned-ai/remember/pkg/people"
)

// Day is a calendar day in some location. It is comparable and usable as a map key.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day of t in loc. A nil loc means time.Local.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// ParseDay parses a day in 2006-01-02 form.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayOf(t, time.UTC), nil
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of the day in loc.
func (d Day) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Before reports whether d is an earlier calendar day than other.
func (d Day) Before(other Day) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// DaySection is one day bucket of the list view.
type DaySection struct {
	Day      Day
	Contacts []people.Contact
}

// GroupByDay buckets contacts by the calendar day of their DateMet in loc. Each bucket
// keeps the input order and the keys are exactly the distinct days present.
func GroupByDay(contacts []people.Contact, loc *time.Location) map[Day][]people.Contact {
	groups := make(map[Day][]people.Contact)
	for _, c := range contacts {
		day := DayOf(c.DateMet, loc)
		groups[day] = append(groups[day], c)
	}
	return groups
}

// SortedDays returns the keys of groups, most recent first.
func SortedDays(groups map[Day][]people.Contact) []Day {
	days := make([]Day, 0, len(groups))
	for d := range groups {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[j].Before(days[i])
	})
	return days
}

// Sections groups contacts by day and returns the buckets most recent first.
func Sections(contacts []people.Contact, loc *time.Location) []DaySection {
	groups := GroupByDay(contacts, loc)
	days := SortedDays(groups)

	sections := make([]DaySection, len(days))
	for i, d := range days {
		sections[i] = DaySection{Day: d, Contacts: groups[d]}
	}
	return sections
}

// FindSection returns the section for day, or false when no contact was met that day.
func FindSection(sections []DaySection, day Day) (DaySection, bool) {
	for _, s := range sections {
		if s.Day == day {
			return s, true
		}
	}
	return DaySection{}, false
}
