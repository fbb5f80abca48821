// Package schedule works out when the members of a study group are free at
// the same time.
//
// Preferred study times are free-form labels. Labels of the form
// "Monday 18:00-20:00" (day names may be abbreviated, case is ignored) are
// read as weekly time slots; any other label, such as "Evening", is skipped.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Slot is a weekly time range in minutes after midnight, End exclusive.
type Slot struct {
	Day   time.Weekday
	Start int
	End   int
}

// Member is a group member and the study-time labels from their profile.
type Member struct {
	ID    string
	Name  string
	Times []string
}

// Window is a stretch of a day during which the listed members overlap.
type Window struct {
	Day     string   `json:"day"`
	Start   string   `json:"start_time"`
	End     string   `json:"end_time"`
	Members []string `json:"members"`
}

var dayNames = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// weekOrder lists days Monday first.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ParseSlot reads a "<Day> HH:MM-HH:MM" label. It reports false for labels
// in any other shape and for empty or inverted ranges.
func ParseSlot(label string) (Slot, bool) {
	fields := strings.Fields(label)
	if len(fields) != 2 {
		return Slot{}, false
	}
	day, ok := dayNames[strings.ToLower(fields[0])]
	if !ok {
		return Slot{}, false
	}
	from, to, ok := strings.Cut(fields[1], "-")
	if !ok {
		return Slot{}, false
	}
	start, err := parseClock(from)
	if err != nil {
		return Slot{}, false
	}
	end, err := parseClock(to)
	if err != nil {
		return Slot{}, false
	}
	if end <= start {
		return Slot{}, false
	}
	return Slot{Day: day, Start: start, End: end}, true
}

func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: missing minutes", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	mins, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 {
		return 0, fmt.Errorf("clock %q: bad minutes", s)
	}
	// "24:00" closes a slot at midnight.
	total := hours*60 + mins
	if hours < 0 || mins < 0 || mins > 59 || total > 24*60 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return total, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps returns, for each day from Monday to Sunday, the maximal windows in
// which at least two members are free, naming those members in the order they
// were given. A group with a single member gets that member's own slots.
// Adjacent windows are split wherever the set of free members changes.
func Overlaps(members []Member) []Window {
	need := 2
	if len(members) == 1 {
		need = 1
	}

	byDay := make(map[time.Weekday][][]Slot)
	for i, m := range members {
		for _, label := range m.Times {
			slot, ok := ParseSlot(label)
			if !ok {
				continue
			}
			if byDay[slot.Day] == nil {
				byDay[slot.Day] = make([][]Slot, len(members))
			}
			byDay[slot.Day][i] = append(byDay[slot.Day][i], slot)
		}
	}

	windows := []Window{}
	for _, day := range weekOrder {
		slots := byDay[day]
		if slots == nil {
			continue
		}
		windows = append(windows, sweepDay(day, members, slots, need)...)
	}
	return windows
}

// sweepDay splits the day at every slot boundary and merges neighbouring
// pieces covered by the same members.
func sweepDay(day time.Weekday, members []Member, slots [][]Slot, need int) []Window {
	var bounds []int
	for _, own := range slots {
		for _, s := range own {
			bounds = append(bounds, s.Start, s.End)
		}
	}
	sort.Ints(bounds)
	bounds = dedupe(bounds)

	var (
		windows []Window
		open    *Window
		openKey string
		openEnd int
	)
	flush := func() {
		if open != nil {
			open.End = formatClock(openEnd)
			windows = append(windows, *open)
			open = nil
		}
	}

	for i := 0; i+1 < len(bounds); i++ {
		from, to := bounds[i], bounds[i+1]
		var names []string
		for m, own := range slots {
			if covers(own, from, to) {
				names = append(names, displayName(members[m]))
			}
		}
		if len(names) < need {
			flush()
			continue
		}
		key := strings.Join(names, "\x00")
		if open != nil && key == openKey && openEnd == from {
			openEnd = to
			continue
		}
		flush()
		open = &Window{Day: day.String(), Start: formatClock(from), Members: names}
		openKey, openEnd = key, to
	}
	flush()
	return windows
}

func covers(slots []Slot, from, to int) bool {
	for _, s := range slots {
		if s.Start <= from && to <= s.End {
			return true
		}
	}
	return false
}

func dedupe(sorted []int) []int {
	var out []int
	for _, v := range sorted {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}

func displayName(m Member) string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}
