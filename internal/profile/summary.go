package profile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kalambet/studymatch/internal/storage"
)

// maxSummaryChars keeps one summary per line in CLI and MCP listings.
const maxSummaryChars = 240

// Summary renders a compact one-line description of a student, e.g.
// "Ana Lima (undergraduate): Mathematics, Physics; Evening; visual".
func Summary(st storage.Student) string {
	name := st.Name
	if name == "" {
		name = st.ID
	}
	if st.AcademicLevel != "" {
		name = fmt.Sprintf("%s (%s)", name, st.AcademicLevel)
	}

	var parts []string
	if len(st.Subjects) > 0 {
		parts = append(parts, strings.Join(st.Subjects, ", "))
	}
	if len(st.PreferredStudyTimes) > 0 {
		parts = append(parts, strings.Join(st.PreferredStudyTimes, ", "))
	}
	if st.LearningStyle != "" {
		parts = append(parts, st.LearningStyle)
	}
	if len(parts) == 0 {
		return name + ": no study preferences yet"
	}

	return truncate(name+": "+strings.Join(parts, "; "), maxSummaryChars)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Ensure we don't split a multi-byte UTF-8 character.
	end := max
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	if idx := strings.LastIndex(s[:end], " "); idx > 0 {
		end = idx
	}
	return strings.TrimRight(s[:end], ",; ") + "…"
}
