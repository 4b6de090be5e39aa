package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// RosterLine announces one existing participant during the join handshake.
func RosterLine(id int, name string) string {
	return strconv.Itoa(id) + FieldSep + name
}

// ParseRosterLine is the inverse of RosterLine.
func ParseRosterLine(line string) (int, string, error) {
	idStr, name, ok := strings.Cut(strings.TrimSpace(line), FieldSep)
	if !ok {
		return 0, "", fmt.Errorf("roster line %q: missing separator", line)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, "", fmt.Errorf("roster line %q: %w", line, err)
	}
	return id, name, nil
}
