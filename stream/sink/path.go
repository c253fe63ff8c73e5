package sink

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const maxNameLen = 50

// RecordingPath returns base/<id>_<name>/<id>_<task>_<YYYYmmdd_HHMMSS>.<ext>
// where name has filesystem-hostile characters removed, spaces replaced by
// underscores, and is cut to 50 bytes. An empty name becomes "Unknown".
func RecordingPath(base, patientID, name, task, ext string, t time.Time) string {
	dir := fmt.Sprintf("%s_%s", patientID, SafeName(name))
	file := fmt.Sprintf("%s_%s_%s.%s", patientID, task, t.Format("20060102_150405"), ext)
	return filepath.Join(base, dir, file)
}

// SafeName sanitises a patient name for use in a path.
func SafeName(name string) string {
	if name == "" {
		name = "Unknown"
	}
	safe := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		if r == ' ' {
			return '_'
		}
		return r
	}, name)
	if len(safe) > maxNameLen {
		safe = safe[:maxNameLen]
	}
	return safe
}
