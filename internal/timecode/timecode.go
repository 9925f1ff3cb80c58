// Package timecode parses and formats the video timestamp grammar used for
// note and comment timecodes: H:MM:SS, M:SS, or a bare seconds count.
package timecode

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	hmsPattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)
	msPattern   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	barePattern = regexp.MustCompile(`^\d+$`)
)

// Parse converts a timecode string to seconds. The M:SS form requires the
// seconds component to be below 60; the H:MM:SS form carries no component
// range checks.
func Parse(raw string) (int, bool) {
	if m := hmsPattern.FindStringSubmatch(raw); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		sec, _ := strconv.Atoi(m[3])
		return h*3600 + min*60 + sec, true
	}
	if m := msPattern.FindStringSubmatch(raw); m != nil {
		min, _ := strconv.Atoi(m[1])
		sec, _ := strconv.Atoi(m[2])
		if sec >= 60 {
			return 0, false
		}
		return min*60 + sec, true
	}
	if barePattern.MatchString(raw) {
		sec, err := strconv.Atoi(raw)
		if err != nil {
			return 0, false
		}
		return sec, true
	}
	return 0, false
}

// Format renders seconds as M:SS, or H:MM:SS once an hour is reached.
func Format(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
