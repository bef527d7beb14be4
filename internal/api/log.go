package api

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"objmap/pkg/logging"
)

// logAttr matches key=value and key="quoted value" pairs of a text handler line.
var logAttr = regexp.MustCompile(`([\w\-.]+)=(?:"([^"]*)"|(\S+))`)

// maxAttrLen drops long attribute values from the status line.
const maxAttrLen = 20

// handleLatestLog returns the last captured log line, condensed for the UI
// status bar.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"log": formatLogLine(logging.GlobalLogCapture.GetLastLine()),
	})
}

// formatLogLine turns a slog text line into "HH:MM:SS msg (k=v, ...)".
// Level is dropped and the remaining attributes are sorted. Lines it cannot
// parse are returned as they are.
func formatLogLine(raw string) string {
	var (
		msg, clock string
		attrs      []string
	)
	for _, m := range logAttr.FindAllStringSubmatch(raw, -1) {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				clock = t.Format("15:04:05")
			}
		case "level":
		case "msg":
			msg = val
		default:
			if len(val) <= maxAttrLen {
				attrs = append(attrs, key+"="+val)
			}
		}
	}
	if msg == "" {
		return raw
	}

	out := msg
	if clock != "" {
		out = clock + " " + msg
	}
	if len(attrs) == 0 {
		return out
	}
	sort.Strings(attrs)
	return fmt.Sprintf("%s (%s)", out, strings.Join(attrs, ", "))
}
