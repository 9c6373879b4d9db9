package workstore

import (
	"mime"
	"path/filepath"
	"time"
)

// knownEnvelopeDateLayouts covers the date formats observed across the
// archived mailboxes this pipeline ingests; RFC3339 first since it is
// produced by the launcher's own envelope exporter.
var knownEnvelopeDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

func parseEnvelopeDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range knownEnvelopeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func mimeByExt(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
