// Package web holds the embedded HTML templates and their helper functions.
package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mergestat/timediff"
)

//go:embed templates/*.html
var templateFS embed.FS

// Funcs are the helper functions available inside the templates.
var Funcs = template.FuncMap{
	// timesince formats a timestamp as a relative time like "3 days ago".
	"timesince": func(t time.Time) string {
		return timediff.TimeDiff(t)
	},
	// filesize formats a byte count as a human-readable string.
	"filesize": func(size int64) string {
		if size <= 0 {
			return ""
		}
		return humanize.Bytes(uint64(size))
	},
}

// Templates parses the embedded templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html")
}
