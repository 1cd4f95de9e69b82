// Package web embeds the HTML templates, static assets and translations.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static i18n/*.json
var FS embed.FS

// Static is the static/ tree rooted at its own directory.
func Static() fs.FS {
	sub, err := fs.Sub(FS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
