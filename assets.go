package crudgen

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-crudgen/pkg/views"
)

//go:embed static
var embeddedStatic embed.FS

// StaticFS exposes the bundled static files: the add icon used by headings
// and owner selects, and the inline formset script.
//
// Typical mount:
//
//	mux.Handle("/static/",
//	  http.StripPrefix("/static/",
//	    http.FileServerFS(crudgen.StaticFS()),
//	  ),
//	)
func StaticFS() fs.FS {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return embeddedStatic
	}
	return sub
}

// EmbeddedTemplates exposes the fallback view templates so callers can copy
// or extend them.
func EmbeddedTemplates() fs.FS {
	return views.Templates()
}
