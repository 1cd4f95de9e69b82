package web

import (
	"html/template"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesParse(t *testing.T) {
	pages, err := fs.Glob(FS, "templates/*.html")
	require.NoError(t, err)
	require.NotEmpty(t, pages)

	funcs := template.FuncMap{"T": func(key string) string { return key }}
	for _, page := range pages {
		if page == "templates/layout.html" {
			continue
		}
		tmpl, err := template.New("").Funcs(funcs).ParseFS(FS, "templates/layout.html", page)
		require.NoError(t, err, page)
		assert.NotNil(t, tmpl.Lookup("layout"), page)
		assert.NotNil(t, tmpl.Lookup("content"), page)
	}
}

func TestStatic(t *testing.T) {
	for _, name := range []string{"img/placeholder.svg", "css/style.css"} {
		_, err := fs.Stat(Static(), name)
		assert.NoError(t, err, name)
	}
}
