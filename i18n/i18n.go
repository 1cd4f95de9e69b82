package i18n

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/pkg/errors"
)

var translations = make(map[string]map[string]string)
var DefaultLang = "en"

var Languages = []string{"en", "fr"}

// LoadTranslations reads <dir>/<lang>.json from fsys for every supported
// language.
func LoadTranslations(fsys fs.FS, dir string) error {
	for _, lang := range Languages {
		data, err := fs.ReadFile(fsys, path.Join(dir, lang+".json"))
		if err != nil {
			return errors.Wrapf(err, "read %s translations", lang)
		}
		var t map[string]string
		if err := json.Unmarshal(data, &t); err != nil {
			return errors.Wrapf(err, "parse %s translations", lang)
		}
		translations[lang] = t
	}
	return nil
}

func T(lang, key string) string {
	if t, ok := translations[lang]; ok {
		if val, ok := t[key]; ok {
			return val
		}
	}
	// Fallback to English
	if lang != DefaultLang {
		return T(DefaultLang, key)
	}
	return key
}

func DetectLanguage(r *http.Request) string {
	accept := r.Header.Get("Accept-Language")
	if accept != "" {
		// Example: fr-CH, fr;q=0.9, en;q=0.8, de;q=0.7, *;q=0.5
		parts := strings.Split(accept, ",")
		for _, part := range parts {
			lang := strings.TrimSpace(strings.Split(part, ";")[0])
			if len(lang) >= 2 {
				lang = strings.ToLower(lang[:2]) // e.g., "en-US" -> "en"
				if _, ok := translations[lang]; ok {
					return lang
				}
			}
		}
	}

	return DefaultLang
}
