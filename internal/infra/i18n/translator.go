package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLang is used for messages without a language and for unknown codes.
const DefaultLang = "en"

// Languages shipped in locales/.
var Languages = []string{"en", "es"}

type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = langCode
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

func (t *Translator) Lang() string { return t.lang }

// T returns the key itself when no translation exists.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Catalog picks a Translator by the language tag of an answer.
type Catalog struct {
	byLang map[string]*Translator
}

// NewCatalog loads every shipped language from the embedded locales.
func NewCatalog() (*Catalog, error) {
	return NewCatalogFS(LocalesFS)
}

func NewCatalogFS(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{byLang: make(map[string]*Translator, len(Languages))}
	for _, l := range Languages {
		t, err := NewTranslator(fsys, l)
		if err != nil {
			return nil, err
		}
		c.byLang[l] = t
	}
	return c, nil
}

// For accepts tags like "es", "ES" or "es-MX" and falls back to DefaultLang.
func (c *Catalog) For(lang string) *Translator {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if t, ok := c.byLang[lang]; ok {
		return t
	}
	return c.byLang[DefaultLang]
}

// Known reports whether a language has its own locale file.
func (c *Catalog) Known(lang string) bool {
	_, ok := c.byLang[strings.ToLower(strings.TrimSpace(lang))]
	return ok
}
