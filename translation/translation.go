// Package translation looks up user-facing strings in the guard's chosen
// language. The choice is persisted across restarts.
package translation

import (
	"context"
	"embed"
	"encoding/json"
	"strings"
	"sync"

	"github.com/jrsteele09/go-guard-companion/internal/errors"
	"github.com/jrsteele09/go-guard-companion/storage"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// Supported lists the languages with a table, English first
var Supported = []Language{English, Spanish}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Spanish})

// ParseLanguage accepts a supported language code
func ParseLanguage(code string) (Language, bool) {
	lang := Language(strings.ToLower(strings.TrimSpace(code)))
	for _, l := range Supported {
		if l == lang {
			return l, true
		}
	}
	return "", false
}

// Match picks the supported language closest to a system locale such as
// "es_CR.UTF-8" or "en-GB". Unknown locales get English.
func Match(locale string) Language {
	locale, _, _ = strings.Cut(locale, ".")
	locale = strings.ReplaceAll(locale, "_", "-")
	tag, _, _ := matcher.Match(language.Make(locale))
	base, _ := tag.Base()
	if lang, ok := ParseLanguage(base.String()); ok {
		return lang
	}
	return English
}

type Translator struct {
	store  storage.Repo
	tables map[Language]map[string]string

	mu   sync.RWMutex
	lang Language
}

// New loads the persisted language. Without one, or if it cannot be read, the
// language is matched from locale.
func New(ctx context.Context, store storage.Repo, locale string) (*Translator, error) {
	tables, err := loadTables()
	if err != nil {
		return nil, err
	}
	t := &Translator{store: store, tables: tables, lang: Match(locale)}

	saved, ok, err := store.Get(ctx, storage.KeyLanguage)
	if err != nil {
		log.Err(err).Msg("Error loading language")
		return t, nil
	}
	if lang, valid := ParseLanguage(saved); ok && valid {
		t.lang = lang
	}
	return t, nil
}

func loadTables() (map[Language]map[string]string, error) {
	tables := make(map[Language]map[string]string, len(Supported))
	for _, lang := range Supported {
		raw, err := locales.ReadFile("locales/" + string(lang) + ".json")
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "[loadTables] missing table %s", lang)
		}
		table := map[string]string{}
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, pkgerrors.Wrapf(err, "[loadTables] invalid table %s", lang)
		}
		tables[lang] = table
	}
	return tables, nil
}

func (t *Translator) Language() Language {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// SetLanguage persists lang and switches to it. The language is unchanged if
// it cannot be persisted.
func (t *Translator) SetLanguage(ctx context.Context, lang Language) error {
	if _, ok := ParseLanguage(string(lang)); !ok {
		return errors.Wrapf(errors.ErrUnsupported, "[SetLanguage] language %q", lang)
	}
	if err := t.store.Set(ctx, storage.KeyLanguage, string(lang)); err != nil {
		return pkgerrors.Wrap(err, "[SetLanguage] saving language")
	}
	t.mu.Lock()
	t.lang = lang
	t.mu.Unlock()
	return nil
}

// T returns the text for key, falling back to English and then to the key itself
func (t *Translator) T(key string) string {
	lang := t.Language()
	if s, ok := t.tables[lang][key]; ok && s != "" {
		return s
	}
	if s, ok := t.tables[English][key]; ok && s != "" {
		return s
	}
	return key
}

// Format is T with "{name}" placeholders replaced from args
func (t *Translator) Format(key string, args map[string]string) string {
	s := t.T(key)
	for name, value := range args {
		s = strings.ReplaceAll(s, "{"+name+"}", value)
	}
	return s
}
