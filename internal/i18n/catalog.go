// Package i18n loads the per-language message table (language.json).
//
// The file maps language codes to entries:
//
//	{
//	  "en": {"message_content": "Game starts in 10 minutes, get your squad ready!"},
//	  "de": {"message_content": "Das Spiel startet in 10 Minuten!"}
//	}
package i18n

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

const (
	// FallbackLanguage is used when the requested language is missing.
	FallbackLanguage = "en"
	// DefaultMessage is used when no table entry provides a message.
	DefaultMessage = "Default message"
	// MissingFileMessage is used when the language file cannot be read.
	MissingFileMessage = "Default message (language.json not found)."
)

// Entry is one language's strings.
type Entry struct {
	MessageContent string            `json:"message_content"`
	Strings        map[string]string `json:"-"`
}

// UnmarshalJSON keeps every string field in Strings besides message_content.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.Strings = make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		if k == "message_content" {
			e.MessageContent = s
			continue
		}
		e.Strings[k] = s
	}
	return nil
}

// Catalog is the resolved entry for one language.
type Catalog struct {
	Requested string // normalized requested code
	Language  string // code actually used
	Entry     Entry
	FellBack  bool
}

// Message returns the configured message, falling back to DefaultMessage.
func (c *Catalog) Message() string {
	if c.Entry.MessageContent == "" {
		return DefaultMessage
	}
	return c.Entry.MessageContent
}

// String returns a named string of the entry or fallback.
func (c *Catalog) String(key, fallback string) string {
	if s, ok := c.Entry.Strings[key]; ok && s != "" {
		return s
	}
	return fallback
}

// NormalizeCode extracts the base language from values like "en_US.utf-8",
// "de-DE" or "fr". It returns FallbackLanguage when nothing usable remains.
func NormalizeCode(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")
	if s == "" {
		return FallbackLanguage
	}
	tag, err := language.Parse(s)
	if err != nil {
		return FallbackLanguage
	}
	base, _ := tag.Base()
	if base.String() == "und" {
		return FallbackLanguage
	}
	return base.String()
}

// Load reads the table at path and resolves lang. A missing file is not an
// error: the catalog then carries MissingFileMessage.
func Load(path, lang string) (*Catalog, error) {
	requested := NormalizeCode(lang)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Catalog{
			Requested: requested,
			Language:  FallbackLanguage,
			Entry:     Entry{MessageContent: MissingFileMessage},
			FellBack:  true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read language file: %w", err)
	}

	var table map[string]Entry
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse language file: %w", err)
	}
	return resolve(table, requested), nil
}

// resolve picks the table entry closest to requested. Only an exact base
// language match counts; anything else falls back to English.
func resolve(table map[string]Entry, requested string) *Catalog {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	// The matcher's first tag is its default, so English goes first.
	tags := []language.Tag{language.English}
	tagCodes := []string{FallbackLanguage}
	for _, code := range codes {
		tag, err := language.Parse(code)
		if err != nil || code == FallbackLanguage {
			continue
		}
		tags = append(tags, tag)
		tagCodes = append(tagCodes, code)
	}

	want, err := language.Parse(requested)
	if err == nil {
		_, idx, conf := language.NewMatcher(tags).Match(want)
		wantBase, _ := want.Base()
		gotBase, _ := tags[idx].Base()
		if conf != language.No && wantBase == gotBase {
			if entry, ok := table[tagCodes[idx]]; ok {
				return &Catalog{Requested: requested, Language: tagCodes[idx], Entry: entry}
			}
		}
	}

	return &Catalog{
		Requested: requested,
		Language:  FallbackLanguage,
		Entry:     table[FallbackLanguage],
		FellBack:  true,
	}
}
