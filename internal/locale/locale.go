package locale

import (
	"embed"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"datewheel/internal/model"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const DefaultLanguage = "en"

const (
	MsgButtonConfirm    = "ButtonConfirm"
	MsgAlertIncomplete  = "AlertIncomplete"
	MsgHostUnavailable  = "HostUnavailable"
	MsgStatusSelected   = "StatusSelected"
	MsgStatusIncomplete = "StatusIncomplete"
	MsgStatusSent       = "StatusSent"
)

var monthIDs = [12]string{
	"MonthJan", "MonthFeb", "MonthMar", "MonthApr", "MonthMay", "MonthJun",
	"MonthJul", "MonthAug", "MonthSep", "MonthOct", "MonthNov", "MonthDec",
}

var fieldIDs = map[model.Field]string{
	model.FieldDay:    "FieldDay",
	model.FieldMonth:  "FieldMonth",
	model.FieldYear:   "FieldYear",
	model.FieldHour:   "FieldHour",
	model.FieldMinute: "FieldMinute",
}

var (
	bundleOnce sync.Once
	bundle     *i18n.Bundle
	supported  []string
)

func loadBundle() {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error("read locales", "component", "locale", "error", err)
		return
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error("load locale", "component", "locale", "file", name, "error", err)
			continue
		}
		supported = append(supported, strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json"))
	}
	sort.Strings(supported)
}

// Supported lists the languages with an embedded message file.
func Supported() []string {
	bundleOnce.Do(loadBundle)
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// Catalog resolves picker strings for one language.
type Catalog struct {
	lang      language.Tag
	localizer *i18n.Localizer
}

// New returns a catalog for lang (a BCP 47 tag such as "es" or "es-VE").
// Unknown languages fall back to English.
func New(lang string) *Catalog {
	bundleOnce.Do(loadBundle)
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = DefaultLanguage
	}
	tag, _, _ := language.NewMatcher(bundle.LanguageTags()).Match(language.Make(lang))
	base, _ := tag.Base()
	return &Catalog{
		lang:      language.Make(base.String()),
		localizer: i18n.NewLocalizer(bundle, lang, DefaultLanguage),
	}
}

func (c *Catalog) Language() string { return c.lang.String() }

// Msg translates id, returning the id itself when it is unknown.
func (c *Catalog) Msg(id string) string {
	if c == nil || c.localizer == nil {
		return id
	}
	s, err := c.localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil {
		slog.Debug("missing translation", "component", "locale", "key", id, "error", err)
		return id
	}
	return s
}

func (c *Catalog) Months() [12]string {
	var out [12]string
	for i, id := range monthIDs {
		out[i] = c.Msg(id)
	}
	return out
}

func (c *Catalog) FieldTitle(f model.Field) string {
	id, ok := fieldIDs[f]
	if !ok {
		return f.String()
	}
	return c.Msg(id)
}

// Calendar builds the picker token sets for this language.
func (c *Catalog) Calendar(yearMin, yearMax int) model.Calendar {
	return model.Calendar{Months: c.Months(), YearMin: yearMin, YearMax: yearMax}
}
