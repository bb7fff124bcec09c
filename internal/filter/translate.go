package filter

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator describes filters in the user's language. It is used as the
// display name of filters stored without one.
type Translator struct {
	printer *message.Printer
}

var translations = map[language.Tag]map[string]string{
	language.French: {
		"Level":                  "Niveau",
		"Logger":                 "Logger",
		"Thread":                 "Thread",
		"Message":                "Message",
		"Time":                   "Heure",
		"%s is one of %s":        "%s parmi %s",
		"%s is not one of %s":    "%s hors de %s",
		"%s equals %s":           "%s égal à %s",
		"%s contains %q":         "%s contient %q",
		"%s does not contain %q": "%s ne contient pas %q",
		"%s after %s":            "%s après %s",
		"%s before %s":           "%s avant %s",
		" and ":                  " et ",
		" or ":                   " ou ",
		"All rows":               "Toutes les lignes",
		"Filter %d":              "Filtre %d",
	},
}

var filterCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range translations {
		for key, msg := range entries {
			// Keys are static; SetString only fails on malformed messages.
			_ = b.SetString(tag, key, msg)
		}
	}
	return b
}

// NewTranslator returns a translator for lang ("en", "fr", "fr-CA", ...).
// Unsupported languages fall back to English.
func NewTranslator(lang string) *Translator {
	return &Translator{printer: message.NewPrinter(resolveLanguage(lang), message.Catalog(filterCatalog))}
}

func resolveLanguage(lang string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return language.English
	}
	base, _ := tag.Base()
	if base.String() == "fr" {
		return language.French
	}
	return language.English
}

// Translate renders def as a sentence such as `Level is one of ERROR, FATAL and
// Message contains "timeout"`.
func (t *Translator) Translate(def Definition) string {
	if len(def.Expressions) == 0 {
		return t.printer.Sprintf("All rows")
	}
	parts := make([]string, 0, len(def.Expressions))
	for _, expr := range def.Expressions {
		phrase, ok := t.phrase(expr)
		if !ok {
			return t.printer.Sprintf("Filter %d", def.ID)
		}
		parts = append(parts, phrase)
	}
	sep := t.printer.Sprintf(" and ")
	if def.Combinator() == CombineOr {
		sep = t.printer.Sprintf(" or ")
	}
	return strings.Join(parts, sep)
}

func (t *Translator) phrase(expr Expression) (string, bool) {
	label, ok := t.fieldLabel(expr.Field)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(expr.Value)
	switch strings.ToLower(strings.TrimSpace(expr.Operator)) {
	case OpIn:
		return t.printer.Sprintf("%s is one of %s", label, strings.Join(splitList(value), ", ")), true
	case OpNotIn:
		return t.printer.Sprintf("%s is not one of %s", label, strings.Join(splitList(value), ", ")), true
	case OpEquals:
		return t.printer.Sprintf("%s equals %s", label, value), true
	case OpContains:
		return t.printer.Sprintf("%s contains %q", label, value), true
	case OpNotContains:
		return t.printer.Sprintf("%s does not contain %q", label, value), true
	case OpAfter:
		return t.printer.Sprintf("%s after %s", label, value), true
	case OpBefore:
		return t.printer.Sprintf("%s before %s", label, value), true
	default:
		return "", false
	}
}

func (t *Translator) fieldLabel(field string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case FieldLevel:
		return t.printer.Sprintf("Level"), true
	case FieldLogger:
		return t.printer.Sprintf("Logger"), true
	case FieldThread:
		return t.printer.Sprintf("Thread"), true
	case FieldMessage:
		return t.printer.Sprintf("Message"), true
	case FieldTime:
		return t.printer.Sprintf("Time"), true
	default:
		return "", false
	}
}
