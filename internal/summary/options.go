package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/pders01/qrsum/internal/debuglog"
)

// Option names used by config files and the command line.
const (
	OptSummarizeSearch   = "summarize_search"
	OptSummarizeDate     = "summarize_date"
	OptSummarizeCategory = "summarize_category"
	OptSummarizeTag      = "summarize_tag"
	OptSummarizeAuthor   = "summarize_author"
	OptSummarizeEmpty    = "summarize_empty"

	OptPrefix      = "prefix"
	OptSuffix      = "suffix"
	OptYearFormat  = "year_format"
	OptMonthFormat = "month_format"
	OptDayFormat   = "day_format"

	OptSearchTemplate   = "search_template"
	OptDateTemplate     = "date_template"
	OptCategoryTemplate = "category_template"
	OptTagTemplate      = "tag_template"
	OptAuthorTemplate   = "author_template"
	OptEmptyMessage     = "empty_message"
)

// ErrUnknownOption is returned by Set and Apply for names the formatter does not know.
var ErrUnknownOption = errors.New("unknown summary option")

type boolField struct {
	get func(*Formatter) bool
	set func(*Formatter, bool)
}

type stringField struct {
	get func(*Formatter) string
	set func(*Formatter, string)
}

func enabledField(t QueryType) boolField {
	return boolField{
		get: func(f *Formatter) bool { return f.Enabled(t) },
		set: func(f *Formatter, v bool) { f.SetEnabled(t, v) },
	}
}

func templateField(t QueryType) stringField {
	return stringField{
		get: func(f *Formatter) string { return f.Template(t) },
		set: func(f *Formatter, s string) { f.SetTemplate(t, s) },
	}
}

var boolFields = map[string]boolField{
	OptSummarizeSearch:   enabledField(TypeSearch),
	OptSummarizeDate:     enabledField(TypeDate),
	OptSummarizeCategory: enabledField(TypeCategory),
	OptSummarizeTag:      enabledField(TypeTag),
	OptSummarizeAuthor:   enabledField(TypeAuthor),
	OptSummarizeEmpty:    {(*Formatter).SummarizeEmpty, (*Formatter).SetSummarizeEmpty},
}

var stringFields = map[string]stringField{
	OptPrefix:           {(*Formatter).Prefix, (*Formatter).SetPrefix},
	OptSuffix:           {(*Formatter).Suffix, (*Formatter).SetSuffix},
	OptYearFormat:       {(*Formatter).YearFormat, (*Formatter).SetYearFormat},
	OptMonthFormat:      {(*Formatter).MonthFormat, (*Formatter).SetMonthFormat},
	OptDayFormat:        {(*Formatter).DayFormat, (*Formatter).SetDayFormat},
	OptSearchTemplate:   templateField(TypeSearch),
	OptDateTemplate:     templateField(TypeDate),
	OptCategoryTemplate: templateField(TypeCategory),
	OptTagTemplate:      templateField(TypeTag),
	OptAuthorTemplate:   templateField(TypeAuthor),
	OptEmptyMessage:     {(*Formatter).EmptyMessage, (*Formatter).SetEmptyMessage},
}

// OptionNames returns every option name in sorted order.
func OptionNames() []string {
	names := make([]string, 0, len(boolFields)+len(stringFields))
	for name := range boolFields {
		names = append(names, name)
	}
	for name := range stringFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set assigns a loosely typed value to the named option.
//
// Boolean options only accept a bool; anything else is ignored and the
// current value kept. String options store the string form of any value.
// The only error is ErrUnknownOption.
func (f *Formatter) Set(name string, value any) error {
	key := strings.ToLower(strings.TrimSpace(name))

	if field, ok := boolFields[key]; ok {
		b, isBool := value.(bool)
		if !isBool {
			debuglog.WithFields(map[string]any{
				"option": key,
				"type":   fmt.Sprintf("%T", value),
			}).Debugf("ignoring non-boolean summary option")
			return nil
		}
		field.set(f, b)
		return nil
	}

	if field, ok := stringFields[key]; ok {
		field.set(f, toString(value))
		return nil
	}

	return errors.Wrapf(ErrUnknownOption, "%q", name)
}

// Get returns the current value of the named option.
func (f *Formatter) Get(name string) (any, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if field, ok := boolFields[key]; ok {
		return field.get(f), nil
	}
	if field, ok := stringFields[key]; ok {
		return field.get(f), nil
	}
	return nil, errors.Wrapf(ErrUnknownOption, "%q", name)
}

// Apply sets every entry of settings. Known options are applied even when
// others are unknown; the unknown names are reported together.
func (f *Formatter) Apply(settings map[string]any) error {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var unknown []string
	for _, k := range keys {
		if err := f.Set(k, settings[k]); err != nil {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return errors.Wrapf(ErrUnknownOption, "%s", strings.Join(unknown, ", "))
	}
	return nil
}

// Settings returns a snapshot of the configuration keyed by option name.
func (f *Formatter) Settings() map[string]any {
	out := make(map[string]any, len(boolFields)+len(stringFields))
	for name, field := range boolFields {
		out[name] = field.get(f)
	}
	for name, field := range stringFields {
		out[name] = field.get(f)
	}
	return out
}

func toString(value any) string {
	if s, err := cast.ToStringE(value); err == nil {
		return s
	}
	return fmt.Sprint(value)
}
