// Package template compiles parameterized SQL report templates into
// final, injection-safe SQL text. Compilation is a pure function of its
// inputs so preview and execution always produce byte-identical output.
package template

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// The three interchangeable placeholder syntaxes: {{name}}, ${name}
// and :name. All resolve to the same parameter name. The colon form
// captures its preceding character to avoid matching "::" casts.
var placeholderRe = regexp.MustCompile(
	`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}` +
		`|\$\{([A-Za-z_][A-Za-z0-9_]*)\}` +
		`|(^|[^:A-Za-z0-9_"']):([A-Za-z_][A-Za-z0-9_]*)`)

// denylist rejects statement terminators and embedded statements in
// values substituted as literals. Identifiers are never taken from
// parameters, so this only has to guard the literal position.
var denylist = []string{
	";", "--", "/*", "*/",
	"union select", "drop table", "drop database",
	"delete from", "insert into", "update set",
	"truncate", "exec ", "execute ", "alter table",
}

const dateLayout = "2006-01-02"

// Compile resolves every declared parameter against the bag and
// substitutes all placeholder occurrences. It returns the final SQL and
// non-blocking warnings, or the full list of validation failures. It
// performs no I/O and never consults the clock.
func Compile(tmpl string, params map[string]any, schema Schema) (*Result, []error) {
	names := Placeholders(tmpl)

	var errs []error
	var warnings []string
	rendered := make(map[string]string, len(names))

	for _, name := range names {
		spec, declared := schema.Find(name)
		if !declared {
			warnings = append(warnings, fmt.Sprintf("placeholder %q is not declared in the schema", name))
			continue
		}
		value, present := params[spec.Name]
		if !present || value == nil {
			if spec.Required {
				errs = append(errs, &MissingParameterError{Name: spec.Name})
			} else {
				rendered[spec.Name] = "NULL"
			}
			continue
		}
		text, err := render(spec, value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rendered[spec.Name] = text
	}

	used := make(map[string]bool, len(names))
	for _, name := range names {
		used[name] = true
	}
	for _, spec := range schema {
		if !used[spec.Name] {
			warnings = append(warnings, fmt.Sprintf("schema parameter %q is not used by the template", spec.Name))
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	sql := substitute(tmpl, rendered)
	return &Result{SQL: sql, Warnings: warnings}, nil
}

// Placeholders returns the distinct parameter names referenced by the
// template, in order of first appearance.
func Placeholders(tmpl string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		name := matchName(m)
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func matchName(m []string) string {
	switch {
	case m[1] != "":
		return m[1]
	case m[2] != "":
		return m[2]
	default:
		return m[4]
	}
}

func substitute(tmpl string, rendered map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		m := placeholderRe.FindStringSubmatch(match)
		name := matchName(m)
		text, ok := rendered[name]
		if !ok {
			return match // undeclared placeholder stays as written
		}
		// re-emit the character captured before a :name form
		return m[3] + text
	})
}

func render(spec Parameter, value any) (string, error) {
	switch spec.Kind {
	case KindString:
		return renderString(spec, value)
	case KindNumber:
		return renderNumber(spec, value)
	case KindBoolean:
		return renderBoolean(spec, value)
	case KindDate:
		return renderDate(spec, value)
	case KindArray:
		return renderArray(spec, value)
	case KindPattern:
		return renderPattern(spec, value)
	default:
		return "", &ValidationError{Name: spec.Name, Reason: fmt.Sprintf("unknown kind %q", spec.Kind)}
	}
}

func renderString(spec Parameter, value any) (string, error) {
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", &TypeCoercionError{Name: spec.Name, Kind: spec.Kind, Err: err}
	}
	if token := unsafeToken(s); token != "" {
		return "", &UnsafeValueError{Name: spec.Name, Token: token}
	}
	return quote(s), nil
}

func renderNumber(spec Parameter, value any) (string, error) {
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return "", &TypeCoercionError{Name: spec.Name, Kind: spec.Kind, Err: err}
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func renderBoolean(spec Parameter, value any) (string, error) {
	b, err := cast.ToBoolE(value)
	if err != nil {
		return "", &TypeCoercionError{Name: spec.Name, Kind: spec.Kind, Err: err}
	}
	if b {
		return "TRUE", nil
	}
	return "FALSE", nil
}

func renderDate(spec Parameter, value any) (string, error) {
	if t, ok := value.(time.Time); ok {
		return "'" + t.Format(dateLayout) + "'", nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", &TypeCoercionError{Name: spec.Name, Kind: spec.Kind, Err: err}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		if t, rfcErr := time.Parse(time.RFC3339, s); rfcErr == nil {
			return "'" + t.Format(dateLayout) + "'", nil
		}
		return "", &TypeCoercionError{Name: spec.Name, Kind: spec.Kind, Err: err}
	}
	return "'" + t.Format(dateLayout) + "'", nil
}

func renderArray(spec Parameter, value any) (string, error) {
	items, err := cast.ToStringSliceE(value)
	if err != nil {
		return "", &TypeCoercionError{Name: spec.Name, Kind: spec.Kind, Err: err}
	}
	if len(items) == 0 {
		return "", &ValidationError{Name: spec.Name, Reason: "array must not be empty"}
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		if token := unsafeToken(item); token != "" {
			return "", &UnsafeValueError{Name: spec.Name, Token: token}
		}
		quoted[i] = quote(item)
	}
	return "(" + strings.Join(quoted, ",") + ")", nil
}

// renderPattern wraps the value with % markers unless the caller
// already supplied wildcards, so re-compiling an already-wildcarded
// value never double-wraps.
func renderPattern(spec Parameter, value any) (string, error) {
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", &TypeCoercionError{Name: spec.Name, Kind: spec.Kind, Err: err}
	}
	if token := unsafeToken(s); token != "" {
		return "", &UnsafeValueError{Name: spec.Name, Token: token}
	}
	if !strings.Contains(s, "%") {
		s = "%" + s + "%"
	}
	return quote(s), nil
}

func unsafeToken(value string) string {
	lowered := strings.ToLower(value)
	// normalize whitespace runs so "union   select" is still caught
	lowered = strings.Join(strings.Fields(lowered), " ")
	for _, token := range denylist {
		if strings.Contains(lowered, token) {
			return token
		}
	}
	return ""
}

func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// SortedWarnings returns warnings in a stable order for callers that
// compare compile output across call sites.
func SortedWarnings(result *Result) []string {
	out := append([]string(nil), result.Warnings...)
	sort.Strings(out)
	return out
}
