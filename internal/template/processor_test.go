package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaOf(params ...Parameter) Schema {
	return Schema(params)
}

func TestCompileSubstitutesAllSyntaxes(t *testing.T) {
	schema := schemaOf(
		Parameter{Name: "region", Kind: KindString, Required: true},
	)
	params := map[string]any{"region": "emea"}

	for _, tmpl := range []string{
		"SELECT * FROM sales WHERE region = {{region}}",
		"SELECT * FROM sales WHERE region = {{ region }}",
		"SELECT * FROM sales WHERE region = ${region}",
		"SELECT * FROM sales WHERE region = :region",
	} {
		result, errs := Compile(tmpl, params, schema)
		require.Empty(t, errs, tmpl)
		assert.Equal(t, "SELECT * FROM sales WHERE region = 'emea'", result.SQL, tmpl)
	}
}

func TestCompileRepeatedPlaceholder(t *testing.T) {
	schema := schemaOf(Parameter{Name: "day", Kind: KindDate, Required: true})
	result, errs := Compile(
		"SELECT :day AS d WHERE created >= :day",
		map[string]any{"day": "2026-03-01"}, schema)
	require.Empty(t, errs)
	assert.Equal(t, "SELECT '2026-03-01' AS d WHERE created >= '2026-03-01'", result.SQL)
}

func TestCompileIgnoresPostgresCast(t *testing.T) {
	schema := schemaOf(Parameter{Name: "id", Kind: KindNumber, Required: true})
	result, errs := Compile(
		"SELECT id::text FROM t WHERE id = :id",
		map[string]any{"id": 7}, schema)
	require.Empty(t, errs)
	assert.Equal(t, "SELECT id::text FROM t WHERE id = 7", result.SQL)
}

func TestCompileIsDeterministic(t *testing.T) {
	schema := schemaOf(
		Parameter{Name: "start", Kind: KindDate, Required: true},
		Parameter{Name: "regions", Kind: KindArray, Required: true},
	)
	params := map[string]any{
		"start":   "2026-01-01",
		"regions": []string{"us", "eu"},
	}
	tmpl := "SELECT * FROM t WHERE d >= {{start}} AND region IN {{regions}}"

	first, errs := Compile(tmpl, params, schema)
	require.Empty(t, errs)
	for i := 0; i < 20; i++ {
		again, errs := Compile(tmpl, params, schema)
		require.Empty(t, errs)
		assert.Equal(t, first.SQL, again.SQL)
	}
}

func TestCompileMissingRequired(t *testing.T) {
	schema := schemaOf(Parameter{Name: "region", Kind: KindString, Required: true})
	result, errs := Compile("SELECT {{region}}", map[string]any{}, schema)
	assert.Nil(t, result)
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "region")
	var missing *MissingParameterError
	assert.ErrorAs(t, errs[0], &missing)
}

func TestCompileOptionalAbsentRendersNull(t *testing.T) {
	schema := schemaOf(Parameter{Name: "region", Kind: KindString})
	result, errs := Compile("WHERE region = {{region}}", nil, schema)
	require.Empty(t, errs)
	assert.Equal(t, "WHERE region = NULL", result.SQL)
}

func TestCompileCollectsAllErrors(t *testing.T) {
	schema := schemaOf(
		Parameter{Name: "a", Kind: KindNumber, Required: true},
		Parameter{Name: "b", Kind: KindDate, Required: true},
	)
	_, errs := Compile("{{a}} {{b}}", map[string]any{
		"a": "not-a-number",
		"b": "not-a-date",
	}, schema)
	assert.Len(t, errs, 2)
}

func TestCompileUndeclaredPlaceholderWarns(t *testing.T) {
	result, errs := Compile("SELECT {{mystery}}", nil, nil)
	require.Empty(t, errs)
	assert.Equal(t, "SELECT {{mystery}}", result.SQL)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "mystery")
}

func TestCompileUnusedSchemaEntryWarns(t *testing.T) {
	schema := schemaOf(Parameter{Name: "region", Kind: KindString})
	result, errs := Compile("SELECT 1", nil, schema)
	require.Empty(t, errs)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "region")
}

func TestRenderNumber(t *testing.T) {
	schema := schemaOf(Parameter{Name: "n", Kind: KindNumber, Required: true})

	cases := map[any]string{
		42:      "42",
		"42":    "42",
		42.5:    "42.5",
		-3.0:    "-3",
		"0.125": "0.125",
	}
	for in, want := range cases {
		result, errs := Compile(":n", map[string]any{"n": in}, schema)
		require.Empty(t, errs)
		assert.Equal(t, want, result.SQL)
	}
}

func TestRenderBoolean(t *testing.T) {
	schema := schemaOf(Parameter{Name: "flag", Kind: KindBoolean, Required: true})

	result, errs := Compile(":flag", map[string]any{"flag": true}, schema)
	require.Empty(t, errs)
	assert.Equal(t, "TRUE", result.SQL)

	result, errs = Compile(":flag", map[string]any{"flag": "false"}, schema)
	require.Empty(t, errs)
	assert.Equal(t, "FALSE", result.SQL)
}

func TestRenderDateAcceptsTimeAndStrings(t *testing.T) {
	schema := schemaOf(Parameter{Name: "d", Kind: KindDate, Required: true})

	for _, value := range []any{
		time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		"2026-02-14",
		"2026-02-14T09:30:00Z",
	} {
		result, errs := Compile(":d", map[string]any{"d": value}, schema)
		require.Empty(t, errs)
		assert.Equal(t, "'2026-02-14'", result.SQL)
	}

	_, errs := Compile(":d", map[string]any{"d": "14/02/2026"}, schema)
	require.Len(t, errs, 1)
	var coercion *TypeCoercionError
	assert.ErrorAs(t, errs[0], &coercion)
}

func TestRenderArray(t *testing.T) {
	schema := schemaOf(Parameter{Name: "regions", Kind: KindArray, Required: true})

	result, errs := Compile("IN :regions", map[string]any{"regions": []string{"a", "b"}}, schema)
	require.Empty(t, errs)
	assert.Equal(t, "IN ('a','b')", result.SQL)

	_, errs = Compile("IN :regions", map[string]any{"regions": []string{}}, schema)
	require.Len(t, errs, 1)
	var validation *ValidationError
	assert.ErrorAs(t, errs[0], &validation)
}

func TestRenderPatternWildcardIdempotent(t *testing.T) {
	schema := schemaOf(Parameter{Name: "q", Kind: KindPattern, Required: true})

	result, errs := Compile("LIKE :q", map[string]any{"q": "acme"}, schema)
	require.Empty(t, errs)
	assert.Equal(t, "LIKE '%acme%'", result.SQL)

	// a value that already carries wildcards is never double-wrapped
	result, errs = Compile("LIKE :q", map[string]any{"q": "%acme%"}, schema)
	require.Empty(t, errs)
	assert.Equal(t, "LIKE '%acme%'", result.SQL)

	result, errs = Compile("LIKE :q", map[string]any{"q": "acme%"}, schema)
	require.Empty(t, errs)
	assert.Equal(t, "LIKE 'acme%'", result.SQL)
}

func TestQuoteEscapesSingleQuotes(t *testing.T) {
	schema := schemaOf(Parameter{Name: "name", Kind: KindString, Required: true})
	result, errs := Compile(":name", map[string]any{"name": "O'Brien"}, schema)
	require.Empty(t, errs)
	assert.Equal(t, "'O''Brien'", result.SQL)
}

func TestDenylistRejectsUnsafeValues(t *testing.T) {
	schema := schemaOf(Parameter{Name: "v", Kind: KindString, Required: true})

	for _, value := range []string{
		"x; DROP TABLE users",
		"a -- comment",
		"1 UNION SELECT password FROM users",
		"union   select secrets",
		"/* sneaky */",
	} {
		_, errs := Compile(":v", map[string]any{"v": value}, schema)
		require.Len(t, errs, 1, value)
		var unsafe *UnsafeValueError
		assert.ErrorAs(t, errs[0], &unsafe, value)
	}
}

func TestDenylistGuardsArrayItems(t *testing.T) {
	schema := schemaOf(Parameter{Name: "vs", Kind: KindArray, Required: true})
	_, errs := Compile(":vs", map[string]any{"vs": []string{"ok", "x; drop table t"}}, schema)
	require.Len(t, errs, 1)
	var unsafe *UnsafeValueError
	assert.ErrorAs(t, errs[0], &unsafe)
}

func TestPlaceholdersOrderOfFirstAppearance(t *testing.T) {
	names := Placeholders("SELECT {{b}}, ${a}, :c, {{b}}")
	assert.Equal(t, []string{"b", "a", "c"}, names)
}
