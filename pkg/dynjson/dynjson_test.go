package dynjson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickvault/pkg/core"
)

func mustParse(t *testing.T, op, body string) Value {
	t.Helper()
	doc, err := Parse(op, []byte(body))
	require.NoError(t, err)
	return doc
}

func TestParse_Kinds(t *testing.T) {
	doc := mustParse(t, "OP", `{
		"null": null,
		"bool": true,
		"uint": 123,
		"uint_max": 18446744073709551615,
		"negative": -3,
		"float": 2.5,
		"exponent": 1e2,
		"overflow": 18446744073709551616,
		"string": "x",
		"array": [1, 2],
		"object": {"k": "v"}
	}`)

	obj, err := Op("OP").Fields(doc)
	require.NoError(t, err)

	tests := []struct {
		key  string
		want Kind
	}{
		{"null", KindNull},
		{"bool", KindBool},
		{"uint", KindUint},
		{"uint_max", KindUint},
		{"negative", KindFloat},
		{"float", KindFloat},
		{"exponent", KindFloat},
		{"overflow", KindFloat},
		{"string", KindString},
		{"array", KindArray},
		{"object", KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, obj[tt.key].Kind())
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse("GET_COST", []byte(`{"cost": `))

	var parseErr *core.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "GET_COST", parseErr.Op)
}

func TestCtx_Paths(t *testing.T) {
	c := Op("BATCH_LIST_JOBS")

	assert.Equal(t, "BATCH_LIST_JOBS", c.Path())
	assert.Equal(t, "BATCH_LIST_JOBS[2]", c.Index(2).Path())
	assert.Equal(t, "BATCH_LIST_JOBS[2].symbols", c.Index(2).At("symbols").Path())

	// Extending a context never mutates the original.
	assert.Equal(t, "BATCH_LIST_JOBS", c.Path())
}

func TestMissingKey(t *testing.T) {
	doc := mustParse(t, "BATCH_SUBMIT_JOB", `{"id": 123}`)

	_, err := Op("BATCH_SUBMIT_JOB").String(doc, "user_id")

	var missing *core.MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "BATCH_SUBMIT_JOB", missing.Path)
	assert.Equal(t, "user_id", missing.Key)
	assert.Equal(t, "missing key 'user_id' in response for BATCH_SUBMIT_JOB", err.Error())
}

func TestTypeMismatch_UnderKey(t *testing.T) {
	doc := mustParse(t, "BATCH_SUBMIT_JOB", `{"id": 123}`)

	_, err := Op("BATCH_SUBMIT_JOB").String(doc, "id")

	var mismatch *core.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "string", mismatch.Expected)
	assert.Equal(t, "unsigned number", mismatch.Actual)
	assert.Equal(t, "123", mismatch.Value)
	assert.Equal(t, "id", mismatch.Key)
	assert.Equal(t,
		"expected string in response for BATCH_SUBMIT_JOB, got unsigned number 123 for key 'id'",
		err.Error())
}

func TestTypeMismatch_AtRoot(t *testing.T) {
	doc := mustParse(t, "LIST_DATASETS", `"GLBX.MDP3"`)

	_, err := Op("LIST_DATASETS").Elements(doc)

	var mismatch *core.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "array", mismatch.Expected)
	assert.Equal(t, "string", mismatch.Actual)
	assert.Empty(t, mismatch.Key)
	assert.Equal(t, `expected array response for LIST_DATASETS, got string "GLBX.MDP3"`, err.Error())
}

func TestUint_RejectsFloats(t *testing.T) {
	doc := mustParse(t, "OP", `{"n": 3.5, "neg": -1}`)
	c := Op("OP")

	_, err := c.Uint(doc, "n")
	var mismatch *core.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "unsigned number", mismatch.Expected)
	assert.Equal(t, "number", mismatch.Actual)

	// A negative integral is syntactically a number but does not fit the
	// unsigned requirement; it is rejected, not truncated.
	_, err = c.Uint(doc, "neg")
	assert.Error(t, err)
}

func TestFloat_AcceptsBothNumericKinds(t *testing.T) {
	doc := mustParse(t, "OP", `{"u": 7, "f": 2.5}`)
	c := Op("OP")

	u, err := c.Float(doc, "u")
	require.NoError(t, err)
	assert.Equal(t, 7.0, u)

	f, err := c.Float(doc, "f")
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)
}

func TestDecimal_Exact(t *testing.T) {
	doc := mustParse(t, "LIST_UNIT_PRICES", `{"trades": 21.05, "mbo": 42}`)
	c := Op("LIST_UNIT_PRICES")

	d, err := c.Decimal(doc, "trades")
	require.NoError(t, err)
	assert.Equal(t, "21.05", d.String())

	d, err = c.Decimal(doc, "mbo")
	require.NoError(t, err)
	assert.Equal(t, "42", d.String())

	_, err = c.Decimal(doc, "missing")
	var missing *core.MissingKeyError
	assert.ErrorAs(t, err, &missing)
}

func TestTimeNanos(t *testing.T) {
	doc := mustParse(t, "OP", `{"start": 1609459200000000000}`)

	ts, err := Op("OP").TimeNanos(doc, "start")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), ts)
}

func TestStrings_ChecksElements(t *testing.T) {
	doc := mustParse(t, "SYMBOLOGY_RESOLVE", `{"partial": ["ESM2", "ESU2"], "bad": ["ok", 5]}`)
	c := Op("SYMBOLOGY_RESOLVE")

	got, err := c.Strings(doc, "partial")
	require.NoError(t, err)
	assert.Equal(t, []string{"ESM2", "ESU2"}, got)

	_, err = c.Strings(doc, "bad")
	var mismatch *core.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "SYMBOLOGY_RESOLVE.bad", mismatch.Path)
	assert.Equal(t, "1", mismatch.Key)
	assert.Equal(t, "string", mismatch.Expected)
	assert.Equal(t, "unsigned number", mismatch.Actual)
}

func TestOptionalVariants(t *testing.T) {
	doc := mustParse(t, "BATCH_SUBMIT_JOB", `{"bill_id": "b-77", "limit": 100, "null_key": null}`)
	c := Op("BATCH_SUBMIT_JOB")

	s, err := c.StringOr(doc, "bill_id", "")
	require.NoError(t, err)
	assert.Equal(t, "b-77", s)

	s, err = c.StringOr(doc, "absent", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", s)

	u, err := c.UintOr(doc, "limit", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), u)

	u, err = c.UintOr(doc, "absent", 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), u)

	// Present but wrongly shaped values still fail; the default covers
	// absence only.
	_, err = c.StringOr(doc, "null_key", "fallback")
	var mismatch *core.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "null", mismatch.Actual)
	assert.Equal(t, "null", mismatch.Value)
}

func TestAsStrings(t *testing.T) {
	doc := mustParse(t, "LIST_DATASETS", `["GLBX.MDP3", "XNAS.ITCH"]`)

	got, err := Op("LIST_DATASETS").AsStrings(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"GLBX.MDP3", "XNAS.ITCH"}, got)

	mixed := mustParse(t, "LIST_DATASETS", `["GLBX.MDP3", 7]`)
	_, err = Op("LIST_DATASETS").AsStrings(mixed)
	var mismatch *core.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "string", mismatch.Expected)
	assert.Equal(t, "unsigned number", mismatch.Actual)
	assert.Equal(t, "1", mismatch.Key)
}

func TestRootScalars(t *testing.T) {
	size := mustParse(t, "GET_BILLABLE_SIZE", `71456`)
	u, err := Op("GET_BILLABLE_SIZE").AsUint(size)
	require.NoError(t, err)
	assert.Equal(t, uint64(71456), u)

	cost := mustParse(t, "GET_COST", `13.67`)
	d, err := Op("GET_COST").AsDecimal(cost)
	require.NoError(t, err)
	assert.Equal(t, "13.67", d.String())

	_, err = Op("GET_BILLABLE_SIZE").AsUint(cost)
	var mismatch *core.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "unsigned number", mismatch.Expected)
	assert.Equal(t, "number", mismatch.Actual)
}

func TestEnum(t *testing.T) {
	doc := mustParse(t, "LIST_SCHEMAS", `{"schema": "ohlcv-1s", "stype": "product_id", "bad": "bogus"}`)
	c := Op("LIST_SCHEMAS")

	schema, err := Enum[core.Schema](c, doc, "schema")
	require.NoError(t, err)
	assert.Equal(t, core.SchemaOhlcv1S, schema)

	stype, err := Enum[core.SType](c, doc, "stype")
	require.NoError(t, err)
	assert.Equal(t, core.STypeProductID, stype)

	_, err = Enum[core.Schema](c, doc, "bad")
	var mismatch *core.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "core.Schema", mismatch.Expected)
	assert.Equal(t, `"bogus"`, mismatch.Value)
	assert.Equal(t, "bad", mismatch.Key)

	// A non-string under the key reports the string requirement first.
	numDoc := mustParse(t, "LIST_SCHEMAS", `{"schema": 4}`)
	_, err = Enum[core.Schema](c, numDoc, "schema")
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "string", mismatch.Expected)
}

func TestDecode_Idempotent(t *testing.T) {
	doc := mustParse(t, "OP", `{"a": "x", "nested": {"b": 2, "a": true}}`)
	c := Op("OP")

	first, err1 := c.String(doc, "a")
	second, err2 := c.String(doc, "a")
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)

	// A failing decode yields the same error every time, including the
	// rendering of the offending value: object keys are sorted.
	_, errA := c.String(doc, "nested")
	_, errB := c.String(doc, "nested")
	require.Error(t, errA)
	require.Error(t, errB)
	assert.Equal(t, errA.Error(), errB.Error())
	assert.Equal(t,
		`expected string in response for OP, got object {"a":true,"b":2} for key 'nested'`,
		errA.Error())
}

func TestObject_NestedDecode(t *testing.T) {
	doc := mustParse(t, "SYMBOLOGY_RESOLVE", `{"result": {"ESM2": [{"s": "3403"}]}}`)
	c := Op("SYMBOLOGY_RESOLVE")

	result, err := c.Object(doc, "result")
	require.NoError(t, err)

	intervals, err := c.At("result").Array(result, "ESM2")
	require.NoError(t, err)
	require.Len(t, intervals, 1)

	s, err := c.At("result").At("ESM2").Index(0).String(intervals[0], "s")
	require.NoError(t, err)
	assert.Equal(t, "3403", s)

	_, err = c.At("result").At("ESM2").Index(0).String(intervals[0], "d0")
	var missing *core.MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "SYMBOLOGY_RESOLVE.result.ESM2[0]", missing.Path)
}
