package toolspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robustcall/sdk/callexpr"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestCheckTypes(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name    string
		param   Parameter
		value   callexpr.Value
		wantErr bool
	}{
		{name: "string ok", param: Parameter{Type: TypeString}, value: callexpr.String("x")},
		{name: "string rejects number", param: Parameter{Type: TypeString}, value: callexpr.Int(1), wantErr: true},
		{name: "number accepts int", param: Parameter{Type: TypeNumber}, value: callexpr.Int(1)},
		{name: "number accepts float", param: Parameter{Type: TypeNumber}, value: callexpr.Float(1.5)},
		{name: "boolean ok", param: Parameter{Type: TypeBoolean}, value: callexpr.Bool(true)},
		{name: "boolean rejects string", param: Parameter{Type: TypeBoolean}, value: callexpr.String("true"), wantErr: true},
		{name: "list ok", param: Parameter{Type: TypeList}, value: callexpr.List{callexpr.Int(1)}},
		{name: "object ok", param: Parameter{Type: TypeObject}, value: callexpr.Map{}},
		{name: "enum is string typed", param: Parameter{Type: TypeEnum, Enum: []string{"a"}}, value: callexpr.Int(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check("p", tt.param, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckPattern(t *testing.T) {
	v := newTestValidator(t)
	param := Parameter{Type: TypeString, Pattern: `[A-Z]{3}`}

	assert.NoError(t, v.Check("airport", param, callexpr.String("SFO")))
	assert.Error(t, v.Check("airport", param, callexpr.String("sfo")))
	// The pattern is anchored; partial matches fail.
	assert.Error(t, v.Check("airport", param, callexpr.String("SFO1")))
}

func TestCheckEnum(t *testing.T) {
	v := newTestValidator(t)
	param := Parameter{Type: TypeEnum, Enum: []string{"economy", "business", "first"}}

	assert.NoError(t, v.Check("cabin", param, callexpr.String("business")))
	assert.Error(t, v.Check("cabin", param, callexpr.String("Business")))
	assert.Error(t, v.Check("cabin", param, callexpr.String("premium")))
}

func TestCheckExpr(t *testing.T) {
	v := newTestValidator(t)

	count := Parameter{Type: TypeNumber, Expr: "value >= 0 && value <= 10"}
	assert.NoError(t, v.Check("baggage_count", count, callexpr.Int(2)))
	assert.Error(t, v.Check("baggage_count", count, callexpr.Int(12)))

	name := Parameter{Type: TypeString, Expr: "value.size() > 0"}
	assert.NoError(t, v.Check("user", name, callexpr.String("ada")))
	assert.Error(t, v.Check("user", name, callexpr.String("")))

	bad := Parameter{Type: TypeString, Expr: "value +"}
	assert.Error(t, v.Check("user", bad, callexpr.String("x")))
}

func TestCheckNested(t *testing.T) {
	v := newTestValidator(t)

	items := Parameter{
		Type:  TypeList,
		Items: &Parameter{Type: TypeEnum, Enum: []string{"rice", "tofu"}},
	}
	assert.NoError(t, v.Check("items", items, callexpr.List{callexpr.String("rice")}))
	assert.Error(t, v.Check("items", items, callexpr.List{callexpr.String("rice"), callexpr.String("beef")}))

	obj := Parameter{
		Type: TypeObject,
		Properties: map[string]Parameter{
			"city":  {Type: TypeString, Required: true},
			"count": {Type: TypeNumber},
		},
	}
	assert.NoError(t, v.Check("dest", obj, callexpr.Map{
		{Key: "city", Value: callexpr.String("Osaka")},
		{Key: "count", Value: callexpr.Int(2)},
	}))
	assert.Error(t, v.Check("dest", obj, callexpr.Map{
		{Key: "count", Value: callexpr.Int(2)},
	}), "missing required field")
	assert.Error(t, v.Check("dest", obj, callexpr.Map{
		{Key: "city", Value: callexpr.Int(1)},
	}), "wrong field type")
}

func TestFirstViolation(t *testing.T) {
	v := newTestValidator(t)

	spec := ToolSpec{
		Name: "reserve_flight",
		Parameters: map[string]Parameter{
			"flight_no": {Type: TypeString, Pattern: `[A-Z]{2}\d{3,4}`},
			"cabin":     {Type: TypeEnum, Enum: []string{"economy", "business"}},
		},
	}

	ok := callexpr.Call{Name: "reserve_flight", Args: []callexpr.Arg{
		{Name: "flight_no", Value: callexpr.String("CA1234")},
		{Name: "cabin", Value: callexpr.String("economy")},
	}}
	name, err := v.FirstViolation(spec, ok)
	require.NoError(t, err)
	assert.Empty(t, name)

	bad := callexpr.Call{Name: "reserve_flight", Args: []callexpr.Arg{
		{Name: "flight_no", Value: callexpr.String("1234")},
		{Name: "cabin", Value: callexpr.String("premium")},
	}}
	name, err = v.FirstViolation(spec, bad)
	require.NoError(t, err)
	assert.Equal(t, "flight_no", name, "first violating argument in call order")
}

func TestCatalogueClone(t *testing.T) {
	cat := Catalogue{{
		Name:        "get_products",
		Description: "List a merchant's products.",
		Parameters: map[string]Parameter{
			"merchant_name": {Type: TypeString, Required: true},
		},
	}}

	clone := cat.Clone()
	clone[0].Description = "changed"
	clone[0].Parameters["merchant_name"] = Parameter{Type: TypeNumber}

	assert.Equal(t, "List a merchant's products.", cat[0].Description)
	assert.Equal(t, TypeString, cat[0].Parameters["merchant_name"].Type)

	_, found := cat.Find("get_products")
	assert.True(t, found)
	_, found = cat.Find("missing")
	assert.False(t, found)
}
