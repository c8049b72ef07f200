package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValueJSONRoundTrip(t *testing.T) {
	when := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	values := map[string]Value{
		"name":   String("John Doe"),
		"total":  Number(decimal.RequireFromString("35.50")),
		"qty":    Int(3),
		"paid":   Bool(true),
		"issued": Time(when),
	}

	data, err := json.Marshal(values)
	assert.NoError(t, err)

	var decoded map[string]Value
	assert.NoError(t, json.Unmarshal(data, &decoded))

	s, ok := decoded["name"].AsString()
	assert.True(t, ok)
	assert.Equal(t, "John Doe", s)

	total, ok := decoded["total"].AsNumber()
	assert.True(t, ok)
	assert.True(t, total.Equal(decimal.RequireFromString("35.50")))

	qty, ok := decoded["qty"].AsNumber()
	assert.True(t, ok)
	assert.True(t, qty.Equal(decimal.NewFromInt(3)))

	b, ok := decoded["paid"].AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	ts, ok := decoded["issued"].AsTime()
	assert.True(t, ok)
	assert.True(t, ts.Equal(when))
}

func TestValueNumberKeepsExactDecimal(t *testing.T) {
	// 0.1 + 0.2 is the classic float trap; the decimal carrier must not
	// pick up binary noise through serialization.
	v := Number(decimal.RequireFromString("0.1").Add(decimal.RequireFromString("0.2")))

	data, err := json.Marshal(v)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"t":"number","v":0.3}`, string(data))

	var decoded Value
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "0.3", decoded.Text())
}

func TestValueUnmarshalUnknownKind(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"t":"blob","v":"x"}`), &v)
	assert.Error(t, err)
}

func TestValueKindMismatchAccessors(t *testing.T) {
	v := String("42")

	_, ok := v.AsNumber()
	assert.False(t, ok)
	_, ok = v.AsBool()
	assert.False(t, ok)
	_, ok = v.AsTime()
	assert.False(t, ok)
}

func TestFilterMatches(t *testing.T) {
	e := NewEntity("Jane Smith", "INV-002")
	e.Set("InvoiceNumber", String("INV-002"))
	e.Set("TotalAmount", Number(decimal.RequireFromString("4800")))

	assert.True(t, All().Matches(e))
	assert.True(t, ByPartition("Jane Smith").Matches(e))
	assert.False(t, ByPartition("John Doe").Matches(e))
	assert.True(t, ByRow("INV-002").Matches(e))
	assert.False(t, ByRow("INV-001").Matches(e))
	assert.True(t, ByProperty("InvoiceNumber", "INV-002").Matches(e))
	assert.True(t, ByProperty("TotalAmount", "4800").Matches(e))
	assert.False(t, ByProperty("InvoiceNumber", "INV-999").Matches(e))
	assert.False(t, ByProperty("Missing", "x").Matches(e))
}

func TestEntitySetOnNilMap(t *testing.T) {
	var e Entity
	e.Set("Name", String("Bob"))
	assert.Equal(t, "Bob", e.GetString("Name"))
}
