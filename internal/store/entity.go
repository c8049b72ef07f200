// Package store defines the storage capabilities the invoicing core runs on:
// a partition/row addressed entity table store, a named blob store, and an
// at-least-once work queue.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags the variant type of an entity property.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
)

// Value is a tagged variant carried in an entity's property map. Only the
// four kinds above exist; there is no untyped escape hatch.
type Value struct {
	kind Kind
	str  string
	num  decimal.Decimal
	b    bool
	t    time.Time
}

func String(v string) Value          { return Value{kind: KindString, str: v} }
func Number(v decimal.Decimal) Value { return Value{kind: KindNumber, num: v} }
func Int(v int64) Value              { return Value{kind: KindNumber, num: decimal.NewFromInt(v)} }
func Bool(v bool) Value              { return Value{kind: KindBool, b: v} }
func Time(v time.Time) Value         { return Value{kind: KindTime, t: v.UTC()} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) AsNumber() (decimal.Decimal, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsTime() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// Text renders the value in its canonical string form, used for filter
// comparison and display.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

type valueJSON struct {
	Type  Kind            `json:"t"`
	Value json.RawMessage `json:"v"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var raw []byte
	var err error
	switch v.kind {
	case KindString:
		raw, err = json.Marshal(v.str)
	case KindNumber:
		raw = []byte(v.num.String())
	case KindBool:
		raw, err = json.Marshal(v.b)
	case KindTime:
		raw, err = json.Marshal(v.t.Format(time.RFC3339Nano))
	default:
		return nil, fmt.Errorf("marshal value: unknown kind %q", v.kind)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Type: v.kind, Value: raw})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw valueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case KindString:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return err
		}
		*v = String(s)
	case KindNumber:
		num, err := decimal.NewFromString(string(raw.Value))
		if err != nil {
			return fmt.Errorf("unmarshal number value: %w", err)
		}
		*v = Number(num)
	case KindBool:
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case KindTime:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("unmarshal time value: %w", err)
		}
		*v = Time(t)
	default:
		return fmt.Errorf("unmarshal value: unknown kind %q", raw.Type)
	}
	return nil
}

// Entity is a schema-less record addressed by (partition, row). Known fields
// and arbitrary extra attributes both live in Properties.
type Entity struct {
	PartitionKey string
	RowKey       string
	// Timestamp is the store's last-write time, set on read, ignored on write.
	Timestamp  time.Time
	Properties map[string]Value
}

// NewEntity returns an entity with an empty property map.
func NewEntity(partition, row string) Entity {
	return Entity{
		PartitionKey: partition,
		RowKey:       row,
		Properties:   map[string]Value{},
	}
}

func (e *Entity) Set(name string, v Value) {
	if e.Properties == nil {
		e.Properties = map[string]Value{}
	}
	e.Properties[name] = v
}

func (e Entity) Get(name string) (Value, bool) {
	v, ok := e.Properties[name]
	return v, ok
}

func (e Entity) GetString(name string) string {
	if v, ok := e.Properties[name]; ok {
		if s, ok := v.AsString(); ok {
			return s
		}
	}
	return ""
}

func (e Entity) GetNumber(name string) decimal.Decimal {
	if v, ok := e.Properties[name]; ok {
		if n, ok := v.AsNumber(); ok {
			return n
		}
	}
	return decimal.Zero
}

func (e Entity) GetTime(name string) time.Time {
	if v, ok := e.Properties[name]; ok {
		if t, ok := v.AsTime(); ok {
			return t
		}
	}
	return time.Time{}
}

// Filter is a single-clause equality predicate. The zero value matches all
// entities. Property filters cannot be pushed down to the backing table and
// cost a full scan of the table; key filters are indexed.
type Filter struct {
	partition string
	row       string
	property  string
	value     string
}

// All matches every entity in a table.
func All() Filter { return Filter{} }

// ByPartition matches entities with the given partition key.
func ByPartition(v string) Filter { return Filter{partition: v} }

// ByRow matches entities with the given row key across all partitions.
func ByRow(v string) Filter { return Filter{row: v} }

// ByProperty matches entities whose named property equals v in canonical
// string form. This is the documented O(n) fallback path.
func ByProperty(name, v string) Filter { return Filter{property: name, value: v} }

// Matches reports whether the filter accepts the entity. Key clauses are
// also evaluated here so backends may choose not to push them down.
func (f Filter) Matches(e Entity) bool {
	switch {
	case f.partition != "":
		return e.PartitionKey == f.partition
	case f.row != "":
		return e.RowKey == f.row
	case f.property != "":
		v, ok := e.Get(f.property)
		return ok && v.Text() == f.value
	default:
		return true
	}
}

// Partition returns the partition clause value, if any.
func (f Filter) Partition() (string, bool) { return f.partition, f.partition != "" }

// Row returns the row clause value, if any.
func (f Filter) Row() (string, bool) { return f.row, f.row != "" }
