package rag

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/qdrant/go-client/qdrant"
)

// int64 可精确表示的 float64 区间为 [-2^63, 2^63)
const (
	minInt64Float = float64(math.MinInt64)
	maxInt64Float = -float64(math.MinInt64)
)

// ValueFromJSON converts a decoded JSON value into a Qdrant payload value.
//
// Numbers become IntegerValue when they are exact int64 values and
// DoubleValue otherwise. Values that are not produced by encoding/json are
// first round-tripped through it; anything json cannot encode becomes null.
// The conversion never fails.
func ValueFromJSON(v any) *qdrant.Value {
	switch x := v.(type) {
	case nil:
		return nullValue()
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: x}}
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: x}}
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return integerValue(i)
		}
		// 溢出时 ParseFloat 返回 ±Inf，仍按浮点存储
		f, _ := x.Float64()
		return doubleValue(f)
	case float64:
		return numberValue(x)
	case float32:
		return numberValue(float64(x))
	case int:
		return integerValue(int64(x))
	case int8:
		return integerValue(int64(x))
	case int16:
		return integerValue(int64(x))
	case int32:
		return integerValue(int64(x))
	case int64:
		return integerValue(x)
	case uint8:
		return integerValue(int64(x))
	case uint16:
		return integerValue(int64(x))
	case uint32:
		return integerValue(int64(x))
	case uint:
		return unsignedValue(uint64(x))
	case uint64:
		return unsignedValue(x)
	case []any:
		values := make([]*qdrant.Value, len(x))
		for i, item := range x {
			values[i] = ValueFromJSON(item)
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
	case map[string]any:
		fields := make(map[string]*qdrant.Value, len(x))
		for k, item := range x {
			fields[k] = ValueFromJSON(item)
		}
		return &qdrant.Value{Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: fields}}}
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return nullValue()
		}
		decoded, err := decodeJSON(raw)
		if err != nil {
			return nullValue()
		}
		return ValueFromJSON(decoded)
	}
}

// ValueToJSON is the inverse of ValueFromJSON: IntegerValue yields int64,
// DoubleValue float64, ListValue []any and StructValue map[string]any.
func ValueToJSON(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch k := v.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_ListValue:
		items := k.ListValue.GetValues()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = ValueToJSON(item)
		}
		return out
	case *qdrant.Value_StructValue:
		fields := k.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for key, item := range fields {
			out[key] = ValueToJSON(item)
		}
		return out
	default:
		return nil
	}
}

func numberValue(f float64) *qdrant.Value {
	if f == math.Trunc(f) && f >= minInt64Float && f < maxInt64Float {
		return integerValue(int64(f))
	}
	return doubleValue(f)
}

func unsignedValue(u uint64) *qdrant.Value {
	if u <= math.MaxInt64 {
		return integerValue(int64(u))
	}
	return doubleValue(float64(u))
}

func nullValue() *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_NullValue{NullValue: qdrant.NullValue_NULL_VALUE}}
}

func integerValue(i int64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: i}}
}

func doubleValue(f float64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: f}}
}

// decodeJSON keeps numbers as json.Number so integers survive unchanged.
func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeJSONObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}
