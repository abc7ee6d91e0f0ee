package core

import (
	"fmt"
	"strconv"
)

// TypeTag identifies the runtime type of a value crossing the bridge
// boundary. The numeric codes are part of the wire contract and must
// never change.
type TypeTag int

const (
	IntegerType TypeTag = 1
	FloatType   TypeTag = 2
	TextType    TypeTag = 3
	BlobType    TypeTag = 4
	NullType    TypeTag = 5
)

func (t TypeTag) String() string {
	switch t {
	case IntegerType:
		return "INTEGER"
	case FloatType:
		return "FLOAT"
	case TextType:
		return "TEXT"
	case BlobType:
		return "BLOB"
	case NullType:
		return "NULL"
	}
	return fmt.Sprintf("TypeTag(%d)", int(t))
}

// Value is a tagged union over the closed TypeTag set. Exactly one of
// the payload fields is meaningful, selected by Tag.
type Value struct {
	Tag   TypeTag
	Int   int64
	Float float64
	Text  string
	Blob  []byte
}

func IntValue(v int64) Value {
	return Value{Tag: IntegerType, Int: v}
}

func FloatValue(v float64) Value {
	return Value{Tag: FloatType, Float: v}
}

func TextValue(v string) Value {
	return Value{Tag: TextType, Text: v}
}

func BlobValue(v []byte) Value {
	return Value{Tag: BlobType, Blob: v}
}

func NullValue() Value {
	return Value{Tag: NullType}
}

// FromNative converts a value produced by the backing engine into a
// tagged Value. The mapping is the source of the parameter type
// fidelity guarantee: a bound int64 comes back tagged IntegerType.
func FromNative(v any) Value {
	switch x := v.(type) {
	case nil:
		return NullValue()
	case int64:
		return IntValue(x)
	case int32:
		return IntValue(int64(x))
	case int:
		return IntValue(int64(x))
	case bool:
		if x {
			return IntValue(1)
		}
		return IntValue(0)
	case float64:
		return FloatValue(x)
	case float32:
		return FloatValue(float64(x))
	case string:
		return TextValue(x)
	case []byte:
		return BlobValue(x)
	}
	// Engines may hand back driver-specific types (timestamps, decimals).
	// Render them as text so the tag set stays closed.
	return TextValue(fmt.Sprintf("%v", v))
}

// Native returns the value in the representation the backing engine's
// bind interface expects.
func (v Value) Native() any {
	switch v.Tag {
	case IntegerType:
		return v.Int
	case FloatType:
		return v.Float
	case TextType:
		return v.Text
	case BlobType:
		return v.Blob
	}
	return nil
}

// AsInt returns the value as an integer. The coercion policy is
// lossless-only: integers pass through, floats with no fractional part
// convert, text that parses exactly as a decimal integer converts, and
// everything else is a TypeMismatch.
func (v Value) AsInt() (int64, *Error) {
	switch v.Tag {
	case IntegerType:
		return v.Int, nil
	case FloatType:
		n := int64(v.Float)
		if float64(n) == v.Float {
			return n, nil
		}
		return 0, Errorf(CodeTypeMismatch, "float value %v has no exact integer form", v.Float)
	case TextType:
		n, err := strconv.ParseInt(v.Text, 10, 64)
		if err != nil {
			return 0, Errorf(CodeTypeMismatch, "text value %q is not an integer", v.Text)
		}
		return n, nil
	}
	return 0, Errorf(CodeTypeMismatch, "cannot read %s value as integer", v.Tag)
}

// AsText renders the value as a string. Rendering is lossless for
// every tag, so this accessor never fails.
func (v Value) AsText() string {
	switch v.Tag {
	case IntegerType:
		return strconv.FormatInt(v.Int, 10)
	case FloatType:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TextType:
		return v.Text
	case BlobType:
		return string(v.Blob)
	}
	return ""
}

// IsNull reports whether the value carries the NULL tag.
func (v Value) IsNull() bool {
	return v.Tag == NullType
}
