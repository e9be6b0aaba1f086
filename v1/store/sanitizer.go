package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"
	"unicode/utf8"
)

const (
	// MaxStringLength is the maximum number of characters of a string parameter.
	MaxStringLength = 10_000
	// MaxJSONLength is the maximum length of a JSON encoded object parameter.
	MaxJSONLength = 50_000
	// MaxBytesLength is the maximum size of a binary parameter.
	MaxBytesLength = 1 << 20
)

// SanitizeParams converts raw parameters into storage safe primitives.
// The result has the same length and order as params. Every output value is
// nil, string, int64, float64 or []byte, so sanitizing an already sanitized
// slice returns it unchanged.
func SanitizeParams(params []any) ([]any, error) {
	out := make([]any, len(params))
	for i, p := range params {
		v, err := SanitizeParam(p)
		if err != nil {
			var storeErr *Error
			if errors.As(err, &storeErr) {
				if storeErr.Details == nil {
					storeErr.Details = map[string]any{}
				}
				storeErr.Details["index"] = i
			}
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// SanitizeParam converts a single parameter. See SanitizeParams.
func SanitizeParam(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return sanitizeString(val)
	case bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case int64:
		return val, nil
	case float64:
		return sanitizeFloat(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), nil
	case json.RawMessage:
		return sanitizeJSON(string(val))
	case []byte:
		return sanitizeBytes(val)
	case driver.Valuer:
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil, nil
		}
		resolved, err := val.Value()
		if err != nil {
			return nil, invalidParameter("parameter value could not be resolved", v, err)
		}
		return SanitizeParam(resolved)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return sanitizeString(rv.String())
	case reflect.Bool:
		return SanitizeParam(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, invalidParameter("unsigned integer overflows int64", v, nil)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return sanitizeFloat(rv.Float())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return SanitizeParam(rv.Elem().Interface())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.IsNil() {
				return nil, nil
			}
			return sanitizeBytes(rv.Bytes())
		}
	}

	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if (rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
			return nil, nil
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, invalidParameter("object is not JSON serializable", v, err)
		}
		return sanitizeJSON(string(encoded))
	}

	return nil, invalidParameter(fmt.Sprintf("unsupported parameter type %T", v), v, nil)
}

func sanitizeString(s string) (any, error) {
	if n := utf8.RuneCountInString(s); n > MaxStringLength {
		return nil, newError(CodeInvalidParameter, "string parameter too long", map[string]any{
			"length": n,
			"max":    MaxStringLength,
		}, nil)
	}
	return s, nil
}

// sanitizeBytes copies b so later mutation by the caller cannot change a
// bound value.
func sanitizeBytes(b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	if len(b) > MaxBytesLength {
		return nil, newError(CodeInvalidParameter, "binary parameter too large", map[string]any{
			"length": len(b),
			"max":    MaxBytesLength,
		}, nil)
	}
	return append([]byte{}, b...), nil
}

func sanitizeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, newError(CodeInvalidParameter, "number parameter must be finite", map[string]any{
			"value": fmt.Sprint(f),
		}, nil)
	}
	return f, nil
}

func sanitizeJSON(encoded string) (any, error) {
	if n := utf8.RuneCountInString(encoded); n > MaxJSONLength {
		return nil, newError(CodeInvalidParameter, "object parameter too large", map[string]any{
			"length": n,
			"max":    MaxJSONLength,
		}, nil)
	}
	return encoded, nil
}

func invalidParameter(message string, v any, cause error) *Error {
	return newError(CodeInvalidParameter, message, map[string]any{"type": fmt.Sprintf("%T", v)}, cause)
}
