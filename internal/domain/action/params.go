package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/booksearch/internal/domain"
)

// Params is the loosely typed payload of an action request, keyed by parameter name.
type Params map[string]json.RawMessage

// Has reports whether key is present and not null.
func (p Params) Has(key string) bool {
	raw, ok := p[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// String reads a required non-empty string.
func (p Params) String(key string) (string, error) {
	if !p.Has(key) {
		return "", domain.MissingParam(key)
	}
	var s string
	if err := json.Unmarshal(p[key], &s); err != nil {
		return "", domain.InvalidParam(key, "must be a string")
	}
	if s == "" {
		return "", domain.MissingParam(key)
	}
	return s, nil
}

// OptionalString reads a string that may be absent.
func (p Params) OptionalString(key string) (string, error) {
	if !p.Has(key) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(p[key], &s); err != nil {
		return "", domain.InvalidParam(key, "must be a string")
	}
	return s, nil
}

// Strings reads a required non-empty list of strings.
// A bare string is accepted as a one-element list.
func (p Params) Strings(key string) ([]string, error) {
	if !p.Has(key) {
		return nil, domain.MissingParam(key)
	}
	var list []string
	if err := json.Unmarshal(p[key], &list); err != nil {
		var s string
		if err := json.Unmarshal(p[key], &s); err != nil {
			return nil, domain.InvalidParam(key, "must be a list of strings")
		}
		list = []string{s}
	}
	if len(list) == 0 {
		return nil, domain.InvalidParam(key, "must not be empty")
	}
	for _, s := range list {
		if s == "" {
			return nil, domain.InvalidParam(key, "must not contain empty strings")
		}
	}
	return list, nil
}

// Int reads an integer, returning def when the key is absent.
func (p Params) Int(key string, def int) (int, error) {
	if !p.Has(key) {
		return def, nil
	}
	n, err := decodeInt(p[key])
	if err != nil {
		return 0, domain.InvalidParam(key, "must be an integer")
	}
	return n, nil
}

// RequiredInt reads a required integer.
func (p Params) RequiredInt(key string) (int, error) {
	if !p.Has(key) {
		return 0, domain.MissingParam(key)
	}
	return p.Int(key, 0)
}

// Scalar reads a required string, number or boolean.
func (p Params) Scalar(key string) (any, error) {
	if !p.Has(key) {
		return nil, domain.MissingParam(key)
	}
	v, err := decodeAny(p[key])
	if err != nil {
		return nil, domain.InvalidParam(key, "must be valid JSON")
	}
	if !isScalar(v) {
		return nil, domain.InvalidParam(key, "must be a string, number or boolean")
	}
	return v, nil
}

// OptionalScalar reads a scalar that may be absent (returns nil).
func (p Params) OptionalScalar(key string) (any, error) {
	if !p.Has(key) {
		return nil, nil
	}
	return p.Scalar(key)
}

// ScalarOrList reads a required scalar or a non-empty list of scalars.
// Lists are returned as []any.
func (p Params) ScalarOrList(key string) (any, error) {
	if !p.Has(key) {
		return nil, domain.MissingParam(key)
	}
	v, err := decodeAny(p[key])
	if err != nil {
		return nil, domain.InvalidParam(key, "must be valid JSON")
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, domain.InvalidParam(key, "must not be an empty list")
		}
		for _, item := range list {
			if !isScalar(item) {
				return nil, domain.InvalidParam(key, "list items must be strings, numbers or booleans")
			}
		}
		return list, nil
	}
	if !isScalar(v) {
		return nil, domain.InvalidParam(key, "must be a scalar or a list of scalars")
	}
	return v, nil
}

// Value reads any JSON value except null.
func (p Params) Value(key string) (any, error) {
	if !p.Has(key) {
		return nil, domain.MissingParam(key)
	}
	v, err := decodeAny(p[key])
	if err != nil {
		return nil, domain.InvalidParam(key, "must be valid JSON")
	}
	return v, nil
}

// Decode unmarshals key into dst, reporting a typed parameter error on failure.
func (p Params) Decode(key string, dst any) error {
	if !p.Has(key) {
		return domain.MissingParam(key)
	}
	if err := json.Unmarshal(p[key], dst); err != nil {
		return domain.InvalidParam(key, fmt.Sprintf("has wrong shape: %v", err))
	}
	return nil
}

// decodeAny keeps numbers as json.Number so integers survive re-encoding unchanged.
func decodeAny(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeInt(raw json.RawMessage) (int, error) {
	v, err := decodeAny(raw)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, err
		}
		return int(i), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("not an integer: %T", v)
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, json.Number, bool:
		return true
	default:
		return false
	}
}
