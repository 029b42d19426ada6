// FILE: okube-ai/settus/resolution.go
package settus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Resolution is the merged canonical mapping produced by one construction,
// with the source that supplied each top-level field. It is read-only:
// accessors hand out copies.
type Resolution struct {
	values  map[string]any
	origins map[string]Source
}

// NewResolution builds a Resolution from copies of values and origins.
func NewResolution(values map[string]any, origins map[string]Source) *Resolution {
	r := &Resolution{
		values:  cloneMap(values),
		origins: make(map[string]Source, len(origins)),
	}
	for k, v := range origins {
		r.origins[k] = v
	}
	return r
}

// Values returns a deep copy of the merged canonical mapping.
func (r *Resolution) Values() map[string]any {
	return cloneMap(r.values)
}

// Origins returns a copy of the per-field source map.
func (r *Resolution) Origins() map[string]Source {
	out := make(map[string]Source, len(r.origins))
	for k, v := range r.origins {
		out[k] = v
	}
	return out
}

// Origin reports which source supplied the named field.
func (r *Resolution) Origin(name string) (Source, bool) {
	src, ok := r.origins[name]
	return src, ok
}

// Get retrieves a value by canonical name. Dotted paths reach into
// structured values, e.g. "db.host".
func (r *Resolution) Get(path string) (any, bool) {
	segments := strings.Split(path, ".")
	var current any = r.values
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[seg]; !ok {
			return nil, false
		}
	}
	if m, ok := current.(map[string]any); ok {
		return cloneMap(m), true
	}
	return current, true
}

// String retrieves a string value using the path.
// Attempts conversion from common types if the stored value isn't already a string.
func (r *Resolution) String(path string) (string, error) {
	val, found := r.Get(path)
	if !found {
		return "", fmt.Errorf("path not resolved: %s", path)
	}
	if val == nil {
		return "", nil // Treat nil as empty string for convenience
	}

	if strVal, ok := val.(string); ok {
		return strVal, nil
	}

	// Attempt conversion for common types
	switch v := val.(type) {
	case fmt.Stringer:
		return v.String(), nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10), nil
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string for path %s", val, path)
	}
}

// Int64 retrieves an int64 value using the path.
// Attempts conversion from numeric types, parsable strings, and booleans.
func (r *Resolution) Int64(path string) (int64, error) {
	val, found := r.Get(path)
	if !found {
		return 0, fmt.Errorf("path not resolved: %s", path)
	}
	if val == nil {
		return 0, fmt.Errorf("value for path %s is nil, cannot convert to int64", path)
	}
	if n, ok := val.(json.Number); ok {
		val = n.String()
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		maxInt64 := int64(^uint64(0) >> 1)
		if u > uint64(maxInt64) {
			return 0, fmt.Errorf("cannot convert unsigned integer %d (type %T) to int64 for path %s: overflow", u, val, path)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		// Truncate float to int
		return int64(v.Float()), nil
	case reflect.String:
		s := strings.TrimSpace(v.String())
		i, err := strconv.ParseInt(s, 0, 64) // base 0 accepts "0xFF"
		if err == nil {
			return i, nil
		}
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("cannot convert string %q to int64 for path %s: %w", s, path, err)
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("cannot convert type %T to int64 for path %s", val, path)
}

// Bool retrieves a boolean value using the path.
// Numeric values are false when zero; strings go through strconv.ParseBool.
func (r *Resolution) Bool(path string) (bool, error) {
	val, found := r.Get(path)
	if !found {
		return false, fmt.Errorf("path not resolved: %s", path)
	}
	if val == nil {
		return false, fmt.Errorf("value for path %s is nil, cannot convert to bool", path)
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		s := strings.TrimSpace(v.String())
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("cannot convert string %q to bool for path %s: %w", s, path, err)
		}
		return b, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	}

	return false, fmt.Errorf("cannot convert type %T to bool for path %s", val, path)
}

// Float64 retrieves a float64 value using the path.
func (r *Resolution) Float64(path string) (float64, error) {
	val, found := r.Get(path)
	if !found {
		return 0.0, fmt.Errorf("path not resolved: %s", path)
	}
	if val == nil {
		return 0.0, fmt.Errorf("value for path %s is nil, cannot convert to float64", path)
	}
	if n, ok := val.(json.Number); ok {
		val = n.String()
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.String:
		s := strings.TrimSpace(v.String())
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0.0, fmt.Errorf("cannot convert string %q to float64 for path %s: %w", s, path, err)
		}
		return f, nil
	case reflect.Bool:
		if v.Bool() {
			return 1.0, nil
		}
		return 0.0, nil
	}

	return 0.0, fmt.Errorf("cannot convert type %T to float64 for path %s", val, path)
}

// ExportEnv renders every value not coming from a default as environment
// variables: upper-cased canonical name behind prefix, structured values as
// JSON.
func (r *Resolution) ExportEnv(prefix string) (map[string]string, error) {
	exports := make(map[string]string)
	for _, name := range sortedKeys(r.values) {
		if r.origins[name] == SourceDefault {
			continue
		}
		text, err := envText(r.values[name])
		if err != nil {
			return nil, fmt.Errorf("failed to export %q: %w", name, err)
		}
		exports[strings.ToUpper(prefix+name)] = text
	}
	return exports, nil
}

// WriteDotEnv writes the ExportEnv view to a .env file.
func (r *Resolution) WriteDotEnv(path, prefix string) error {
	exports, err := r.ExportEnv(prefix)
	if err != nil {
		return err
	}
	if err := godotenv.Write(exports, path); err != nil {
		return fmt.Errorf("failed to write env file '%s': %w", path, err)
	}
	return nil
}

// Save writes the resolved values to a TOML file atomically.
func (r *Resolution) Save(path string) error {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(r.values); err != nil {
		return fmt.Errorf("failed to marshal settings to TOML: %w", err)
	}
	return atomicWriteFile(path, buf.Bytes())
}

func envText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return fmt.Sprintf("%v", val), nil
	}
}
