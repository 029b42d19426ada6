// FILE: okube-ai/settus/decode.go
package settus

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

var (
	urlType   = reflect.TypeOf(url.URL{})
	ipType    = reflect.TypeOf(net.IP{})
	ipNetType = reflect.TypeOf(net.IPNet{})
	timeType  = reflect.TypeOf(time.Time{})
)

// decodeInto coerces the merged canonical mapping into target through
// mapstructure. Decoder errors are returned unchanged.
func decodeInto(target any, values map[string]any, schema *Schema, opts Options) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}

	input := values
	var hidden []fieldValue
	switch rv.Elem().Kind() {
	case reflect.Struct:
		input, hidden = structInput(rv.Elem().Type(), values, schema, opts.TagName)
	case reflect.Map:
		if !opts.AllowExtra {
			var extra []string
			for _, key := range sortedKeys(values) {
				if _, ok := schema.index[key]; !ok {
					extra = append(extra, key)
				}
			}
			if len(extra) > 0 {
				return &mapstructure.Error{Errors: []string{fmt.Sprintf("'' has invalid keys: %s", strings.Join(extra, ", "))}}
			}
		}
	}

	if err := decode(target, input, opts); err != nil {
		return err
	}
	for _, fv := range hidden {
		field := rv.Elem().FieldByIndex(fv.index)
		if err := decode(field.Addr().Interface(), fv.value, opts); err != nil {
			return err
		}
	}
	return nil
}

func decode(target, input any, opts Options) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          opts.TagName,
		WeaklyTypedInput: true,
		ErrorUnused:      !opts.AllowExtra,
		DecodeHook:       decodeHook(),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	return decoder.Decode(input)
}

// fieldValue is a value mapstructure cannot reach by name, because the
// decode tag hides the field ("-"). It is decoded into the field directly.
type fieldValue struct {
	index []int
	value any
}

// structInput re-keys canonical names to the names mapstructure matches for
// each struct field: the decode tag if present, else the Go field name.
// Fields hidden from the decode tag are returned separately.
func structInput(t reflect.Type, values map[string]any, schema *Schema, tagName string) (map[string]any, []fieldValue) {
	input := make(map[string]any, len(values))
	var hidden []fieldValue
	for _, key := range sortedKeys(values) {
		v := values[key]
		f, ok := schema.Field(key)
		if !ok || f.GoName == "" {
			input[key] = v
			continue
		}
		decodeKey := f.GoName
		if sf, found := t.FieldByName(f.GoName); found && tagName != "" {
			name, _, _ := strings.Cut(sf.Tag.Get(tagName), ",")
			if name == "-" {
				hidden = append(hidden, fieldValue{index: sf.Index, value: v})
				continue
			}
			if name != "" {
				decodeKey = name
			}
		}
		input[decodeKey] = v
	}
	return input, hidden
}

// decodeHook returns the composite decode hook for all type conversions
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		// Network types
		stringToNetIPHookFunc(),
		stringToNetIPNetHookFunc(),
		stringToURLHookFunc(),

		// Standard hooks
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

// stringToNetIPHookFunc handles net.IP conversion
func stringToNetIPHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != ipType {
			return data, nil
		}

		str := data.(string)
		if len(str) > 45 { // Max IPv6 length
			return nil, fmt.Errorf("invalid IP length: %d", len(str))
		}

		ip := net.ParseIP(str)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", str)
		}

		return ip, nil
	}
}

// stringToNetIPNetHookFunc handles net.IPNet conversion
func stringToNetIPNetHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		targetType := t
		if isPtr {
			targetType = t.Elem()
		}
		if targetType != ipNetType {
			return data, nil
		}

		str := data.(string)
		if len(str) > 49 { // Max IPv6 CIDR length
			return nil, fmt.Errorf("invalid CIDR length: %d", len(str))
		}
		_, ipnet, err := net.ParseCIDR(str)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR: %w", err)
		}
		if isPtr {
			return ipnet, nil
		}
		return *ipnet, nil
	}
}

// stringToURLHookFunc handles url.URL conversion
func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		targetType := t
		if isPtr {
			targetType = t.Elem()
		}
		if targetType != urlType {
			return data, nil
		}

		str := data.(string)
		if len(str) > 2048 {
			return nil, fmt.Errorf("URL too long: %d bytes", len(str))
		}
		u, err := url.Parse(str)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if isPtr {
			return u, nil
		}
		return *u, nil
	}
}
