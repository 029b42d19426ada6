// FILE: okube-ai/settus/tag.go
package settus

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TagName is the struct tag read by SchemaOf.
const TagName = "settus"

// fieldTag is the parsed form of a `settus:"..."` struct tag.
//
//	Token string `settus:"name:token alias:api-token,API_TOKEN default:'none' vault:https://kv.example.net"`
type fieldTag struct {
	Name       string
	Aliases    []string
	Default    string
	HasDefault bool
	VaultURL   string
	SecretName string
	Required   bool
	Skip       bool
}

const (
	tagStateKey = iota
	tagStatePreValue
	tagStateValue
	tagStateQuoted
)

// parseFieldTag reads space separated key:value pairs. Values may be single or
// double quoted, with backslash escapes inside quotes.
func parseFieldTag(raw string) (fieldTag, error) {
	var tag fieldTag
	if strings.TrimSpace(raw) == "-" {
		tag.Skip = true
		return tag, nil
	}

	var (
		key     strings.Builder
		value   strings.Builder
		current string
		state   = tagStateKey
		quote   rune
		escaped bool
	)

	commit := func() error {
		v := value.String()
		value.Reset()
		if err := tag.assign(current, v); err != nil {
			return err
		}
		current = ""
		state = tagStateKey
		return nil
	}

	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRuneInString(raw[i:])
		i += size

		switch state {
		case tagStateKey:
			if unicode.IsSpace(r) {
				continue
			}
			if r == ':' {
				current = strings.ToLower(strings.TrimSpace(key.String()))
				if current == "" {
					return fieldTag{}, fmt.Errorf("empty tag key in %q", raw)
				}
				key.Reset()
				state = tagStatePreValue
				continue
			}
			key.WriteRune(r)

		case tagStatePreValue:
			if unicode.IsSpace(r) {
				continue
			}
			if r == '"' || r == '\'' {
				quote = r
				state = tagStateQuoted
				continue
			}
			value.WriteRune(r)
			state = tagStateValue

		case tagStateValue:
			if unicode.IsSpace(r) {
				if err := commit(); err != nil {
					return fieldTag{}, err
				}
				continue
			}
			value.WriteRune(r)

		case tagStateQuoted:
			if escaped {
				value.WriteRune(r)
				escaped = false
				continue
			}
			if r == '\\' {
				escaped = true
				continue
			}
			if r == quote {
				if err := commit(); err != nil {
					return fieldTag{}, err
				}
				continue
			}
			value.WriteRune(r)
		}
	}

	switch state {
	case tagStateKey:
		if key.Len() != 0 {
			return fieldTag{}, fmt.Errorf("dangling tag key %q", key.String())
		}
	case tagStatePreValue:
		return fieldTag{}, fmt.Errorf("tag key %q missing value", current)
	case tagStateValue:
		if err := commit(); err != nil {
			return fieldTag{}, err
		}
	case tagStateQuoted:
		return fieldTag{}, fmt.Errorf("unterminated quoted value for tag key %q", current)
	}

	return tag, nil
}

func (t *fieldTag) assign(key, value string) error {
	switch key {
	case "name":
		t.Name = value
	case "alias":
		for _, a := range strings.Split(value, ",") {
			a = strings.TrimSpace(a)
			if a == "" {
				return fmt.Errorf("empty alias in %q", value)
			}
			t.Aliases = append(t.Aliases, a)
		}
	case "default":
		t.Default = value
		t.HasDefault = true
	case "vault":
		t.VaultURL = value
	case "secret":
		t.SecretName = value
	case "required":
		required, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid required flag %q", value)
		}
		t.Required = required
	default:
		return fmt.Errorf("unknown settus tag key %q", key)
	}
	return nil
}
