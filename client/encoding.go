package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"strings"
)

// Encoding selects how a request payload is serialized.
type Encoding int

const (
	// EncodingJSON sends the payload as application/json. It is the zero value.
	EncodingJSON Encoding = iota
	// EncodingForm sends the payload as application/x-www-form-urlencoded.
	EncodingForm
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingForm:
		return "form-urlencoded"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// ParseEncoding maps "json" and "form-urlencoded" (or their content types)
// to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json", contentTypeJSON:
		return EncodingJSON, nil
	case "form", "form-urlencoded", contentTypeForm:
		return EncodingForm, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", s)
	}
}

// encodeBody serializes payload. A nil payload, including a typed nil
// pointer, map or slice, yields no body and no content type regardless of enc.
func encodeBody(payload any, enc Encoding) (io.Reader, string, error) {
	if isNil(payload) {
		return nil, "", nil
	}
	switch enc {
	case EncodingJSON:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("encoding json body: %w", err)
		}
		return bytes.NewReader(data), contentTypeJSON, nil
	case EncodingForm:
		values, err := formValues(payload)
		if err != nil {
			return nil, "", fmt.Errorf("encoding form body: %w", err)
		}
		return strings.NewReader(values.Encode()), contentTypeForm, nil
	default:
		return nil, "", fmt.Errorf("unsupported encoding %v", enc)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// formValues flattens payload into key/value pairs. Maps are used as is;
// any other value goes through its JSON representation, so struct fields
// appear under their JSON names.
func formValues(payload any) (url.Values, error) {
	switch p := payload.(type) {
	case url.Values:
		return p, nil
	case map[string][]string:
		return url.Values(p), nil
	case map[string]string:
		values := make(url.Values, len(p))
		for k, v := range p {
			values.Set(k, v)
		}
		return values, nil
	case map[string]any:
		return anyMapValues(p)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("payload of type %T is not a key/value object", payload)
	}
	return anyMapValues(m)
}

func anyMapValues(m map[string]any) (url.Values, error) {
	values := make(url.Values, len(m))
	for k, v := range m {
		s, err := formString(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		values.Set(k, s)
	}
	return values, nil
}

func formString(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return fmt.Sprint(v), nil
	}
}
