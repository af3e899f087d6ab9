package applications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseBody decodes a submission. JSON objects are used when the content type
// says JSON and the body decodes; everything else is treated as
// x-www-form-urlencoded.
func ParseBody(contentType string, body []byte) (Fields, error) {
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		if fields, err := parseJSON(body); err == nil {
			return fields, nil
		}
	}
	return parseForm(string(body))
}

func parseJSON(body []byte) (Fields, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Fields{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("json body is not an object")
	}

	fields := make(Fields, len(raw))
	for key, v := range raw {
		if key == "" {
			continue
		}
		switch val := v.(type) {
		case nil:
		case []any:
			for _, item := range val {
				if item == nil {
					continue
				}
				fields.add(key, stringify(item))
			}
		default:
			fields.add(key, stringify(val))
		}
	}
	return fields, nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// parseForm splits on '&' and then on the first '='. Anything after the first
// '=' belongs to the value, including further '=' signs.
func parseForm(raw string) (Fields, error) {
	fields := Fields{}
	if raw == "" {
		return fields, nil
	}

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(pair, "=")
		if rawKey == "" {
			continue
		}

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("decode form key %q: %w", rawKey, err)
		}
		if key == "" {
			continue
		}

		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return nil, fmt.Errorf("decode form value for %q: %w", key, err)
		}
		fields.add(key, val)
	}
	return fields, nil
}
