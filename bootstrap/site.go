package bootstrap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Site is the configuration document served at <api>/config. It is handed
// out by value and never changes after bootstrap.
type Site struct {
	AppName     string `json:"appName"`
	AppSlogan   string `json:"appSlogan"`
	AppLogo     string `json:"appLogo"`
	Copyright   string `json:"copyright"`
	Separator   string `json:"separator"`
	ClientWidth int    `json:"clientWidth"`

	raw map[string]json.RawMessage
}

// DecodeSite parses a configuration document. Only a body that is not a
// JSON object is an error. Each known key is decoded on its own: missing
// keys stay zero, and keys holding a value of the wrong type stay zero and
// are reported in invalid. clientWidth also accepts a fractional number or
// a numeric string, truncated to whole pixels.
func DecodeSite(body []byte) (site Site, invalid []string, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Site{}, nil, fmt.Errorf("decode site configuration: %w", err)
	}
	if raw == nil {
		return Site{}, nil, fmt.Errorf("decode site configuration: not an object")
	}

	site.raw = raw
	strs := []struct {
		key string
		dst *string
	}{
		{"appName", &site.AppName},
		{"appSlogan", &site.AppSlogan},
		{"appLogo", &site.AppLogo},
		{"copyright", &site.Copyright},
		{"separator", &site.Separator},
	}
	for _, f := range strs {
		v, ok := raw[f.key]
		if !ok || isNull(v) {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			invalid = append(invalid, f.key)
		}
	}
	if v, ok := raw["clientWidth"]; ok && !isNull(v) {
		width, ok := decodeWidth(v)
		if !ok {
			invalid = append(invalid, "clientWidth")
		}
		site.ClientWidth = width
	}
	return site, invalid, nil
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

// decodeWidth reads a JSON number or numeric string as whole pixels.
func decodeWidth(v json.RawMessage) (int, bool) {
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, false
		}
		if n, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// Lookup returns the raw JSON value stored under key, including keys the
// shell itself does not use. The returned bytes are a copy.
func (s Site) Lookup(key string) (json.RawMessage, bool) {
	v, ok := s.raw[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(v), true
}

// LookupString looks up key and decodes it as a string.
func (s Site) LookupString(key string) (string, bool) {
	v, ok := s.raw[key]
	if !ok {
		return "", false
	}
	var out string
	if err := json.Unmarshal(v, &out); err != nil {
		return "", false
	}
	return out, true
}

// Title formats the document title. An empty page title shows the slogan.
func (s Site) Title(page string) string {
	if page == "" {
		page = s.AppSlogan
	}
	return s.AppName + " " + s.Separator + " " + page
}
