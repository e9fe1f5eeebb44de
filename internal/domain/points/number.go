package points

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Number is a settings value that may arrive as a number or a numeric
// string. Anything else decodes to NaN, which Normalize replaces with the
// default.
type Number float64

// Num returns a pointer to n, for building a RawConfig in code.
func Num(n float64) *Number {
	v := Number(n)
	return &v
}

// Numbers converts a float table into settings values.
func Numbers(in []float64) []Number {
	if in == nil {
		return nil
	}
	out := make([]Number, len(in))
	for i, v := range in {
		out[i] = Number(v)
	}
	return out
}

// Float returns n as a float64.
func (n Number) Float() float64 { return float64(n) }

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			*n = Number(math.NaN())
			return nil
		}
	}
	*n = parseNumber(raw)
	return nil
}

// MarshalJSON writes non-finite values as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !finite(float64(n)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(n))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Number) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		*n = Number(math.NaN())
		return nil
	}
	*n = parseNumber(value.Value)
	return nil
}

func parseNumber(s string) Number {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Number(math.NaN())
	}
	return Number(f)
}
