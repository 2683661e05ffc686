package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// price accepts a JSON number, a formatted string such as "$1,299.00", or
// null. Anything unparseable decodes to an absent price.
type price struct {
	value *float64
}

func (p *price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		p.value = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding price: %w", err)
		}
		p.value = parsePrice(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		p.value = nil
		return nil
	}
	p.value = &f
	return nil
}

func parsePrice(s string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}
