package confloader

import (
	"errors"
	"strings"
)

// errNoBytes marks providers that only produce parsed maps.
var errNoBytes = errors.New("confloader: provider has no byte form")

// overrideProvider is a koanf provider carrying one key-value pair.
type overrideProvider struct {
	key   string
	value any
}

func (p overrideProvider) ReadBytes() ([]byte, error) {
	return nil, errNoBytes
}

// Read expands "server.http.addr" into the nested map koanf merges.
func (p overrideProvider) Read() (map[string]any, error) {
	parts := strings.Split(p.key, ".")
	out := map[string]any{parts[len(parts)-1]: p.value}
	for i := len(parts) - 2; i >= 0; i-- {
		out = map[string]any{parts[i]: out}
	}
	return out, nil
}
