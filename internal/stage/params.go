package stage

import (
	"fmt"
	"strings"
)

// Param is one key=value entry of the tool's build parameter string.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered parameter list. Order is preserved on the wire.
type Params []Param

// With returns a copy of p with key set to value. An existing key keeps its
// position; a new key is appended.
func (p Params) With(key, value string) Params {
	out := make(Params, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Param{Key: key, Value: value})
}

// Get returns the value for key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// reservedKeys are set by the invocation itself and cannot be overridden.
var reservedKeys = map[string]bool{
	"platform":   true,
	"configPath": true,
	"stage":      true,
	"force":      true,
}

// IsReserved reports whether key is owned by the invocation.
func IsReserved(key string) bool { return reservedKeys[key] }

// Validate rejects extra entries that would not survive a round trip or that
// would override a reserved key.
func (p Params) Validate() error {
	for _, kv := range p {
		if kv.Key == "" {
			return fmt.Errorf("empty parameter key")
		}
		if IsReserved(kv.Key) {
			return fmt.Errorf("parameter %q is reserved", kv.Key)
		}
		if strings.ContainsAny(kv.Key, "=;") {
			return fmt.Errorf("parameter key %q contains '=' or ';'", kv.Key)
		}
		if strings.Contains(kv.Value, ";") {
			return fmt.Errorf("parameter %q value contains ';'", kv.Key)
		}
	}
	return nil
}

// String serializes p as "k1=v1;k2=v2".
func (p Params) String() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(kv.Key)
		b.WriteByte('=')
		b.WriteString(kv.Value)
	}
	return b.String()
}

// ParseParams is the inverse of Params.String.
func ParseParams(s string) (Params, error) {
	if s == "" {
		return nil, nil
	}
	var out Params
	for _, part := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed parameter %q", part)
		}
		out = append(out, Param{Key: key, Value: value})
	}
	return out, nil
}
