package shopcache

import (
	"fmt"
	"strings"
)

// Key identifies a fetchable resource, e.g. Key{"products", ProductParams{Featured: true}}.
// Parts must be JSON-serializable. Two keys are equal iff their canonical JSON forms are equal,
// so structurally equal parameters hit the same entry regardless of identity.
type Key []any

// NewKey copies parts into a new Key.
func NewKey(parts ...any) Key {
	k := make(Key, len(parts))
	copy(k, parts)

	return k
}

// String returns the canonical form of the key.
func (k Key) String() string {
	id, _, err := k.encode()
	if err != nil {
		return fmt.Sprintf("<invalid key: %v>", err)
	}

	return id
}

// HasPrefix reports whether the first len(prefix) parts of k equal prefix.
func (k Key) HasPrefix(prefix Key) bool {
	_, parts, err := k.encode()
	if err != nil {
		return false
	}

	_, prefixParts, err := prefix.encode()
	if err != nil {
		return false
	}

	return hasPartsPrefix(parts, prefixParts)
}

// encode returns the canonical id of the key together with its serialized parts.
func (k Key) encode() (string, []string, error) {
	if len(k) == 0 {
		return "", nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	enc := keyEncoders.Get()
	defer keyEncoders.Put(enc)

	parts := make([]string, len(k))
	for i, part := range k {
		s, err := enc.encode(part)
		if err != nil {
			return "", nil, fmt.Errorf("%w: part %d: %w", ErrInvalidKey, i, err)
		}
		parts[i] = s
	}

	return "[" + strings.Join(parts, ",") + "]", parts, nil
}

func hasPartsPrefix(parts, prefix []string) bool {
	if len(prefix) > len(parts) {
		return false
	}

	for i := range prefix {
		if parts[i] != prefix[i] {
			return false
		}
	}

	return true
}
