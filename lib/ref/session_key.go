// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// maxSessionKeyLength bounds session keys so they stay usable as URL
// path segments and database keys without truncation anywhere.
const maxSessionKeyLength = 64

// SessionKey identifies one drawing session (one room). Keys are
// chosen by the participant that creates the session, are globally
// unique within a store, and are immutable once created.
//
// Valid keys are 1-64 characters from [a-z A-Z 0-9 - _ .], with no
// leading or trailing separator. The restricted charset keeps keys
// safe to embed in URL paths without escaping.
type SessionKey struct {
	key string
}

// ParseSessionKey validates a raw string as a session key.
func ParseSessionKey(raw string) (SessionKey, error) {
	if raw == "" {
		return SessionKey{}, fmt.Errorf("session key is empty")
	}
	if len(raw) > maxSessionKeyLength {
		return SessionKey{}, fmt.Errorf("session key %q exceeds %d characters", raw, maxSessionKeyLength)
	}
	for i := 0; i < len(raw); i++ {
		if !isKeyByte(raw[i]) {
			return SessionKey{}, fmt.Errorf("session key %q contains invalid character %q", raw, raw[i])
		}
	}
	if isSeparator(raw[0]) || isSeparator(raw[len(raw)-1]) {
		return SessionKey{}, fmt.Errorf("session key %q starts or ends with a separator", raw)
	}
	return SessionKey{key: raw}, nil
}

func isKeyByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	}
	return isSeparator(b)
}

func isSeparator(b byte) bool {
	return b == '-' || b == '_' || b == '.'
}

// String returns the raw key string.
func (k SessionKey) String() string {
	return k.key
}

// IsZero reports whether the SessionKey is the zero value.
func (k SessionKey) IsZero() bool {
	return k.key == ""
}

// MarshalText implements encoding.TextMarshaler. Returns an error for
// the zero value, since serializing an empty key would produce an
// identifier that can never round-trip.
func (k SessionKey) MarshalText() ([]byte, error) {
	if k.key == "" {
		return nil, fmt.Errorf("cannot marshal zero SessionKey")
	}
	return []byte(k.key), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SessionKey) UnmarshalText(data []byte) error {
	parsed, err := ParseSessionKey(string(data))
	if err != nil {
		return fmt.Errorf("unmarshal SessionKey: %w", err)
	}
	*k = parsed
	return nil
}
