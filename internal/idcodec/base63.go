// Package idcodec provides a compact base-63 text encoding for the dense
// integer ids QueryDB mints and for USRs. No other package in this
// repository imports it.
package idcodec

import (
	"errors"
	"fmt"

	"github.com/cxxls/cxxls/internal/types"
)

const (
	base     = 63
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_"
)

var (
	ErrEmptyString = errors.New("idcodec: empty encoded string")
	ErrInvalidChar = errors.New("idcodec: invalid character in encoded string")
	ErrOverflow    = errors.New("idcodec: decoded value overflow")
)

// Encode encodes value to base-63; zero encodes as "A".
func Encode(value uint64) string {
	if value == 0 {
		return "A"
	}
	var buf [11]byte
	pos := len(buf)
	for value > 0 {
		pos--
		buf[pos] = alphabet[value%base]
		value /= base
	}
	return string(buf[pos:])
}

// Decode decodes a base-63 string back to a uint64.
func Decode(encoded string) (uint64, error) {
	if encoded == "" {
		return 0, ErrEmptyString
	}
	var value uint64
	for _, c := range encoded {
		cv, err := charToValue(c)
		if err != nil {
			return 0, err
		}
		if value > (^uint64(0))/base {
			return 0, ErrOverflow
		}
		value = value*base + cv
	}
	return value, nil
}

// IsValid reports whether encoded parses as a base-63 string.
func IsValid(encoded string) bool {
	if encoded == "" {
		return false
	}
	for _, c := range encoded {
		if _, err := charToValue(c); err != nil {
			return false
		}
	}
	return true
}

func charToValue(c rune) (uint64, error) {
	switch {
	case c >= 'A' && c <= 'Z':
		return uint64(c - 'A'), nil
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 26, nil
	case c >= '0' && c <= '9':
		return uint64(c-'0') + 52, nil
	case c == '_':
		return 62, nil
	default:
		return 0, fmt.Errorf("%w: %c", ErrInvalidChar, c)
	}
}

// EncodeQueryID encodes a types.QueryID.
func EncodeQueryID(id types.QueryID) string { return Encode(uint64(id)) }

// DecodeQueryID decodes a base-63 string to a types.QueryID.
func DecodeQueryID(encoded string) (types.QueryID, error) {
	v, err := Decode(encoded)
	if err != nil {
		return 0, err
	}
	if v > uint64(^types.QueryID(0)) {
		return 0, ErrOverflow
	}
	return types.QueryID(v), nil
}

// EncodeUSR encodes a types.USR.
func EncodeUSR(u types.USR) string { return Encode(uint64(u)) }

// DecodeUSR decodes a base-63 string to a types.USR.
func DecodeUSR(encoded string) (types.USR, error) {
	v, err := Decode(encoded)
	if err != nil {
		return 0, err
	}
	return types.USR(v), nil
}
