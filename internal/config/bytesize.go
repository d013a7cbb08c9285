package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a byte count parsed from strings such as "100mb", "512k" or "1048576".
// Suffixes are powers of 1024.
type ByteSize int64

var sizeSuffixes = []struct {
	suffix string
	mult   int64
}{
	{"kb", 1 << 10},
	{"mb", 1 << 20},
	{"gb", 1 << 30},
	{"k", 1 << 10},
	{"m", 1 << 20},
	{"g", 1 << 30},
	{"b", 1},
}

// ParseByteSize parses a human size
func ParseByteSize(s string) (ByteSize, error) {
	t := strings.ToLower(strings.Join(strings.Fields(s), ""))
	if t == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := int64(1)
	for _, sf := range sizeSuffixes {
		if len(t) > len(sf.suffix) && strings.HasSuffix(t, sf.suffix) {
			mult = sf.mult
			t = strings.TrimSuffix(t, sf.suffix)
			break
		}
	}

	v, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative size %q", s)
	}
	return ByteSize(v * mult), nil
}

// Decode implements envconfig.Decoder
func (b *ByteSize) Decode(value string) error {
	v, err := ParseByteSize(value)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Set implements flag.Value
func (b *ByteSize) Set(value string) error {
	return b.Decode(value)
}

func (b *ByteSize) String() string {
	if b == nil {
		return "0"
	}
	return strconv.FormatInt(int64(*b), 10)
}
