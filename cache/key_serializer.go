package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// hashedSegmentMarker prefixes digest segments. Escaping only ever emits
// "%25" and "%3A", so a literal segment can never start with it.
const hashedSegmentMarker = "%x"

// KeyOption configures the default key serializer.
type KeyOption func(*defaultKeySerializer)

// WithSegmentHashing replaces any escaped segment longer than maxLen bytes
// with its xxhash digest. Zero disables hashing.
func WithSegmentHashing(maxLen int) KeyOption {
	return func(s *defaultKeySerializer) {
		s.hashThreshold = maxLen
	}
}

// defaultKeySerializer joins a namespace and escaped segments with
// KeySeparator. Escaping keeps the mapping injective: "a:b" + "c" and
// "a" + "b:c" never produce the same key.
type defaultKeySerializer struct {
	hashThreshold int
}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer(opts ...KeyOption) KeySerializer {
	s := &defaultKeySerializer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SerializeKey builds a cache key from the namespace and segments.
func (s *defaultKeySerializer) SerializeKey(namespace string, segments ...any) string {
	if len(segments) == 0 {
		return namespace
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, namespace)
	for _, segment := range segments {
		parts = append(parts, s.serializeSegment(segment))
	}

	return strings.Join(parts, KeySeparator)
}

// SerializePrefix builds the prefix shared by every key under the namespace
// whose leading segments match.
func (s *defaultKeySerializer) SerializePrefix(namespace string, segments ...any) string {
	return s.SerializeKey(namespace, segments...) + KeySeparator
}

func (s *defaultKeySerializer) serializeSegment(v any) string {
	escaped := escapeSegment(stringify(v))
	if s.hashThreshold > 0 && len(escaped) > s.hashThreshold {
		return hashedSegmentMarker + strconv.FormatUint(xxhash.Sum64String(escaped), 16)
	}
	return escaped
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func escapeSegment(s string) string {
	if !strings.ContainsAny(s, "%:") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%':
			b.WriteString("%25")
		case ':':
			b.WriteString("%3A")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
