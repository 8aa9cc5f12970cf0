package cache

import (
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/jmgilman/go/objcache/objstore"
)

const (
	// separator joins the escaped bucket and key in a cache file name.
	separator = '_'

	// maxFileNameLen is the longest name most filesystems accept.
	maxFileNameLen = 255

	// hashedPrefix marks names derived from a digest. Hashed names never
	// contain the separator, so they cannot collide with escaped names.
	hashedPrefix = "sha256-"

	upperHex = "0123456789ABCDEF"
)

// FileName returns the cache file name for ref.
//
// The name is the escaped bucket, an underscore, and the escaped key. Escaping
// percent-encodes '%', '_', '/', '\', control bytes, and a leading '.' in the
// bucket, so the mapping is injective: distinct refs always produce distinct
// names, even when the bucket or key contains an underscore. Names longer than
// 255 bytes are replaced by "sha256-<hex>" of the escaped name.
//
// Returns an error with errors.CodeInvalidInput if ref has an empty bucket or
// key.
func FileName(ref objstore.ObjectRef) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}

	name := escape(ref.Bucket, true) + string(separator) + escape(ref.Key, false)
	if len(name) > maxFileNameLen {
		return hashedPrefix + digest.FromString(name).Encoded(), nil
	}
	return name, nil
}

// ParseFileName reverses FileName. It returns false for hashed names, reserved
// names, and anything FileName could not have produced.
func ParseFileName(name string) (objstore.ObjectRef, bool) {
	// Hashed names have no separator and are rejected below
	if name == "" || name[0] == '.' {
		return objstore.ObjectRef{}, false
	}

	i := strings.IndexByte(name, separator)
	if i < 0 || strings.IndexByte(name[i+1:], separator) >= 0 {
		return objstore.ObjectRef{}, false
	}

	bucket, ok := unescape(name[:i])
	if !ok {
		return objstore.ObjectRef{}, false
	}
	key, ok := unescape(name[i+1:])
	if !ok {
		return objstore.ObjectRef{}, false
	}

	// Reject non-canonical encodings such as "%41"
	ref := objstore.NewObjectRef(bucket, key)
	if canonical, err := FileName(ref); err != nil || canonical != name {
		return objstore.ObjectRef{}, false
	}
	return ref, true
}

func shouldEscape(c byte) bool {
	switch {
	case c == '%', c == separator, c == '/', c == '\\':
		return true
	case c < 0x20, c == 0x7f:
		return true
	}
	return false
}

func escape(s string, escapeLeadingDot bool) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	leadingDot := escapeLeadingDot && len(s) > 0 && s[0] == '.'
	if leadingDot {
		n++
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) || (i == 0 && leadingDot) {
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func unescape(s string) (string, bool) {
	if strings.IndexByte(s, '%') < 0 {
		return s, true
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", false
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", false
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), true
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
