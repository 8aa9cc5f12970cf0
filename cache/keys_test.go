package cache

import (
	"strings"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/objcache/objstore"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name     string
		ref      objstore.ObjectRef
		expected string
	}{
		{
			name:     "plain names are joined with an underscore",
			ref:      objstore.NewObjectRef("test-bucket", "test-key"),
			expected: "test-bucket_test-key",
		},
		{
			name:     "underscore in bucket is escaped",
			ref:      objstore.NewObjectRef("a_b", "c"),
			expected: "a%5Fb_c",
		},
		{
			name:     "underscore in key is escaped",
			ref:      objstore.NewObjectRef("a", "b_c"),
			expected: "a_b%5Fc",
		},
		{
			name:     "path separators are escaped",
			ref:      objstore.NewObjectRef("bucket", "dir/sub\\file"),
			expected: "bucket_dir%2Fsub%5Cfile",
		},
		{
			name:     "percent is escaped",
			ref:      objstore.NewObjectRef("bucket", "100%"),
			expected: "bucket_100%25",
		},
		{
			name:     "leading dot in bucket is escaped",
			ref:      objstore.NewObjectRef(".hidden", "key"),
			expected: "%2Ehidden_key",
		},
		{
			name:     "leading dot in key is kept",
			ref:      objstore.NewObjectRef("bucket", ".key"),
			expected: "bucket_.key",
		},
		{
			name:     "control bytes are escaped",
			ref:      objstore.NewObjectRef("bucket", "a\nb\x7f"),
			expected: "bucket_a%0Ab%7F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := FileName(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestFileName_InvalidRef(t *testing.T) {
	tests := []struct {
		name string
		ref  objstore.ObjectRef
	}{
		{name: "empty bucket", ref: objstore.NewObjectRef("", "key")},
		{name: "empty key", ref: objstore.NewObjectRef("bucket", "")},
		{name: "zero ref", ref: objstore.ObjectRef{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FileName(tt.ref)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}
}

func TestFileName_Injective(t *testing.T) {
	refs := []objstore.ObjectRef{
		objstore.NewObjectRef("a_b", "c"),
		objstore.NewObjectRef("a", "b_c"),
		objstore.NewObjectRef("a", "b%5Fc"),
		objstore.NewObjectRef("a%5Fb", "c"),
		objstore.NewObjectRef("a", "b/c"),
		objstore.NewObjectRef("a/b", "c"),
		objstore.NewObjectRef("sha256-x", "y"),
		objstore.NewObjectRef("b", strings.Repeat("k", 300)),
		objstore.NewObjectRef("b", strings.Repeat("k", 301)),
	}

	seen := make(map[string]objstore.ObjectRef)
	for _, ref := range refs {
		name, err := FileName(ref)
		require.NoError(t, err)
		if prev, ok := seen[name]; ok {
			t.Fatalf("%s and %s both map to %q", prev, ref, name)
		}
		seen[name] = ref
	}
}

func TestFileName_LongNamesAreHashed(t *testing.T) {
	ref := objstore.NewObjectRef("bucket", strings.Repeat("k", 300))

	name, err := FileName(ref)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(name, hashedPrefix))
	assert.LessOrEqual(t, len(name), maxFileNameLen)
	assert.NotContains(t, name, string(separator))

	again, err := FileName(ref)
	require.NoError(t, err)
	assert.Equal(t, name, again, "mapping must be deterministic")
}

func TestParseFileName(t *testing.T) {
	refs := []objstore.ObjectRef{
		objstore.NewObjectRef("test-bucket", "test-key"),
		objstore.NewObjectRef("a_b", "c_d"),
		objstore.NewObjectRef(".dot", "path/to/object.txt"),
		objstore.NewObjectRef("b", "50%\x00"),
	}

	for _, ref := range refs {
		t.Run(ref.String(), func(t *testing.T) {
			name, err := FileName(ref)
			require.NoError(t, err)

			parsed, ok := ParseFileName(name)
			require.True(t, ok)
			assert.Equal(t, ref, parsed)
		})
	}
}

func TestParseFileName_Rejects(t *testing.T) {
	hashed, err := FileName(objstore.NewObjectRef("b", strings.Repeat("k", 300)))
	require.NoError(t, err)

	tests := []struct {
		name string
		file string
	}{
		{name: "empty", file: ""},
		{name: "dot file", file: ".tmp-123"},
		{name: "no separator", file: "bucketkey"},
		{name: "two separators", file: "a_b_c"},
		{name: "empty key", file: "bucket_"},
		{name: "truncated escape", file: "bucket_key%4"},
		{name: "lower-case escape", file: "bucket_key%2f"},
		{name: "non-canonical escape", file: "bucket_%41"},
		{name: "hashed name", file: hashed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseFileName(tt.file)
			assert.False(t, ok)
		})
	}
}
