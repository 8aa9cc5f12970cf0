package objstore

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
)

func TestObjectRef_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ref     ObjectRef
		wantErr bool
	}{
		{name: "valid", ref: NewObjectRef("bucket", "key"), wantErr: false},
		{name: "nested key", ref: NewObjectRef("bucket", "a/b/c.txt"), wantErr: false},
		{name: "missing bucket", ref: NewObjectRef("", "key"), wantErr: true},
		{name: "missing key", ref: NewObjectRef("bucket", ""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestObjectRef_Equality(t *testing.T) {
	a := NewObjectRef("bucket", "key")
	b := ObjectRef{Bucket: "bucket", Key: "key"}
	assert.Equal(t, a, b)
	assert.True(t, a == b)

	seen := map[ObjectRef]int{a: 1}
	assert.Equal(t, 1, seen[b])
	assert.Equal(t, "bucket/key", a.String())
}

func TestPutOptions_ContentTypeOrDefault(t *testing.T) {
	assert.Equal(t, DefaultContentType, PutOptions{}.ContentTypeOrDefault())
	assert.Equal(t, "text/plain", PutOptions{ContentType: "text/plain"}.ContentTypeOrDefault())
}

func TestIsNotFound(t *testing.T) {
	ref := NewObjectRef("bucket", "key")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "not found", err: NotFound(ref), want: true},
		{name: "wrapped not found", err: fmt.Errorf("fetch: %w", NotFound(ref)), want: true},
		{name: "fs not exist", err: fs.ErrNotExist, want: true},
		{name: "network", err: errors.New(errors.CodeNetwork, "connection reset"), want: false},
		{name: "plain", err: fmt.Errorf("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestNotFound_Context(t *testing.T) {
	err := NotFound(NewObjectRef("bucket", "key"))
	assert.Equal(t, errors.CodeNotFound, err.Code())
	assert.Equal(t, "bucket", err.Context()["bucket"])
	assert.Equal(t, "key", err.Context()["key"])
	assert.False(t, errors.IsRetryable(err))
}
