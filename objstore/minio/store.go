package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jmgilman/go/objcache/objstore"
)

// Store implements objstore.Store against a MinIO/S3-compatible server.
type Store struct {
	client *minio.Client
}

// New creates a MinIO-backed object store.
// Returns error if configuration is invalid or the client cannot be created.
func New(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
	}

	return &Store{client: client}, nil
}

// Client returns the underlying MinIO client.
func (s *Store) Client() *minio.Client {
	return s.client
}

// GetBytes reads the whole object into memory.
// The first operation on the object is a read, so the body comes from a
// single GET response and a concurrent overwrite cannot truncate it.
func (s *Store) GetBytes(ctx context.Context, ref objstore.ObjectRef) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, ref.Bucket, ref.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err, "get", ref)
	}
	defer func() {
		_ = obj.Close()
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translate(err, "read", ref)
	}

	return data, nil
}

// GetStream opens the object for streaming.
// The object is stat'ed first so a missing key fails here rather than on the
// first Read. Later reads are pinned to the stat'ed ETag by the client.
func (s *Store) GetStream(ctx context.Context, ref objstore.ObjectRef) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, ref.Bucket, ref.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err, "get", ref)
	}

	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, translate(err, "stat", ref)
	}
	return obj, nil
}

// PutBytes uploads data as a single object.
func (s *Store) PutBytes(ctx context.Context, ref objstore.ObjectRef, data []byte, opts objstore.PutOptions) error {
	_, err := s.client.PutObject(
		ctx,
		ref.Bucket,
		ref.Key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  opts.ContentTypeOrDefault(),
			UserMetadata: opts.Metadata,
		},
	)
	return translate(err, "put", ref)
}

// Head returns object metadata.
func (s *Store) Head(ctx context.Context, ref objstore.ObjectRef) (*objstore.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, ref.Bucket, ref.Key, minio.StatObjectOptions{})
	if err != nil {
		return nil, translate(err, "stat", ref)
	}
	return toObjectInfo(ref, info), nil
}

// Exists reports whether the object exists.
func (s *Store) Exists(ctx context.Context, ref objstore.ObjectRef) (bool, error) {
	_, err := s.Head(ctx, ref)
	if err == nil {
		return true, nil
	}
	if objstore.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Delete removes the object. S3 treats deletion of an absent key as success.
func (s *Store) Delete(ctx context.Context, ref objstore.ObjectRef) error {
	err := s.client.RemoveObject(ctx, ref.Bucket, ref.Key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return translate(err, "remove", ref)
}

// toObjectInfo converts MinIO object metadata into an objstore.ObjectInfo.
func toObjectInfo(ref objstore.ObjectRef, info minio.ObjectInfo) *objstore.ObjectInfo {
	var metadata map[string]string
	if len(info.UserMetadata) > 0 {
		metadata = make(map[string]string, len(info.UserMetadata))
		for k, v := range info.UserMetadata {
			metadata[k] = v
		}
	}

	return &objstore.ObjectInfo{
		Ref:          ref,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
		Metadata:     metadata,
	}
}

var _ objstore.Store = (*Store)(nil)
