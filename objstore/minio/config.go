// Package minio provides a MinIO/S3-compatible implementation of objstore.Store.
package minio

import (
	"fmt"

	"github.com/minio/minio-go/v7"
)

// Config holds connection settings for the MinIO store.
type Config struct {
	// Endpoint is the MinIO/S3 server address (e.g., "localhost:9000")
	Endpoint string

	// AccessKey is the access key ID for authentication
	AccessKey string

	// SecretKey is the secret access key for authentication
	SecretKey string

	// Region is an optional bucket region (e.g., "us-east-1")
	Region string

	// UseSSL enables HTTPS connections
	UseSSL bool

	// Client is an optional pre-configured MinIO client
	// If provided, Endpoint/AccessKey/SecretKey/Region/UseSSL are ignored
	Client *minio.Client
}

// validate checks if the configuration is valid.
// Either Client OR (Endpoint + AccessKey + SecretKey) must be provided.
func (c *Config) validate() error {
	if c.Client != nil {
		return nil
	}

	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key is required when client is not provided")
	}

	return nil
}
