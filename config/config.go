// Package config loads objcache configuration from CUE files.
//
// A configuration file is unified with an embedded schema that supplies
// defaults and rejects unknown fields:
//
//	cache: {
//		dir:      "/var/cache/objcache"
//		maxBytes: 512Mi
//	}
//	remote: {
//		endpoint: "minio.internal:9000"
//		useSSL:   false
//	}
//	log: level: "debug"
//
// Credentials may be left out of the file and supplied through the
// OBJCACHE_ACCESS_KEY and OBJCACHE_SECRET_KEY environment variables.
package config

import (
	"context"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
)

// Environment variables that override credentials from the file.
const (
	EnvAccessKey = "OBJCACHE_ACCESS_KEY"
	EnvSecretKey = "OBJCACHE_SECRET_KEY"
)

//go:embed schema.cue
var schema string

// Config is the complete objcache configuration.
type Config struct {
	Cache  CacheConfig  `json:"cache"`
	Remote RemoteConfig `json:"remote"`
	Log    LogConfig    `json:"log"`
}

// CacheConfig configures the local disk cache.
type CacheConfig struct {
	Dir      string `json:"dir"`
	MaxBytes uint64 `json:"maxBytes"`
}

// RemoteConfig configures the S3-compatible object store.
type RemoteConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
	Region    string `json:"region"`
	UseSSL    bool   `json:"useSSL"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"`
}

// Load reads the CUE file at path from the local filesystem.
func Load(ctx context.Context, path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig, "failed to resolve config path", map[string]interface{}{
			"path": path,
		})
	}
	return LoadFS(ctx, billy.NewLocal(), abs, os.LookupEnv)
}

// LoadFS reads the CUE file at path from fsys. lookupEnv resolves credential
// overrides and may be nil.
//
// Returns CodeCUELoadFailed if the file cannot be read, CodeCUEBuildFailed if
// it is not valid CUE, CodeCUEValidationFailed if it does not satisfy the
// schema, and CodeInvalidConfig if the resulting values are unusable.
func LoadFS(ctx context.Context, fsys core.ReadFS, path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCUELoadFailed, "context cancelled")
	}

	errCtx := map[string]interface{}{"path": path}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeCUELoadFailed, "failed to read config file", errCtx)
	}

	cfg, err := Parse(data, path)
	if err != nil {
		return nil, errors.WithContextMap(err, errCtx)
	}

	if lookupEnv != nil {
		cfg.applyEnv(lookupEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.WithContextMap(err, errCtx)
	}

	return cfg, nil
}

// Parse compiles CUE source against the schema and decodes the result.
// filename is only used in error messages.
func Parse(data []byte, filename string) (*Config, error) {
	cctx := cuecontext.New()

	def := cctx.CompileString(schema, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "embedded config schema is invalid")
	}

	val := cctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCUEBuildFailed, "failed to compile config")
	}

	val = def.Unify(val)
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.Wrap(err, errors.CodeCUEValidationFailed, "config does not match schema")
	}

	var cfg Config
	if err := val.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeCUEDecodeFailed, "failed to decode config")
	}

	return &cfg, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) {
	if v, ok := lookupEnv(EnvAccessKey); ok {
		c.Remote.AccessKey = v
	}
	if v, ok := lookupEnv(EnvSecretKey); ok {
		c.Remote.SecretKey = v
	}
}

// Validate checks constraints the schema cannot express.
func (c *Config) Validate() error {
	if strings.Contains(c.Remote.Endpoint, "://") {
		return errors.WithContext(
			errors.New(errors.CodeInvalidConfig, "remote endpoint must not include a scheme; use useSSL instead"),
			"endpoint", c.Remote.Endpoint,
		)
	}

	if (c.Remote.AccessKey == "") != (c.Remote.SecretKey == "") {
		return errors.New(errors.CodeInvalidConfig, "remote access key and secret key must be set together")
	}

	return nil
}
