package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
cache: dir: "/var/cache/objcache"
remote: endpoint: "localhost:9000"
`

func noEnv(string) (string, bool) { return "", false }

func loadString(t *testing.T, src string, env func(string) (string, bool)) (*Config, error) {
	t.Helper()

	mem := billy.NewMemory()
	require.NoError(t, mem.WriteFile("/objcache.cue", []byte(src), 0o644))
	return LoadFS(context.Background(), mem, "/objcache.cue", env)
}

func TestLoadFS_Defaults(t *testing.T) {
	cfg, err := loadString(t, minimal, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/objcache", cfg.Cache.Dir)
	assert.Equal(t, uint64(1<<30), cfg.Cache.MaxBytes)
	assert.Equal(t, "localhost:9000", cfg.Remote.Endpoint)
	assert.True(t, cfg.Remote.UseSSL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
	assert.Equal(t, 3, cfg.Log.MaxBackups)
}

func TestLoadFS_FullConfig(t *testing.T) {
	src := `
cache: {
	dir:      "/tmp/cache"
	maxBytes: 512Mi
}
remote: {
	endpoint:  "minio:9000"
	accessKey: "AKIA"
	secretKey: "secret"
	region:    "us-east-1"
	useSSL:    false
}
log: {
	level:     "debug"
	format:    "json"
	file:      "/var/log/objcache.log"
	maxSizeMB: 10
}
`
	cfg, err := loadString(t, src, noEnv)
	require.NoError(t, err)

	assert.Equal(t, Config{
		Cache: CacheConfig{Dir: "/tmp/cache", MaxBytes: 512 << 20},
		Remote: RemoteConfig{
			Endpoint:  "minio:9000",
			AccessKey: "AKIA",
			SecretKey: "secret",
			Region:    "us-east-1",
			UseSSL:    false,
		},
		Log: LogConfig{
			Level:      "debug",
			Format:     "json",
			File:       "/var/log/objcache.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}, *cfg)
}

func TestLoadFS_EnvOverridesCredentials(t *testing.T) {
	env := map[string]string{
		EnvAccessKey: "env-access",
		EnvSecretKey: "env-secret",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	src := minimal + `remote: accessKey: "file-access"
remote: secretKey: "file-secret"
`
	cfg, err := loadString(t, src, lookup)
	require.NoError(t, err)
	assert.Equal(t, "env-access", cfg.Remote.AccessKey)
	assert.Equal(t, "env-secret", cfg.Remote.SecretKey)
}

func TestLoadFS_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.ErrorCode
	}{
		{
			name: "invalid syntax",
			src:  `cache: {`,
			code: errors.CodeCUEBuildFailed,
		},
		{
			name: "missing cache dir",
			src:  `remote: endpoint: "localhost:9000"`,
			code: errors.CodeCUEValidationFailed,
		},
		{
			name: "unknown field",
			src:  minimal + `extra: true`,
			code: errors.CodeCUEValidationFailed,
		},
		{
			name: "negative capacity",
			src:  minimal + `cache: maxBytes: -1`,
			code: errors.CodeCUEValidationFailed,
		},
		{
			name: "unknown log level",
			src:  minimal + `log: level: "trace"`,
			code: errors.CodeCUEValidationFailed,
		},
		{
			name: "endpoint with scheme",
			src: `
cache: dir: "/tmp"
remote: endpoint: "https://minio:9000"
`,
			code: errors.CodeInvalidConfig,
		},
		{
			name: "access key without secret",
			src:  minimal + `remote: accessKey: "AKIA"`,
			code: errors.CodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadString(t, tt.src, noEnv)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))

			var pe errors.PlatformError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "/objcache.cue", pe.Context()["path"])
		})
	}
}

func TestLoadFS_MissingFile(t *testing.T) {
	_, err := LoadFS(context.Background(), billy.NewMemory(), "/missing.cue", noEnv)
	require.Error(t, err)
	assert.Equal(t, errors.CodeCUELoadFailed, errors.GetCode(err))
}

func TestLoadFS_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadFS(ctx, billy.NewMemory(), "/objcache.cue", noEnv)
	require.Error(t, err)
	assert.Equal(t, errors.CodeCUELoadFailed, errors.GetCode(err))
}

func TestLoad_LocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "objcache.cue")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	t.Setenv(EnvAccessKey, "")
	t.Setenv(EnvSecretKey, "")

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", cfg.Remote.Endpoint)
}
