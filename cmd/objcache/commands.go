package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jmgilman/go/objcache/cache"
	"github.com/jmgilman/go/objcache/objstore"
)

type commandFunc func(ctx context.Context, store *cache.Store, args []string) error

var commands = map[string]commandFunc{
	"get":     cmdGet,
	"put":     cmdPut,
	"head":    cmdHead,
	"exists":  cmdExists,
	"delete":  cmdDelete,
	"stats":   cmdStats,
	"entries": cmdEntries,
	"purge":   cmdPurge,
}

func runCommand(ctx context.Context, store *cache.Store, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	return cmd(ctx, store, args)
}

// refArgs parses exactly "<bucket> <key>".
func refArgs(args []string) (objstore.ObjectRef, error) {
	if len(args) != 2 {
		return objstore.ObjectRef{}, fmt.Errorf("%w: expected <bucket> <key>", errUsage)
	}
	return objstore.NewObjectRef(args[0], args[1]), nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdOut)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdGet(ctx context.Context, store *cache.Store, args []string) error {
	ref, err := refArgs(args)
	if err != nil {
		return err
	}

	data, err := store.GetBytes(ctx, ref)
	if err != nil {
		return err
	}

	_, err = stdOut.Write(data)
	return err
}

// metadataFlag collects repeated -meta key=value flags.
type metadataFlag map[string]string

func (m metadataFlag) String() string {
	pairs := make([]string, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (m metadataFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("metadata must be key=value, got %q", s)
	}
	m[k] = v
	return nil
}

func cmdPut(ctx context.Context, store *cache.Store, args []string) error {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	contentType := fs.String("content-type", objstore.DefaultContentType, "content type of the object")
	meta := metadataFlag{}
	fs.Var(meta, "meta", "user metadata as key=value (repeatable)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("%w: expected [flags] <bucket> <key> <file|->", errUsage)
	}

	ref := objstore.NewObjectRef(fs.Arg(0), fs.Arg(1))

	var (
		data []byte
		err  error
	)
	if src := fs.Arg(2); src == "-" {
		data, err = io.ReadAll(stdIn)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	opts := objstore.PutOptions{ContentType: *contentType}
	if len(meta) > 0 {
		opts.Metadata = meta
	}
	return store.PutBytes(ctx, ref, data, opts)
}

func cmdHead(ctx context.Context, store *cache.Store, args []string) error {
	ref, err := refArgs(args)
	if err != nil {
		return err
	}

	info, err := store.Head(ctx, ref)
	if err != nil {
		return err
	}

	return writeJSON(struct {
		Bucket       string            `json:"bucket"`
		Key          string            `json:"key"`
		Size         int64             `json:"size"`
		ContentType  string            `json:"contentType,omitempty"`
		ETag         string            `json:"etag,omitempty"`
		LastModified time.Time         `json:"lastModified"`
		Metadata     map[string]string `json:"metadata,omitempty"`
	}{
		Bucket:       info.Ref.Bucket,
		Key:          info.Ref.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
		Metadata:     info.Metadata,
	})
}

func cmdExists(ctx context.Context, store *cache.Store, args []string) error {
	ref, err := refArgs(args)
	if err != nil {
		return err
	}

	ok, err := store.Exists(ctx, ref)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdOut, ok)
	return err
}

func cmdDelete(ctx context.Context, store *cache.Store, args []string) error {
	ref, err := refArgs(args)
	if err != nil {
		return err
	}
	return store.Delete(ctx, ref)
}

func cmdStats(_ context.Context, store *cache.Store, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: stats takes no arguments", errUsage)
	}

	s := store.Stats()
	return writeJSON(struct {
		Dir             string  `json:"dir"`
		Entries         int     `json:"entries"`
		BytesStored     uint64  `json:"bytesStored"`
		MaxBytes        uint64  `json:"maxBytes"`
		Hits            int64   `json:"hits"`
		Misses          int64   `json:"misses"`
		Evictions       int64   `json:"evictions"`
		Errors          int64   `json:"errors"`
		BytesServed     int64   `json:"bytesServed"`
		BytesDownloaded int64   `json:"bytesDownloaded"`
		HitRate         float64 `json:"hitRate"`
	}{
		Dir:             store.Dir(),
		Entries:         s.Entries,
		BytesStored:     s.BytesStored,
		MaxBytes:        s.MaxBytes,
		Hits:            s.Hits,
		Misses:          s.Misses,
		Evictions:       s.Evictions,
		Errors:          s.Errors,
		BytesServed:     s.BytesServed,
		BytesDownloaded: s.BytesDownloaded,
		HitRate:         s.HitRate,
	})
}

func cmdEntries(_ context.Context, store *cache.Store, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: entries takes no arguments", errUsage)
	}

	type entry struct {
		Name    string    `json:"name"`
		Bucket  string    `json:"bucket,omitempty"`
		Key     string    `json:"key,omitempty"`
		Size    uint64    `json:"size"`
		AddedAt time.Time `json:"addedAt"`
	}

	cached := store.Entries()
	out := make([]entry, 0, len(cached))
	for _, e := range cached {
		out = append(out, entry{
			Name:    e.Name,
			Bucket:  e.Ref.Bucket,
			Key:     e.Ref.Key,
			Size:    e.Size,
			AddedAt: e.AddedAt,
		})
	}
	return writeJSON(out)
}

func cmdPurge(ctx context.Context, store *cache.Store, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: purge takes no arguments", errUsage)
	}
	return store.Purge(ctx)
}
