// Command objcache reads and writes objects in an S3-compatible store through
// a local disk cache.
//
// Usage:
//
//	objcache [-config objcache.cue] <command> [args]
//
// Commands:
//
//	get <bucket> <key>                    write the object to stdout
//	put [flags] <bucket> <key> <file|->   upload a file or stdin
//	head <bucket> <key>                   print object metadata as JSON
//	exists <bucket> <key>                 print true or false
//	delete <bucket> <key>                 delete the object
//	stats                                 print cache statistics as JSON
//	entries                               print cached entries as JSON
//	purge                                 remove every cached file
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmgilman/go/objcache/cache"
	"github.com/jmgilman/go/objcache/config"
	"github.com/jmgilman/go/objcache/objstore"
	"github.com/jmgilman/go/objcache/objstore/minio"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	defaultConfigPath = "objcache.cue"
	envConfigPath     = "OBJCACHE_CONFIG"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	configPath string
	command    string
	args       []string
}

var (
	stdIn  io.Reader = os.Stdin
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr

	// newRemote builds the store the cache sits in front of.
	newRemote = func(cfg config.RemoteConfig) (objstore.Store, error) {
		return minio.New(minio.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
	}
)

var errUsage = errors.New("usage error")

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		printUsage(stdErr)
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, opts cliOptions) int {
	cfg, err := config.Load(ctx, opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "failed to load config: %v\n", err)
		return exitError
	}

	logger, closer, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(stdErr, "failed to initialize logging: %v\n", err)
		return exitError
	}
	defer closer.Close()

	remote, err := newRemote(cfg.Remote)
	if err != nil {
		fmt.Fprintf(stdErr, "failed to create remote store: %v\n", err)
		return exitError
	}

	store, err := cache.New(remote, cfg.Cache.Dir, cfg.Cache.MaxBytes, cache.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stdErr, "failed to open cache: %v\n", err)
		return exitError
	}

	logger.Debug(ctx, "running command",
		"command", opts.command,
		"config", opts.configPath,
		"cache_dir", cfg.Cache.Dir)

	if err := runCommand(ctx, store, opts.command, opts.args); err != nil {
		fmt.Fprintf(stdErr, "%s: %v\n", opts.command, err)
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		return exitError
	}
	return exitOK
}

// parseCLIFlags parses global flags and resolves the config path. A flag
// takes precedence over OBJCACHE_CONFIG.
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("objcache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configFlag string
	fs.StringVar(&configFlag, "config", "", "path to the CUE config file (default ./objcache.cue, or $OBJCACHE_CONFIG)")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("failed to parse flags: %w", err)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return cliOptions{}, errors.New("missing command")
	}
	if _, ok := commands[rest[0]]; !ok {
		return cliOptions{}, fmt.Errorf("unknown command %q", rest[0])
	}

	path := os.Getenv(envConfigPath)
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = defaultConfigPath
	}

	return cliOptions{
		configPath: path,
		command:    rest[0],
		args:       rest[1:],
	}, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: objcache [-config objcache.cue] <command> [args]")
	fmt.Fprintln(w, "commands: get, put, head, exists, delete, stats, entries, purge")
}
