// Package bootstrap wires configuration, logging, the asset source, the tag
// database and the service together for the fygallery binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fygallery/internal/catalog"
	"fygallery/internal/config"
	"fygallery/internal/gallery"
	"fygallery/internal/logging"
	"fygallery/internal/metadata"
	"fygallery/internal/service"
	"fygallery/internal/source"
	"fygallery/internal/tagging"
)

// Options select the files the environment is built from.
type Options struct {
	ConfigPath string // empty means config.DefaultPath
	EnvFile    string // optional dotenv file; a missing file is ignored
	TagsDir    string // overrides tags.dir when set
	Getenv     func(string) string
}

// Env is everything a binary needs to run.
type Env struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Source   source.Source
	Catalog  *catalog.Loader
	TagDB    *tagging.TagDB   // nil when tags are disabled
	Metadata *metadata.Loader // nil when metadata is disabled
	Service  *service.Service

	closers []io.Closer
}

// Open loads the configuration and builds the environment. Close must be
// called when done.
func Open(ctx context.Context, opts Options) (*Env, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
		}
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(getenv)
	if opts.TagsDir != "" {
		cfg.Tags.Enabled = true
		cfg.Tags.Dir = opts.TagsDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	env := &Env{Config: cfg, Logger: logger, closers: []io.Closer{logCloser}}

	src, err := source.New(ctx, cfg.SourceConfig())
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to create %s source: %w", cfg.Catalog.Source, err)
	}
	env.Source = src
	env.Catalog = catalog.NewLoader(src, cfg.Catalog.Descriptor, cfg.Catalog.ImagePrefix, logger)

	// a nil *TagDB must not reach the service as a non-nil TagStore
	var tags service.TagStore
	if cfg.Tags.Enabled {
		db, err := tagging.NewTagDB(cfg.Tags.Dir, logger)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.TagDB = db
		env.closers = append(env.closers, db)
		tags = db
	}
	if cfg.Metadata.Enabled {
		env.Metadata = metadata.NewLoader(src, cfg.MetadataTTL(), logger)
	}

	env.Service = service.NewService(env.Catalog, tags, gallery.NewStore(nil), logger)
	logger.WithFields(logrus.Fields{
		"config": cfgPath,
		"source": cfg.Catalog.Source,
	}).Debug("Environment ready")
	return env, nil
}

// DescriptorPath is the descriptor's location on disk, or "" when the
// source is not a local directory.
func (e *Env) DescriptorPath() string {
	f, ok := e.Source.(*source.File)
	if !ok {
		return ""
	}
	p, err := f.Path(e.Catalog.Descriptor())
	if err != nil {
		return ""
	}
	return filepath.Clean(p)
}

// Close releases the tag database and the log file, newest first.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
