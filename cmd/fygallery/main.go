package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"fygallery/internal/bootstrap"
	"fygallery/internal/catalog"
	"fygallery/internal/ui"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var opts bootstrap.Options

	root := &cobra.Command{
		Use:   "fygallery",
		Short: "Browse a photo gallery with a shuffled grid and a lightbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			env, err := bootstrap.Open(ctx, opts)
			if err != nil {
				return err
			}
			defer env.Close()

			if env.Config.Catalog.Watch {
				if path := env.DescriptorPath(); path != "" {
					go func() {
						err := catalog.Watch(ctx, path, 0, func() { env.Service.LoadGallery(ctx) }, env.Logger)
						if err != nil {
							env.Logger.WithError(err).Warn("Descriptor watcher stopped")
						}
					}()
				} else {
					env.Logger.Warn("catalog.watch only applies to the file source")
				}
			}

			deps := ui.Deps{
				Config:  env.Config,
				Service: env.Service,
				Source:  env.Source,
				Logger:  env.Logger,
				Version: version,
			}
			// keep the interface nil when metadata is disabled
			if env.Metadata != nil {
				deps.Metadata = env.Metadata
			}
			return ui.CreateApplication(ctx, deps)
		},
	}

	root.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config.toml (default: user config dir)")
	root.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "Dotenv file with FYGALLERY_* overrides")
	root.Flags().StringVar(&opts.TagsDir, "tags-dir", "", "Directory holding the tag database")
	return root
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
