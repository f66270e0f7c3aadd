package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"fygallery/internal/bootstrap"
	"fygallery/internal/catalog"
	"fygallery/internal/dedup"
	"fygallery/internal/metadata"
	"fygallery/internal/shuffle"
)

var version = "dev"

// OpenFunc builds the environment a command runs against. Tests pass
// bootstrap.Open with a temporary config.
type OpenFunc func(ctx context.Context, opts bootstrap.Options) (*bootstrap.Env, error)

// NewRootCmd creates the root command for the CLI application. The
// environment is opened before every command and closed after it.
func NewRootCmd(open OpenFunc) *cobra.Command {
	var (
		opts bootstrap.Options
		env  *bootstrap.Env
	)

	rootCmd := &cobra.Command{
		Use:   "fygallery-cli",
		Short: "fygallery CLI - build catalogs, inspect images and manage tags",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			env, err = open(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env != nil {
				env.Close()
				env = nil
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config.toml (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "Dotenv file with FYGALLERY_* overrides")
	rootCmd.PersistentFlags().StringVar(&opts.TagsDir, "tags-dir", "", "Directory holding the tag database")

	getEnv := func() *bootstrap.Env { return env }
	rootCmd.AddCommand(
		newCatalogCmd(getEnv),
		newDedupCmd(getEnv),
		newShuffleCmd(getEnv),
		newExifCmd(getEnv),
		newTagCmd(getEnv),
	)
	return rootCmd
}

func newCatalogCmd(env func() *bootstrap.Env) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Build and inspect the gallery descriptor",
	}

	var out, format string
	buildCmd := &cobra.Command{
		Use:   "build [directory]",
		Short: "Scan a directory of images and produce a gallery descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := catalog.Build(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				f := catalog.FormatJSON
				if strings.EqualFold(format, "yaml") {
					f = catalog.FormatYAML
				}
				return catalog.EncodeDescriptor(cmd.OutOrStdout(), desc, f)
			}
			if err := catalog.WriteDescriptor(out, desc); err != nil {
				return err
			}
			works := 0
			for _, c := range desc.Categories {
				works += len(c.Works)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d categories (%d images) to %s\n", len(desc.Categories), works, out)
			return nil
		},
	}
	buildCmd.Flags().StringVarP(&out, "out", "o", "", "Write the descriptor to this file instead of stdout (.json, .yaml)")
	buildCmd.Flags().StringVar(&format, "format", "json", "Output format when writing to stdout: json or yaml")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the records of the configured descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := env().Catalog.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, r := range records {
				fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.Category, r.Src)
			}
			return nil
		},
	}

	catalogCmd.AddCommand(buildCmd, listCmd)
	return catalogCmd
}

func newDedupCmd(env func() *bootstrap.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "dedup",
		Short: "Show which images survive near-duplicate filtering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := env().Catalog.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			kept := dedup.Filter(records)
			w := cmd.OutOrStdout()
			for _, r := range kept {
				fmt.Fprintln(w, r.Src)
			}
			fmt.Fprintf(w, "Kept %d of %d images\n", len(kept), len(records))
			return nil
		},
	}
}

func newShuffleCmd(env func() *bootstrap.Env) *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "shuffle",
		Short: "Print the gallery order the viewer would show",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := env().Service
			if cmd.Flags().Changed("seed") {
				svc.Shuffler = shuffle.NewSeeded(seed)
			}
			records, res := svc.BuildRecords(cmd.Context())
			if res.Fallback {
				fmt.Fprintln(cmd.ErrOrStderr(), "Catalog unavailable, showing the built-in gallery")
			}
			w := cmd.OutOrStdout()
			for _, r := range records {
				fmt.Fprintf(w, "%d\t%s\n", r.ID, r.Src)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for a reproducible order")
	return cmd
}

func newExifCmd(env func() *bootstrap.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "exif [src]",
		Short: "Print the camera metadata of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta := env().Metadata
			if meta == nil {
				return errors.New("metadata is disabled in the configuration")
			}
			fields, err := meta.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if fields.IsZero() {
				fmt.Fprintf(w, "No EXIF metadata in %s\n", args[0])
				return nil
			}
			for _, line := range metadata.Format(fields) {
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}

func newTagCmd(env func() *bootstrap.Env) *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage image tags; images are named by their catalog src",
	}

	addCmd := &cobra.Command{
		Use:   "add [src] [tag...]",
		Short: "Add tags to an image",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, tags := args[0], args[1:]
			if err := env().Service.AddTagsToImage(src, tags); err != nil {
				return err
			}
			for _, tag := range tags {
				fmt.Fprintf(cmd.OutOrStdout(), "Added tag '%s' to %s\n", tag, src)
			}
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove [src] [tag...]",
		Short: "Remove tags from an image",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, tags := args[0], args[1:]
			if err := env().Service.RemoveTagsFromImage(src, tags); err != nil {
				return err
			}
			for _, tag := range tags {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed tag '%s' from %s\n", tag, src)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list [src]",
		Short: "List tags for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := env().Service.ListTagsForImage(args[0])
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No tags for %s\n", args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tags, ", "))
			return nil
		},
	}

	findCmd := &cobra.Command{
		Use:   "find [tag]",
		Short: "List images with a given tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := env().Service.ListImagesForTag(args[0])
			if err != nil {
				return err
			}
			for _, img := range images {
				fmt.Fprintln(cmd.OutOrStdout(), img)
			}
			return nil
		},
	}

	listAllCmd := &cobra.Command{
		Use:   "list-all",
		Short: "List all tags with image counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := env().Service.ListAllTags()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(tags) == 0 {
				fmt.Fprintln(w, "No tags found in the database.")
				return nil
			}
			fmt.Fprintln(w, "All tags in database:")
			for _, tag := range tags {
				fmt.Fprintf(w, "%s (%d)\n", tag.Name, tag.Count)
			}
			return nil
		},
	}

	replaceCmd := &cobra.Command{
		Use:   "replace [old] [new]",
		Short: "Replace an old tag with a new tag on every image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env().Service.ReplaceTag(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replaced '%s' with '%s'\n", args[0], args[1])
			return nil
		},
	}

	normalizeCmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize all tags to lowercase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env().Service.NormalizeAllTags()
		},
	}

	removeAllCmd := &cobra.Command{
		Use:   "remove-all [tag]",
		Short: "Remove a tag from every image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, failed, err := env().Service.RemoveTagGlobally(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed '%s' from %d images (%d failed)\n", args[0], removed, failed)
			return nil
		},
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop tags of images that are no longer in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := env().Service.PruneTags(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned tags of %d images\n", n)
			return nil
		},
	}

	tagCmd.AddCommand(addCmd, removeCmd, listCmd, findCmd, listAllCmd, replaceCmd, normalizeCmd, removeAllCmd, pruneCmd)
	return tagCmd
}

func main() {
	if err := fang.Execute(
		context.Background(),
		NewRootCmd(bootstrap.Open),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
