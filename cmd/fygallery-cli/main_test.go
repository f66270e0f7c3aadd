package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fygallery/internal/bootstrap"
	"fygallery/internal/config"
)

const testDescriptor = `{
  "categories": [
    {"name": "Street", "works": [{"file": "shot_1.jpg"}, {"file": "shot_2.jpg"}]},
    {"name": "Harbor", "works": [{"file": "boat.JPG"}, {"file": "notes.png"}]}
  ]
}`

// setupSite writes a small gallery and a config pointing at it, returning the
// config path.
func setupSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	images := filepath.Join(dir, "site", "images")
	require.NoError(t, os.MkdirAll(images, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(images, "gallery.json"), []byte(testDescriptor), 0644))
	for _, name := range []string{"shot_1.jpg", "shot_2.jpg", "boat.JPG"} {
		require.NoError(t, os.WriteFile(filepath.Join(images, name), []byte("not really a jpeg"), 0644))
	}

	cfg := config.DefaultConfig()
	cfg.Catalog.Root = filepath.Join(dir, "site")
	cfg.Tags.Dir = filepath.Join(dir, "tags")
	cfg.Logging.Level = "error"
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, cfg.SaveToFile(path))
	return path
}

// executeCommandC executes a fresh root command and captures its output.
func executeCommandC(args ...string) (string, string, error) {
	root := NewRootCmd(bootstrap.Open)
	actualStdout := new(bytes.Buffer)
	actualStderr := new(bytes.Buffer)
	root.SetOut(actualStdout)
	root.SetErr(actualStderr)
	root.SetArgs(args)

	err := root.Execute()
	return actualStdout.String(), actualStderr.String(), err
}

func TestRootHelp(t *testing.T) {
	stdout, stderr, err := executeCommandC("--help")
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "fygallery-cli [command]")
}

func TestInitFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[catalog]\nsource = \"ftp\"\n"), 0644))

	_, _, err := executeCommandC("--config", path, "catalog", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize")
}

func TestCatalogList(t *testing.T) {
	cfg := setupSite(t)

	stdout, stderr, err := executeCommandC("--config", cfg, "catalog", "list")
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Equal(t, []string{
		"1\tStreet\timages/shot_1.jpg",
		"2\tStreet\timages/shot_2.jpg",
		"3\tHarbor\timages/boat.JPG",
	}, lines)
}

func TestCatalogBuild(t *testing.T) {
	cfg := setupSite(t)
	photos := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(photos, "Night"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(photos, "Night", "a.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(photos, "b.jpg"), []byte("x"), 0644))

	t.Run("stdout", func(t *testing.T) {
		stdout, stderr, err := executeCommandC("--config", cfg, "catalog", "build", photos)
		require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
		assert.Contains(t, stdout, `"name": "Night"`)
		assert.Contains(t, stdout, `"file": "Night/a.jpg"`)
		assert.Contains(t, stdout, `"file": "b.jpg"`)
	})

	t.Run("yaml", func(t *testing.T) {
		stdout, _, err := executeCommandC("--config", cfg, "catalog", "build", "--format", "yaml", photos)
		require.NoError(t, err)
		assert.Contains(t, stdout, "- name: Night")
	})

	t.Run("file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "gallery.json")
		stdout, _, err := executeCommandC("--config", cfg, "catalog", "build", "--out", out, photos)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Wrote 2 categories (2 images) to "+out)
		assert.FileExists(t, out)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, _, err := executeCommandC("--config", cfg, "catalog", "build", filepath.Join(photos, "nope"))
		assert.Error(t, err)
	})
}

func TestDedupCommand(t *testing.T) {
	cfg := setupSite(t)

	stdout, stderr, err := executeCommandC("--config", cfg, "dedup")
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "images/shot_1.jpg\n")
	assert.NotContains(t, stdout, "images/shot_2.jpg")
	assert.Contains(t, stdout, "images/boat.JPG\n")
	assert.Contains(t, stdout, "Kept 2 of 3 images")
}

func TestShuffleCommand(t *testing.T) {
	cfg := setupSite(t)

	first, _, err := executeCommandC("--config", cfg, "shuffle", "--seed", "42")
	require.NoError(t, err)
	second, _, err := executeCommandC("--config", cfg, "shuffle", "--seed", "42")
	require.NoError(t, err)
	assert.Equal(t, first, second, "same seed, same order")
	assert.Len(t, strings.Split(strings.TrimSpace(first), "\n"), 2)
	assert.NotContains(t, first, "shot_2")
}

func TestShuffleFallback(t *testing.T) {
	cfg := setupSite(t)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(cfg), "site", "images", "gallery.json")))

	stdout, stderr, err := executeCommandC("--config", cfg, "shuffle")
	require.NoError(t, err)
	assert.Contains(t, stderr, "built-in gallery")
	assert.NotEmpty(t, strings.TrimSpace(stdout))
}

func TestExifCommand(t *testing.T) {
	cfg := setupSite(t)

	t.Run("no exif", func(t *testing.T) {
		stdout, _, err := executeCommandC("--config", cfg, "exif", "images/shot_1.jpg")
		require.NoError(t, err)
		assert.Contains(t, stdout, "No EXIF metadata in images/shot_1.jpg")
	})

	t.Run("missing image", func(t *testing.T) {
		_, _, err := executeCommandC("--config", cfg, "exif", "images/missing.jpg")
		assert.Error(t, err)
	})
}

func TestTagCommands(t *testing.T) {
	cfg := setupSite(t)
	run := func(args ...string) string {
		t.Helper()
		stdout, stderr, err := executeCommandC(append([]string{"--config", cfg, "tag"}, args...)...)
		require.NoError(t, err, "args: %v, stdout: %s, stderr: %s", args, stdout, stderr)
		return stdout
	}

	assert.Contains(t, run("list-all"), "No tags found in the database.")

	out := run("add", "images/shot_1.jpg", "Night", "rain")
	assert.Contains(t, out, "Added tag 'Night' to images/shot_1.jpg")
	assert.Contains(t, out, "Added tag 'rain' to images/shot_1.jpg")
	run("add", "images/boat.JPG", "rain")

	assert.Equal(t, "Night, rain\n", run("list", "images/shot_1.jpg"))
	assert.Equal(t, "images/boat.JPG\nimages/shot_1.jpg\n", run("find", "rain"))

	out = run("list-all")
	assert.Contains(t, out, "All tags in database:")
	assert.Contains(t, out, "rain (2)")
	assert.Contains(t, out, "Night (1)")

	run("normalize")
	assert.Equal(t, "night, rain\n", run("list", "images/shot_1.jpg"))

	assert.Contains(t, run("replace", "rain", "wet"), "Replaced 'rain' with 'wet'")
	assert.Equal(t, "images/boat.JPG\nimages/shot_1.jpg\n", run("find", "wet"))

	assert.Contains(t, run("remove", "images/shot_1.jpg", "night"), "Removed tag 'night' from images/shot_1.jpg")
	assert.Equal(t, "wet\n", run("list", "images/shot_1.jpg"))

	assert.Contains(t, run("remove-all", "wet"), "Removed 'wet' from 2 images (0 failed)")
	assert.Contains(t, run("list", "images/boat.JPG"), "No tags for images/boat.JPG")
}

func TestTagPrune(t *testing.T) {
	cfg := setupSite(t)

	_, _, err := executeCommandC("--config", cfg, "tag", "add", "images/gone.jpg", "old")
	require.NoError(t, err)
	_, _, err = executeCommandC("--config", cfg, "tag", "add", "images/boat.JPG", "keep")
	require.NoError(t, err)

	stdout, _, err := executeCommandC("--config", cfg, "tag", "prune")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pruned tags of 1 images")

	stdout, _, err = executeCommandC("--config", cfg, "tag", "list", "images/boat.JPG")
	require.NoError(t, err)
	assert.Equal(t, "keep\n", stdout)
}

func TestTagsDisabled(t *testing.T) {
	cfg := setupSite(t)
	c, err := config.LoadConfig(cfg)
	require.NoError(t, err)
	c.Tags.Enabled = false
	require.NoError(t, c.SaveToFile(cfg))

	_, _, err = executeCommandC("--config", cfg, "tag", "list-all")
	assert.Error(t, err)
}
