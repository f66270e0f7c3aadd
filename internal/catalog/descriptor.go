package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor is the gallery manifest: named categories, each listing works.
type Descriptor struct {
	Categories []Category `json:"categories" yaml:"categories"`
}

// Category groups works under a display name.
type Category struct {
	Name  string `json:"name" yaml:"name"`
	Works []Work `json:"works" yaml:"works"`
}

// Work is a single file entry in a category.
type Work struct {
	File string `json:"file" yaml:"file"`
}

// Format identifies the encoding of a descriptor file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the descriptor format from a file name. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DecodeDescriptor reads a descriptor in the given format.
func DecodeDescriptor(r io.Reader, format Format) (Descriptor, error) {
	var desc Descriptor
	data, err := io.ReadAll(r)
	if err != nil {
		return desc, fmt.Errorf("reading descriptor: %w", err)
	}
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &desc)
	default:
		err = json.Unmarshal(data, &desc)
	}
	if err != nil {
		return desc, fmt.Errorf("decoding descriptor: %w", err)
	}
	return desc, nil
}

// EncodeDescriptor writes desc in the given format.
func EncodeDescriptor(w io.Writer, desc Descriptor, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(desc); err != nil {
			return fmt.Errorf("encoding descriptor: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(desc); err != nil {
			return fmt.Errorf("encoding descriptor: %w", err)
		}
		return nil
	}
}

// WriteDescriptor saves desc to path, choosing the format from the extension.
func WriteDescriptor(path string, desc Descriptor) error {
	var buf bytes.Buffer
	if err := EncodeDescriptor(&buf, desc, FormatFor(path)); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write descriptor %s: %w", path, err)
	}
	return nil
}

// Flatten converts a descriptor into image records. Only .jpg files (any
// case) are kept; IDs count up from 1 across categories in descriptor order.
func Flatten(desc Descriptor, prefix string) []ImageRecord {
	records := []ImageRecord{}
	nextID := 1
	for _, cat := range desc.Categories {
		for _, work := range cat.Works {
			if !IsJPEG(work.File) {
				continue
			}
			name := strings.TrimSuffix(work.File, filepath.Ext(work.File))
			records = append(records, ImageRecord{
				ID:       nextID,
				Title:    name,
				Category: cat.Name,
				Tags:     []string{},
				Src:      prefix + work.File,
				Alt:      name,
			})
			nextID++
		}
	}
	return records
}
