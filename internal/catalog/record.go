// Package catalog turns a gallery descriptor into an ordered list of image
// records, and provides the built-in list shown when no descriptor can be read.
package catalog

import (
	"path"
	"strings"
)

// DefaultImagePrefix is prepended to every descriptor file name to form Src.
const DefaultImagePrefix = "images/"

// ImageRecord is one displayable photograph.
type ImageRecord struct {
	ID       int      `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Category string   `json:"category" yaml:"category"`
	Tags     []string `json:"tags" yaml:"tags"`
	Src      string   `json:"src" yaml:"src"`
	Alt      string   `json:"alt" yaml:"alt"`
}

// Clone returns a copy of the record that shares no slices with r.
func (r ImageRecord) Clone() ImageRecord {
	c := r
	c.Tags = append([]string{}, r.Tags...)
	return c
}

// CloneAll copies a list of records.
func CloneAll(records []ImageRecord) []ImageRecord {
	out := make([]ImageRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// IsJPEG reports whether name carries a .jpg extension, ignoring case.
func IsJPEG(name string) bool {
	return strings.EqualFold(path.Ext(name), ".jpg")
}

// Stem returns the file name of src without directories and without the .jpg
// extension. It returns "" when src is not a .jpg path.
func Stem(src string) string {
	base := path.Base(strings.ReplaceAll(src, "\\", "/"))
	if !IsJPEG(base) || len(base) == len(".jpg") {
		return ""
	}
	return base[:len(base)-len(".jpg")]
}

var fallback = []ImageRecord{
	{ID: 1, Title: "Night Crossing", Category: "Stills", Src: "images/_DSF0023.JPG", Alt: "Night scene on a crosswalk"},
	{ID: 2, Title: "Quiet Room", Category: "Stills", Src: "images/_DSF0041.JPG", Alt: "Portrait in a quiet room"},
	{ID: 3, Title: "Harbor Mist", Category: "Stills", Src: "images/_DSF0287.JPG", Alt: "Harbor in mist"},
	{ID: 4, Title: "City Pulse", Category: "Stills", Src: "images/_DSF0434.JPG", Alt: "City street with lights"},
	{ID: 5, Title: "Golden Hour", Category: "Stills", Src: "images/_DSF0699.JPG", Alt: "Portrait in golden hour"},
	{ID: 6, Title: "Desert Line", Category: "Stills", Src: "images/_DSF0723.JPG", Alt: "Desert landscape with road"},
	{ID: 7, Title: "Lens Flare", Category: "Stills", Src: "images/_DSF0585.JPG", Alt: "Light flare abstract"},
	{ID: 8, Title: "Metro Wait", Category: "Stills", Src: "images/_DSF0521.JPG", Alt: "Person waiting in metro"},
	{ID: 9, Title: "Coastal Air", Category: "Stills", Src: "images/_DSF0631.JPG", Alt: "Coastal cliffs"},
}

// Fallback returns the built-in catalog used when the descriptor cannot be
// loaded. Each call returns a fresh copy.
func Fallback() []ImageRecord {
	return CloneAll(fallback)
}
