// Package metadata reads camera settings embedded in photographs and turns
// them into short human-readable lines.
package metadata

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Fields are the EXIF values the viewer displays. Zero values mean absent.
type Fields struct {
	Make         string
	Model        string
	LensMake     string
	LensModel    string
	ISO          int
	FNumber      float64
	ExposureTime float64 // seconds
	FocalLength  float64 // millimetres
	Taken        time.Time
}

// IsZero reports whether no field was found.
func (f Fields) IsZero() bool {
	return f == Fields{}
}

// Decode extracts Fields from a JPEG, TIFF or raw EXIF stream. Tags that are
// missing or malformed are left at their zero value.
func Decode(r io.Reader) (Fields, error) {
	var f Fields
	x, err := exif.Decode(r)
	if x == nil {
		return f, fmt.Errorf("decoding exif: %w", err)
	}

	f.Make = stringTag(x, exif.Make)
	f.Model = stringTag(x, exif.Model)
	f.LensMake = stringTag(x, exif.LensMake)
	f.LensModel = stringTag(x, exif.LensModel)
	f.ISO = intTag(x, exif.ISOSpeedRatings)
	f.FNumber = ratTag(x, exif.FNumber)
	f.ExposureTime = ratTag(x, exif.ExposureTime)
	f.FocalLength = ratTag(x, exif.FocalLength)
	// DateTime prefers DateTimeOriginal and falls back to DateTime.
	if t, err := x.DateTime(); err == nil {
		f.Taken = t
	}
	return f, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.StringVal {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimRight(s, "\x00")
}

func intTag(x *exif.Exif, name exif.FieldName) int {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.IntVal {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

func ratTag(x *exif.Exif, name exif.FieldName) float64 {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.RatVal {
		return 0
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Format renders Fields as display lines: camera, lens, then exposure
// settings joined with " • ". Absent parts produce no line.
func Format(f Fields) []string {
	lines := []string{}

	maker, model := strings.TrimSpace(f.Make), strings.TrimSpace(f.Model)
	switch {
	case maker != "" && model != "":
		lines = append(lines, maker+" "+model)
	case maker != "":
		lines = append(lines, maker)
	case model != "":
		lines = append(lines, model)
	}

	if lens := strings.TrimSpace(f.LensModel); lens != "" {
		lines = append(lines, lens)
	} else if lens := strings.TrimSpace(f.LensMake); lens != "" {
		lines = append(lines, lens)
	}

	var settings []string
	if f.FNumber > 0 {
		settings = append(settings, fmt.Sprintf("f/%.1f", f.FNumber))
	}
	if f.ExposureTime > 0 {
		settings = append(settings, FormatExposure(f.ExposureTime))
	}
	if f.ISO > 0 {
		settings = append(settings, fmt.Sprintf("ISO %d", f.ISO))
	}
	if f.FocalLength > 0 {
		settings = append(settings, fmt.Sprintf("%dmm", int(math.Round(f.FocalLength))))
	}
	if len(settings) > 0 {
		lines = append(lines, strings.Join(settings, " • "))
	}
	return lines
}

// FormatExposure renders a shutter time: fractions as "1/Ns", longer
// exposures with one decimal.
func FormatExposure(seconds float64) string {
	if seconds < 1 {
		return fmt.Sprintf("1/%ds", int(math.Round(1/seconds)))
	}
	return fmt.Sprintf("%.1fs", seconds)
}
