package dedup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fygallery/internal/catalog"
)

func records(srcs ...string) []catalog.ImageRecord {
	out := make([]catalog.ImageRecord, len(srcs))
	for i, s := range srcs {
		out[i] = catalog.ImageRecord{ID: i + 1, Src: s, Tags: []string{}}
	}
	return out
}

func srcs(rs []catalog.ImageRecord) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Src
	}
	return out
}

func TestFilterSequentialRun(t *testing.T) {
	var in []string
	for i := 1; i <= 20; i++ {
		in = append(in, fmt.Sprintf("images/shot_%d.jpg", i))
	}
	kept := Filter(records(in...))

	// only kept frames suppress neighbours, so survivors are spaced 6 apart
	assert.Equal(t, []string{
		"images/shot_1.jpg", "images/shot_7.jpg", "images/shot_13.jpg", "images/shot_19.jpg",
	}, srcs(kept))

	nums := make([]int, 0, len(kept))
	for _, r := range kept {
		_, n, ok := splitFrame(catalog.Stem(r.Src))
		require.True(t, ok)
		nums = append(nums, n)
	}
	for i := range nums {
		for j := i + 1; j < len(nums); j++ {
			d := nums[i] - nums[j]
			if d < 0 {
				d = -d
			}
			assert.Greater(t, d, Window)
		}
	}
}

func TestFilterUnnumberedExactMatch(t *testing.T) {
	in := []catalog.ImageRecord{
		{ID: 1, Category: "A", Src: "images/sunset.jpg"},
		{ID: 2, Category: "B", Src: "images/b/sunset.JPG"},
		{ID: 3, Category: "B", Src: "images/sunrise.jpg"},
	}
	kept := Filter(in)
	require.Len(t, kept, 2)
	assert.Equal(t, 1, kept[0].ID)
	assert.Equal(t, 3, kept[1].ID)
}

func TestFilterKeepsOrderAndIDs(t *testing.T) {
	in := records(
		"images/_DSF0100.JPG",
		"images/portrait.jpg",
		"images/_DSF0103.JPG",
		"images/_DSF0200.JPG",
		"images/IMG_0102.jpg",
	)
	kept := Filter(in)
	assert.Equal(t, []string{
		"images/_DSF0100.JPG", "images/portrait.jpg", "images/_DSF0200.JPG", "images/IMG_0102.jpg",
	}, srcs(kept))
	assert.Equal(t, []int{1, 2, 4, 5}, []int{kept[0].ID, kept[1].ID, kept[2].ID, kept[3].ID})
	assert.Len(t, in, 5, "input must not be modified")
}

func TestFilterWindowBoundary(t *testing.T) {
	kept := Filter(records("images/x10.jpg", "images/x15.jpg", "images/x16.jpg", "images/x5.jpg", "images/x4.jpg"))
	assert.Equal(t, []string{"images/x10.jpg", "images/x16.jpg", "images/x4.jpg"}, srcs(kept))
}

func TestFilterLeadingZerosShareKeys(t *testing.T) {
	kept := Filter(records("images/_DSF0023.JPG", "images/_DSF25.JPG"))
	assert.Equal(t, []string{"images/_DSF0023.JPG"}, srcs(kept))
}

func TestFilterPrefixesEndingInDashDoNotCollide(t *testing.T) {
	kept := Filter(records("images/shot_-3.jpg", "images/shot_1.jpg", "images/shot_-4.jpg"))
	assert.Equal(t, []string{"images/shot_-3.jpg", "images/shot_1.jpg"}, srcs(kept))
}

func TestFilterOverflowFallsBackToExactStem(t *testing.T) {
	huge := "images/pano99999999999999999999999.jpg"
	kept := Filter(records(huge, huge, "images/pano1.jpg"))
	assert.Equal(t, []string{huge, "images/pano1.jpg"}, srcs(kept))
}

func TestFilterEmpty(t *testing.T) {
	assert.Empty(t, Filter(nil))
}

func TestSplitFrame(t *testing.T) {
	prefix, n, ok := splitFrame("_DSF0023")
	assert.True(t, ok)
	assert.Equal(t, "_DSF", prefix)
	assert.Equal(t, 23, n)

	_, _, ok = splitFrame("portrait")
	assert.False(t, ok)

	prefix, n, ok = splitFrame("2024")
	assert.True(t, ok)
	assert.Equal(t, "", prefix)
	assert.Equal(t, 2024, n)
}
