package tagging

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *TagDB {
	t.Helper()
	log, _ := test.NewNullLogger()
	db, err := NewTagDB(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddAndGetTags(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AddTag("images/a.jpg", "sunset"))
	require.NoError(t, db.AddTag("images/a.jpg", "beach"))
	require.NoError(t, db.AddTag("images/a.jpg", "beach"))
	require.NoError(t, db.AddTag("images/b.jpg", "sunset"))

	tags, err := db.GetTags("images/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"beach", "sunset"}, tags)

	images, err := db.GetImages("sunset")
	require.NoError(t, err)
	assert.Equal(t, []string{"images/a.jpg", "images/b.jpg"}, images)

	none, err := db.GetTags("images/untagged.jpg")
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.ErrorIs(t, db.AddTag("", "x"), ErrEmptyArgument)
	assert.ErrorIs(t, db.AddTag("images/a.jpg", ""), ErrEmptyArgument)
}

func TestRemoveTagCleansUp(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AddTags("images/a.jpg", []string{"one", "", "two"}))
	require.NoError(t, db.RemoveTag("images/a.jpg", "one"))

	all, err := db.GetAllTags()
	require.NoError(t, err)
	assert.Equal(t, []TagWithCount{{Name: "two", Count: 1}}, all)

	require.NoError(t, db.RemoveAllTagsForImage("images/a.jpg"))
	all, err = db.GetAllTags()
	require.NoError(t, err)
	assert.Empty(t, all)

	paths, err := db.GetAllImagePaths()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestTagsFor(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AddTags("images/a.jpg", []string{"z", "a"}))

	got, err := db.TagsFor([]string{"images/a.jpg", "images/b.jpg"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"images/a.jpg": {"a", "z"},
		"images/b.jpg": {},
	}, got)
}

func TestDeleteOrphanedTagKey(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AddTag("images/a.jpg", "keep"))
	require.NoError(t, db.DeleteOrphanedTagKey("keep"))

	images, err := db.GetImages("keep")
	require.NoError(t, err)
	assert.Empty(t, images)
	assert.ErrorIs(t, db.DeleteOrphanedTagKey(""), ErrEmptyArgument)
}
