package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiss-hub/internal/models"
)

func TestFindLessonFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"go-basics_lesson_10.csv", "go-basics_lesson_2.csv", "algebra_lesson_1.csv", "notes.txt", "Go_lesson_1.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("title,type,url\n"), 0o644))
	}

	files, err := findLessonFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "algebra", files[0].CourseSlug)
	assert.Equal(t, []int{2, 10}, []int{files[1].Order, files[2].Order})
	assert.Equal(t, "Go Basics", files[1].CourseTitle)
	assert.Equal(t, "Go Basics - Lesson 2", files[1].Title)
}

func TestFindLessonFilesRejectsZeroOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go_lesson_0.csv"), nil, 0o644))

	_, err := findLessonFiles(dir)
	assert.Error(t, err)
}

func TestParseMaterials(t *testing.T) {
	in := "title,type,url,size\nSlides, Slide ,https://x/slides.pdf,2MB\nNotes,link,https://x/notes\n"

	got, err := parseMaterials(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.MaterialSlide, got[0].Type)
	assert.Equal(t, "2MB", got[0].Size)
	assert.Equal(t, "", got[1].Size)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestParseMaterialsErrors(t *testing.T) {
	_, err := parseMaterials(strings.NewReader("title,type,url\nonly,two\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = parseMaterials(strings.NewReader("title,type,url\nVideo,mp4,https://x\n"))
	assert.ErrorIs(t, err, models.ErrInvalid)

	got, err := parseMaterials(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}
