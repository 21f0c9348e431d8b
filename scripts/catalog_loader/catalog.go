package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"swiss-hub/internal/models"
)

var lessonFileName = regexp.MustCompile(`^([a-z0-9][a-z0-9-]*)_lesson_([0-9]+)\.csv$`)

type lessonFile struct {
	Path        string
	CourseSlug  string
	CourseTitle string
	Order       int
	Title       string
}

// findLessonFiles returns the catalog files of dir sorted by course, then by
// lesson order. Files with other names are ignored.
func findLessonFiles(dir string) ([]lessonFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []lessonFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := lessonFileName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		order, err := strconv.Atoi(m[2])
		if err != nil || order < 1 {
			return nil, fmt.Errorf("%s: lesson order must be a positive number", e.Name())
		}
		course := courseTitle(m[1])
		files = append(files, lessonFile{
			Path:        filepath.Join(dir, e.Name()),
			CourseSlug:  m[1],
			CourseTitle: course,
			Order:       order,
			Title:       fmt.Sprintf("%s - Lesson %d", course, order),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].CourseSlug != files[j].CourseSlug {
			return files[i].CourseSlug < files[j].CourseSlug
		}
		return files[i].Order < files[j].Order
	})
	return files, nil
}

// courseTitle turns "intro-to-go" into "Intro To Go".
func courseTitle(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// readMaterials parses a title,type,url[,size] CSV, skipping the header.
func readMaterials(path string) ([]models.Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseMaterials(f)
}

func parseMaterials(r io.Reader) ([]models.Material, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	materials := make([]models.Material, 0)
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return materials, nil
		}
		return nil, err
	}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: want title,type,url", line)
		}
		m := models.Material{
			ID:    uuid.NewString(),
			Title: strings.TrimSpace(record[0]),
			Type:  models.MaterialType(strings.ToLower(strings.TrimSpace(record[1]))),
			URL:   strings.TrimSpace(record[2]),
		}
		if len(record) > 3 {
			m.Size = strings.TrimSpace(record[3])
		}
		if err := models.Validate(m); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		materials = append(materials, m)
	}
	return materials, nil
}

func getOrInsertCourse(ctx context.Context, tx *sql.Tx, title string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, "SELECT id FROM courses WHERE title = $1 ORDER BY created_at LIMIT 1", title).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx,
			"INSERT INTO courses (title, level, instructor) VALUES ($1, 'beginner', 'catalog-loader') RETURNING id",
			title).Scan(&id)
	}
	if err != nil {
		return "", fmt.Errorf("course %q: %w", title, err)
	}
	return id, nil
}

// upsertLesson keeps the lesson's id on re-runs and replaces its materials.
func upsertLesson(ctx context.Context, tx *sql.Tx, courseID string, lf lessonFile, materials []models.Material) (string, error) {
	raw, err := json.Marshal(materials)
	if err != nil {
		return "", err
	}
	var id string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO lessons (course_id, title, order_num, materials, type)
		VALUES ($1, $2, $3, $4, 'reading')
		ON CONFLICT (course_id, order_num)
		DO UPDATE SET materials = EXCLUDED.materials
		RETURNING id`,
		courseID, lf.Title, lf.Order, string(raw)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("lesson %d of %s: %w", lf.Order, lf.CourseTitle, err)
	}
	return id, nil
}
