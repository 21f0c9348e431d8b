// Command catalog_loader bulk-loads course material lists from CSV files into
// the row API's Postgres database.
//
// Files are named <course-slug>_lesson_<n>.csv and hold one material per row
// under a title,type,url[,size] header. Courses are created on first sight;
// lessons are upserted by (course, order) so re-running replaces materials.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"swiss-hub/internal/config"
	"swiss-hub/internal/database"
	"swiss-hub/internal/logging"
)

const defaultDir = "scripts/catalog"

func main() {
	startTime := time.Now()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	dir := defaultDir
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	files, err := findLessonFiles(dir)
	if err != nil {
		logger.Fatal("catalog scan failed", zap.String("dir", dir), zap.Error(err))
	}
	logger.Info("catalog files found", zap.Int("files", len(files)))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		logger.Fatal("begin transaction", zap.Error(err))
	}
	defer tx.Rollback()

	loaded, err := load(ctx, tx, files, logger)
	if err != nil {
		logger.Fatal("load failed, rolling back", zap.Error(err))
	}
	if err := tx.Commit(); err != nil {
		logger.Fatal("commit failed", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.Int("materials", loaded), zap.Duration("took", time.Since(startTime)))
}

func load(ctx context.Context, tx *sql.Tx, files []lessonFile, logger *zap.Logger) (int, error) {
	courseIDs := make(map[string]string)
	total := 0
	for _, lf := range files {
		materials, err := readMaterials(lf.Path)
		if err != nil {
			return total, err
		}

		courseID, ok := courseIDs[lf.CourseSlug]
		if !ok {
			courseID, err = getOrInsertCourse(ctx, tx, lf.CourseTitle)
			if err != nil {
				return total, err
			}
			courseIDs[lf.CourseSlug] = courseID
		}
		lessonID, err := upsertLesson(ctx, tx, courseID, lf, materials)
		if err != nil {
			return total, err
		}
		logger.Debug("lesson loaded",
			zap.String("file", lf.Path),
			zap.String("lesson_id", lessonID),
			zap.Int("materials", len(materials)))
		total += len(materials)
	}
	return total, nil
}
