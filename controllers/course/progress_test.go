package courseController

import (
	"testing"
	"time"

	"lms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Lesson{}, &models.LessonProgress{}, &models.Enrollment{}))
	return db
}

func seedLessons(t *testing.T, db *gorm.DB, courseID uint, count int) []models.Lesson {
	t.Helper()
	lessons := make([]models.Lesson, 0, count)
	for i := 0; i < count; i++ {
		lesson := models.Lesson{CourseID: courseID, ModuleID: 1, Title: "Lesson", ContentType: "VIDEO", OrderIndex: i, IsPublished: true}
		require.NoError(t, db.Create(&lesson).Error)
		lessons = append(lessons, lesson)
	}
	return lessons
}

func completeLesson(t *testing.T, db *gorm.DB, userID, courseID, lessonID uint) {
	t.Helper()
	now := time.Now()
	progress := models.LessonProgress{UserID: userID, LessonID: lessonID, CourseID: courseID, Completed: true, CompletedAt: &now}
	require.NoError(t, db.Create(&progress).Error)
}

func TestRecomputeEnrollmentProgress(t *testing.T) {
	db := openTestDB(t)
	lessons := seedLessons(t, db, 1, 4)

	enrollment := models.Enrollment{UserID: 7, CourseID: 1, Status: models.EnrollmentStatusActive, EnrolledAt: time.Now()}
	require.NoError(t, db.Create(&enrollment).Error)

	completeLesson(t, db, 7, 1, lessons[0].ID)
	updated, err := recomputeEnrollmentProgress(db, &enrollment)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.TotalLessons)
	assert.Equal(t, 1, updated.CompletedLessons)
	assert.InDelta(t, 25.0, updated.Progress, 0.01)
	assert.Nil(t, updated.CompletedAt)

	for _, lesson := range lessons[1:] {
		completeLesson(t, db, 7, 1, lesson.ID)
	}
	updated, err = recomputeEnrollmentProgress(db, &enrollment)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.CompletedLessons)
	assert.InDelta(t, 100.0, updated.Progress, 0.01)
	require.NotNil(t, updated.CompletedAt)

	// Recomputing after completion keeps the original completion time
	firstCompletedAt := *updated.CompletedAt
	updated, err = recomputeEnrollmentProgress(db, &enrollment)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.True(t, updated.CompletedAt.Equal(firstCompletedAt))
}

func TestRecomputeIgnoresUnpublishedLessons(t *testing.T) {
	db := openTestDB(t)
	lessons := seedLessons(t, db, 1, 2)

	hidden := models.Lesson{CourseID: 1, ModuleID: 1, Title: "Draft", ContentType: "TEXT", IsPublished: false}
	require.NoError(t, db.Create(&hidden).Error)

	enrollment := models.Enrollment{UserID: 7, CourseID: 1, Status: models.EnrollmentStatusActive, EnrolledAt: time.Now()}
	require.NoError(t, db.Create(&enrollment).Error)

	completeLesson(t, db, 7, 1, lessons[0].ID)
	completeLesson(t, db, 7, 1, lessons[1].ID)

	updated, err := recomputeEnrollmentProgress(db, &enrollment)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalLessons)
	require.NotNil(t, updated.CompletedAt)
}
