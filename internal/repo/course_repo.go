// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the course
// tree (Course, Module, Lesson).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
)

// GetCourseTree loads a course with its modules and lessons assembled in
// display order (position ASC, id ASC), or ErrNotFound.
func GetCourseTree(ctx context.Context, db *gorm.DB, courseID string) (*domain.Course, error) {
	db = db.WithContext(ctx)

	var c domain.Course
	if err := db.Where("id = ?", courseID).First(&c).Error; err != nil {
		return nil, err
	}

	var modules []domain.Module
	if err := db.Where("course_id = ?", courseID).Order("position ASC, id ASC").Find(&modules).Error; err != nil {
		return nil, err
	}
	var lessons []domain.Lesson
	if err := db.Where("course_id = ?", courseID).Order("position ASC, id ASC").Find(&lessons).Error; err != nil {
		return nil, err
	}

	byModule := make(map[string][]domain.Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}
	for i := range modules {
		modules[i].Lessons = byModule[modules[i].ID]
	}
	c.Modules = modules
	return &c, nil
}

// ListCourses returns course headers (without the tree) ordered by id.
func ListCourses(ctx context.Context, db *gorm.DB) ([]domain.Course, error) {
	var out []domain.Course
	err := db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

// UpsertCourseTree writes a course and its whole tree in one transaction,
// overwriting existing rows with the same keys.
func UpsertCourseTree(ctx context.Context, db *gorm.DB, c *domain.Course) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "qna_assistant_id", "general_assistant_id", "updated_at"}),
		}).Create(c).Error; err != nil {
			return err
		}
		for mi := range c.Modules {
			m := c.Modules[mi]
			m.CourseID = c.ID
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "course_id"}, {Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "position"}),
			}).Create(&m).Error; err != nil {
				return err
			}
			for li := range m.Lessons {
				l := m.Lessons[li]
				l.CourseID = c.ID
				l.ModuleID = m.ID
				if err := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "course_id"}, {Name: "id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"module_id", "position", "title", "video_url", "content",
						"recitation_assistant_id", "qna_assistant_id", "instructions_template",
					}),
				}).Create(&l).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
