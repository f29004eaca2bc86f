// Package catalog loads the course catalog seed file and writes it to the
// store at startup.
//
// File shape:
//
//	courses:
//	  - id: leadership-101
//	    title: Leadership Foundations
//	    qnaAssistantId: asst_qna
//	    modules:
//	      - id: m1
//	        order: 1
//	        lessons:
//	          - id: lesson_1
//	            order: 1
//	            title: Why lead?
//	            recitationAssistantId: asst_coach
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/repo"
)

type yamlCatalog struct {
	Courses []yamlCourse `yaml:"courses"`
}

type yamlCourse struct {
	ID                 string       `yaml:"id"`
	Title              string       `yaml:"title"`
	Description        string       `yaml:"description"`
	QnaAssistantID     string       `yaml:"qnaAssistantId"`
	GeneralAssistantID string       `yaml:"generalAssistantId"`
	Modules            []yamlModule `yaml:"modules"`
}

type yamlModule struct {
	ID      string       `yaml:"id"`
	Title   string       `yaml:"title"`
	Order   int          `yaml:"order"`
	Lessons []yamlLesson `yaml:"lessons"`
}

type yamlLesson struct {
	ID                    string `yaml:"id"`
	Order                 int    `yaml:"order"`
	Title                 string `yaml:"title"`
	VideoURL              string `yaml:"videoUrl"`
	Content               string `yaml:"content"`
	RecitationAssistantID string `yaml:"recitationAssistantId"`
	QnaAssistantID        string `yaml:"qnaAssistantId"`
	InstructionsTemplate  string `yaml:"instructionsTemplate"`
}

// Load reads and parses a catalog file.
func Load(path string) ([]domain.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes catalog YAML into course trees. A module or lesson without an
// explicit order takes its 1-based position in the file.
func Parse(data []byte) ([]domain.Course, error) {
	var spec yamlCatalog
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if err := validate(&spec); err != nil {
		return nil, err
	}

	out := make([]domain.Course, 0, len(spec.Courses))
	for _, yc := range spec.Courses {
		c := domain.Course{
			ID:                 strings.TrimSpace(yc.ID),
			Title:              yc.Title,
			Description:        yc.Description,
			QnaAssistantID:     yc.QnaAssistantID,
			GeneralAssistantID: yc.GeneralAssistantID,
		}
		for mi, ym := range yc.Modules {
			m := domain.Module{
				CourseID: c.ID,
				ID:       strings.TrimSpace(ym.ID),
				Title:    ym.Title,
				Order:    orDefault(ym.Order, mi+1),
			}
			for li, yl := range ym.Lessons {
				m.Lessons = append(m.Lessons, domain.Lesson{
					CourseID:              c.ID,
					ID:                    strings.TrimSpace(yl.ID),
					ModuleID:              m.ID,
					Order:                 orDefault(yl.Order, li+1),
					Title:                 yl.Title,
					VideoURL:              yl.VideoURL,
					Content:               yl.Content,
					RecitationAssistantID: yl.RecitationAssistantID,
					QnaAssistantID:        yl.QnaAssistantID,
					InstructionsTemplate:  yl.InstructionsTemplate,
				})
			}
			c.Modules = append(c.Modules, m)
		}
		out = append(out, c)
	}
	return out, nil
}

// Apply upserts every course tree.
func Apply(ctx context.Context, db *gorm.DB, courses []domain.Course) error {
	for i := range courses {
		if err := repo.UpsertCourseTree(ctx, db, &courses[i]); err != nil {
			return fmt.Errorf("seed course %q: %w", courses[i].ID, err)
		}
	}
	return nil
}

func validate(spec *yamlCatalog) error {
	courseIDs := map[string]bool{}
	for ci, c := range spec.Courses {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return fmt.Errorf("courses[%d]: id is required", ci)
		}
		if courseIDs[id] {
			return fmt.Errorf("courses[%d]: duplicate course id %q", ci, id)
		}
		courseIDs[id] = true
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("course %q: title is required", id)
		}

		moduleIDs := map[string]bool{}
		lessonIDs := map[string]bool{}
		for mi, m := range c.Modules {
			mid := strings.TrimSpace(m.ID)
			if mid == "" {
				return fmt.Errorf("course %q modules[%d]: id is required", id, mi)
			}
			if moduleIDs[mid] {
				return fmt.Errorf("course %q: duplicate module id %q", id, mid)
			}
			moduleIDs[mid] = true
			for li, l := range m.Lessons {
				lid := strings.TrimSpace(l.ID)
				if lid == "" {
					return fmt.Errorf("course %q module %q lessons[%d]: id is required", id, mid, li)
				}
				if lessonIDs[lid] {
					return fmt.Errorf("course %q: duplicate lesson id %q", id, lid)
				}
				lessonIDs[lid] = true
			}
		}
	}
	return nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
