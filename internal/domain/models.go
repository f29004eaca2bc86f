// Package domain defines the persistence models for learner profiles, the
// course tree, per-course progress, assistant conversation threads and
// their messages. These types are mapped with GORM and form the core data
// layer of the tutor backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// UserProfile holds a learner's identity and the personalization fields used
// when building assistant instructions.
type UserProfile struct {
	UserID          string                      `json:"id"              gorm:"type:varchar(64);primaryKey"`
	FirstName       string                      `json:"firstName"       gorm:"type:varchar(120)"`
	LastName        string                      `json:"lastName"        gorm:"type:varchar(120)"`
	Email           string                      `json:"email"           gorm:"type:varchar(255)"`
	CurrentRole     string                      `json:"currentRole"     gorm:"column:job_role;type:varchar(255)"`
	ExperienceLevel string                      `json:"experienceLevel" gorm:"type:varchar(64)"`
	Industry        string                      `json:"industry"        gorm:"type:varchar(255)"`
	PrimaryGoals    datatypes.JSONSlice[string] `json:"primaryGoals"`
	TotalSessions   int                         `json:"totalSessions"   gorm:"not null;default:0"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "user_profiles" }

// Course is the root of a curriculum tree. The assistant ids are course-level
// fallbacks used by Q&A and general chats.
type Course struct {
	ID                 string    `json:"id"          gorm:"type:varchar(64);primaryKey"`
	Title              string    `json:"title"       gorm:"type:varchar(255);not null"`
	Description        string    `json:"description" gorm:"type:text"`
	QnaAssistantID     string    `json:"qnaAssistantId,omitempty"     gorm:"type:varchar(128)"`
	GeneralAssistantID string    `json:"generalAssistantId,omitempty" gorm:"type:varchar(128)"`
	CreatedAt          time.Time `json:"-"`
	UpdatedAt          time.Time `json:"-"`

	// Modules is assembled by the repository in display order; it is not a
	// GORM association.
	Modules []Module `json:"modules" gorm:"-"`
}

// TableName returns the database table name for Course.
func (Course) TableName() string { return "courses" }

// Module is an ordered group of lessons within a course.
type Module struct {
	CourseID string `json:"-"     gorm:"type:varchar(64);primaryKey"`
	ID       string `json:"id"    gorm:"type:varchar(64);primaryKey"`
	Title    string `json:"title" gorm:"type:varchar(255)"`
	Order    int    `json:"order" gorm:"column:position;not null;default:0"`

	Lessons []Lesson `json:"lessons" gorm:"-"`
}

// TableName returns the database table name for Module.
func (Module) TableName() string { return "course_modules" }

// Lesson is the atomic content unit. InstructionsTemplate, when set, takes
// precedence over the global template for the chat type.
type Lesson struct {
	CourseID              string `json:"-"        gorm:"type:varchar(64);primaryKey"`
	ID                    string `json:"id"       gorm:"type:varchar(64);primaryKey"`
	ModuleID              string `json:"moduleId" gorm:"type:varchar(64);not null;index:idx_lesson_module"`
	Order                 int    `json:"order"    gorm:"column:position;not null;default:0"`
	Title                 string `json:"title"    gorm:"type:varchar(255)"`
	VideoURL              string `json:"videoUrl,omitempty" gorm:"type:varchar(1024)"`
	Content               string `json:"content,omitempty"  gorm:"type:text"`
	RecitationAssistantID string `json:"recitationAssistantId,omitempty" gorm:"type:varchar(128)"`
	QnaAssistantID        string `json:"qnaAssistantId,omitempty"        gorm:"type:varchar(128)"`
	InstructionsTemplate  string `json:"-"        gorm:"type:text"`
}

// TableName returns the database table name for Lesson.
func (Lesson) TableName() string { return "lessons" }

// OrderedLessons flattens the course tree into its stable total order:
// module order, then lesson order within the module. Modules and lessons are
// expected to be sorted already (the repository does this).
func (c *Course) OrderedLessons() []Lesson {
	var out []Lesson
	for _, m := range c.Modules {
		out = append(out, m.Lessons...)
	}
	return out
}

// FindLesson returns the lesson with the given id, or nil.
func (c *Course) FindLesson(lessonID string) *Lesson {
	for mi := range c.Modules {
		for li := range c.Modules[mi].Lessons {
			if c.Modules[mi].Lessons[li].ID == lessonID {
				return &c.Modules[mi].Lessons[li]
			}
		}
	}
	return nil
}

// NextLesson returns the lesson that follows lessonID in course order, or nil
// when lessonID is the last lesson or unknown.
func (c *Course) NextLesson(lessonID string) *Lesson {
	ordered := c.OrderedLessons()
	for i := range ordered {
		if ordered[i].ID == lessonID {
			if i+1 < len(ordered) {
				next := ordered[i+1]
				return &next
			}
			return nil
		}
	}
	return nil
}

// FirstLesson returns the first lesson in course order, or nil for an empty course.
func (c *Course) FirstLesson() *Lesson {
	ordered := c.OrderedLessons()
	if len(ordered) == 0 {
		return nil
	}
	first := ordered[0]
	return &first
}
