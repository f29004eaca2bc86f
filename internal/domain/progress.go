package domain

import "time"

// Enrollment marks that a user has a progress record for a course.
type Enrollment struct {
	UserID     string    `json:"userId"     gorm:"type:varchar(64);primaryKey"`
	CourseID   string    `json:"courseId"   gorm:"type:varchar(64);primaryKey"`
	EnrolledAt time.Time `json:"enrolledAt" gorm:"not null"`
}

// TableName returns the database table name for Enrollment.
func (Enrollment) TableName() string { return "enrollments" }

// UnlockedLesson is one member of a progress record's unlocked set. Rows are
// only ever inserted; the composite key gives set semantics.
type UnlockedLesson struct {
	UserID     string    `gorm:"type:varchar(64);primaryKey"`
	CourseID   string    `gorm:"type:varchar(64);primaryKey"`
	LessonID   string    `gorm:"type:varchar(64);primaryKey"`
	Source     string    `gorm:"type:varchar(32);not null"`
	UnlockedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for UnlockedLesson.
func (UnlockedLesson) TableName() string { return "unlocked_lessons" }

// Unlock sources.
const (
	UnlockSourceEnrollment = "enrollment"
	UnlockSourceCompletion = "completion"
	UnlockSourceUnlockCode = "unlock_code"
)

// CompletedLesson is one member of a progress record's completed set.
type CompletedLesson struct {
	UserID      string    `gorm:"type:varchar(64);primaryKey"`
	CourseID    string    `gorm:"type:varchar(64);primaryKey"`
	LessonID    string    `gorm:"type:varchar(64);primaryKey"`
	UnlockCode  string    `gorm:"type:varchar(255)"`
	CompletedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for CompletedLesson.
func (CompletedLesson) TableName() string { return "completed_lessons" }

// Completion is the value stored for a completed lesson.
type Completion struct {
	CompletedAt time.Time `json:"completedAt"`
	UnlockCode  string    `json:"unlockCode,omitempty"`
}

// ProgressRecord is one user's unlock/completion state for one course, as
// read back from the unlocked and completed sets.
type ProgressRecord struct {
	UserID           string                `json:"userId"`
	CourseID         string                `json:"courseId"`
	Enrolled         bool                  `json:"enrolled"`
	UnlockedLessons  map[string]bool       `json:"unlockedLessons"`
	CompletedLessons map[string]Completion `json:"completedLessons"`
}

// IsUnlocked reports whether lessonID is in the unlocked set.
func (p *ProgressRecord) IsUnlocked(lessonID string) bool { return p.UnlockedLessons[lessonID] }

// IsCompleted reports whether lessonID is in the completed set.
func (p *ProgressRecord) IsCompleted(lessonID string) bool {
	_, ok := p.CompletedLessons[lessonID]
	return ok
}
