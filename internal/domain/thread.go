package domain

import (
	"strings"
	"time"
)

// ChatType is the closed set of conversation kinds a learner can open.
type ChatType string

const (
	ChatTypeRecitation ChatType = "recitation"
	ChatTypeQna        ChatType = "qna"
	ChatTypeGeneral    ChatType = "general"
)

// ParseChatType normalizes s and reports whether it names a known chat type.
func ParseChatType(s string) (ChatType, bool) {
	switch ct := ChatType(strings.ToLower(strings.TrimSpace(s))); ct {
	case ChatTypeRecitation, ChatTypeQna, ChatTypeGeneral:
		return ct, true
	default:
		return "", false
	}
}

// LessonThread maps a (user, course, lesson, chat type) tuple to the external
// assistant thread that carries the conversation. LessonID is empty for
// course-level chats. The unique index enforces one thread per tuple.
type LessonThread struct {
	ID                string    `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID            string    `json:"userId"            gorm:"type:varchar(64);not null;uniqueIndex:ux_lesson_thread,priority:1"`
	CourseID          string    `json:"courseId"          gorm:"type:varchar(64);not null;uniqueIndex:ux_lesson_thread,priority:2"`
	LessonID          string    `json:"lessonId"          gorm:"type:varchar(64);not null;uniqueIndex:ux_lesson_thread,priority:3"`
	ChatType          ChatType  `json:"chatType"          gorm:"type:varchar(16);not null;uniqueIndex:ux_lesson_thread,priority:4"`
	AssistantThreadID string    `json:"assistantThreadId" gorm:"type:varchar(128);not null"`
	CreatedAt         time.Time `json:"createdAt"`
}

// TableName returns the database table name for LessonThread.
func (LessonThread) TableName() string { return "lesson_threads" }

// Message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
	SenderSystem    = "system"
)

// ChatMessage is one persisted turn of a thread's history. The
// auto-increment id preserves send order.
type ChatMessage struct {
	ID        uint64    `json:"id"        gorm:"primaryKey;autoIncrement"`
	ThreadID  string    `json:"threadId"  gorm:"type:char(36);not null;index:idx_thread_msgs"`
	Sender    string    `json:"sender"    gorm:"type:varchar(16);not null;check:sender IN ('user','assistant','system')"`
	Text      string    `json:"text"      gorm:"type:text;not null"`
	RunID     string    `json:"runId,omitempty" gorm:"type:varchar(128)"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`

	Thread LessonThread `json:"-" gorm:"foreignKey:ThreadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }
