package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/sysutil"
)

// Default run instruction templates. Placeholders are replaced from the
// learner profile and the lesson being discussed.
const (
	coachTemplate = `You are a supportive recitation coach for the lesson "{{lessonTitle}}" in the course "{{courseTitle}}".
You are speaking with {{name}}, a {{experienceLevel}} {{role}} working in {{industry}}. Their goals: {{goals}}.
Ask {{firstName}} to explain the key ideas of the lesson in their own words, give specific feedback and follow-up questions, and relate examples to their role and industry.
Only when {{firstName}} has clearly demonstrated understanding of the lesson, end your reply with the exact line LESSON_UNLOCKED_{{lessonId}}. Never reveal or mention this code otherwise.`

	conciergeTemplate = `You are a friendly course concierge for "{{courseTitle}}".
You are helping {{name}}, a {{experienceLevel}} {{role}} working in {{industry}}. Their goals: {{goals}}.
Answer {{firstName}}'s questions clearly and concisely, connect answers to the course material and to their goals, and suggest which lesson to revisit when useful.`
)

const (
	unknownName  = "the learner"
	unknownField = "not specified"
)

// chatStrategy is the per-chat-type behavior of a submission.
type chatStrategy struct {
	template       string
	requiresLesson bool
	checksUnlock   bool
	// assistant returns candidate assistant ids, most specific first.
	assistant func(lesson *domain.Lesson, course *domain.Course) []string
}

var chatStrategies = map[domain.ChatType]chatStrategy{
	domain.ChatTypeRecitation: {
		template:       coachTemplate,
		requiresLesson: true,
		checksUnlock:   true,
		assistant: func(l *domain.Lesson, _ *domain.Course) []string {
			if l == nil {
				return nil
			}
			return []string{l.RecitationAssistantID}
		},
	},
	domain.ChatTypeQna: {
		template: conciergeTemplate,
		assistant: func(l *domain.Lesson, c *domain.Course) []string {
			var ids []string
			if l != nil {
				ids = append(ids, l.QnaAssistantID)
			}
			return append(ids, c.QnaAssistantID)
		},
	},
	domain.ChatTypeGeneral: {
		template: conciergeTemplate,
		assistant: func(_ *domain.Lesson, c *domain.Course) []string {
			return []string{c.GeneralAssistantID}
		},
	},
}

// resolveAssistant picks the assistant id for a submission: an explicit id
// from the request, then the chat type's lesson/course ids, then the
// configured default. Chats that can unlock lessons never take the
// request's id, since that assistant decides whether the marker appears.
func (st chatStrategy) resolveAssistant(explicit string, lesson *domain.Lesson, course *domain.Course, fallback string) (string, error) {
	if st.checksUnlock {
		explicit = ""
	}
	candidates := append([]string{explicit}, st.assistant(lesson, course)...)
	candidates = append(candidates, fallback)
	if id := sysutil.FirstNonEmpty(candidates...); id != "" {
		return id, nil
	}
	return "", ErrMissingAssistantConfiguration
}

// instructionsTemplate returns the lesson's own template for recitation
// chats when one is set, and the chat type's default otherwise.
func (st chatStrategy) instructionsTemplate(lesson *domain.Lesson) string {
	if st.checksUnlock && lesson != nil && strings.TrimSpace(lesson.InstructionsTemplate) != "" {
		return lesson.InstructionsTemplate
	}
	return st.template
}

// PersonalContext is the learner data substituted into instructions.
type PersonalContext struct {
	FirstName       string
	Name            string
	Role            string
	ExperienceLevel string
	Industry        string
	Goals           []string
}

// personalContextFrom builds a context from a profile. A nil profile yields
// neutral placeholders.
func personalContextFrom(p *domain.UserProfile) PersonalContext {
	if p == nil {
		return PersonalContext{}
	}
	first := displayName(p.FirstName)
	last := displayName(p.LastName)
	return PersonalContext{
		FirstName:       first,
		Name:            strings.TrimSpace(first + " " + last),
		Role:            strings.TrimSpace(p.CurrentRole),
		ExperienceLevel: strings.TrimSpace(p.ExperienceLevel),
		Industry:        strings.TrimSpace(p.Industry),
		Goals:           p.PrimaryGoals,
	}
}

// displayName title-cases names typed entirely in lower case and leaves
// deliberate casing ("McKenzie", "de Vries") alone.
func displayName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s != strings.ToLower(s) {
		return s
	}
	return cases.Title(language.Und).String(s)
}

// renderInstructions substitutes personalization and lesson placeholders
// into tmpl. Unknown placeholders are left as-is.
func renderInstructions(tmpl string, pc PersonalContext, course *domain.Course, lesson *domain.Lesson) string {
	var goals []string
	for _, g := range pc.Goals {
		if g = strings.TrimSpace(g); g != "" {
			goals = append(goals, g)
		}
	}

	lessonID, lessonTitle := "", ""
	if lesson != nil {
		lessonID, lessonTitle = lesson.ID, lesson.Title
	}

	r := strings.NewReplacer(
		"{{firstName}}", orDefault(pc.FirstName, unknownName),
		"{{name}}", orDefault(pc.Name, unknownName),
		"{{role}}", orDefault(pc.Role, "professional"),
		"{{experienceLevel}}", orDefault(pc.ExperienceLevel, unknownField),
		"{{industry}}", orDefault(pc.Industry, unknownField),
		"{{goals}}", orDefault(strings.Join(goals, "; "), unknownField),
		"{{courseTitle}}", course.Title,
		"{{lessonTitle}}", lessonTitle,
		"{{lessonId}}", lessonID,
	)
	return r.Replace(tmpl)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
