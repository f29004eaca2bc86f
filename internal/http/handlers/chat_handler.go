// Chat HTTP handlers.
//
// This file exposes the tutoring conversation endpoints:
//   - POST /chat            (submit a learner message, wait for the reply)
//   - GET  /chat/messages   (paginated history of one conversation, ETag)
//
// Idempotency:
// If the client supplies an Idempotency-Key and a successful response was
// already stored for (user, route, key), the stored body is returned with
// `Idempotency-Replayed: true` and no assistant run is started.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/http/middleware"
	"github.com/tbourn/go-lesson-tutor/internal/services"
	"github.com/tbourn/go-lesson-tutor/internal/utils"
)

const jsonContentType = "application/json; charset=utf-8"

//
// DTOs
//

// ChatRequest is the JSON payload of POST /chat.
type ChatRequest struct {
	Message string `json:"message" example:"Anchoring means making the first offer to frame the range."`
	// ThreadID continues an existing conversation.
	ThreadID string `json:"threadId,omitempty" example:"thread_abc123"`
	// AssistantID overrides the assistant configured for the lesson or course.
	AssistantID string `json:"assistantId,omitempty" example:"asst_abc123"`
	// LessonID is required for recitation chats and absent for course-level Q&A.
	LessonID string `json:"lessonId,omitempty" example:"lesson_2"`
	CourseID string `json:"courseId" example:"course_1"`
	// UserID must match the authenticated learner when a token is present.
	UserID   string `json:"userId,omitempty" example:"user123"`
	ChatType string `json:"chatType" enums:"recitation,qna,general" example:"recitation"`
}

// ChatResponse is the success body of POST /chat. UnlockCode is null when
// the reply unlocked nothing.
type ChatResponse struct {
	Success      bool    `json:"success" example:"true"`
	Response     string  `json:"response"`
	ThreadID     string  `json:"threadId" example:"thread_abc123"`
	RunID        string  `json:"runId" example:"run_abc123"`
	UnlockCode   *string `json:"unlockCode" example:"LESSON_UNLOCKED_lesson_3"`
	NextLessonID string  `json:"nextLessonId,omitempty" example:"lesson_3"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListMessagesResponse is one page of a conversation. ThreadID is empty
// when the conversation was never started.
type ListMessagesResponse struct {
	ThreadID   string               `json:"threadId"`
	Messages   []domain.ChatMessage `json:"messages"`
	Pagination Pagination           `json:"pagination"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes line endings, collapses blank-line runs and
// trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// chatUserID resolves the learner for a chat request. An authenticated
// subject wins and a body userId naming someone else is refused; otherwise
// the body userId is used, then the request's fallback identity.
func chatUserID(c *gin.Context, bodyUserID string) (string, bool) {
	bodyUserID = strings.TrimSpace(bodyUserID)
	if id, ok := middleware.AuthenticatedUserID(c); ok {
		return id, bodyUserID == "" || bodyUserID == id
	}
	if bodyUserID != "" {
		return bodyUserID, true
	}
	return middleware.UserID(c), true
}

func pagination(p utils.Page, total int64) Pagination {
	pages := p.TotalPages(total)
	return Pagination{
		Page:       p.Number,
		PageSize:   p.Size,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Number < pages,
	}
}

//
// Handlers
//

// PostChat godoc
// @ID          postChat
// @Summary     Send a message to the tutor
// @Description Sends the learner message to the assistant for the lesson or course and waits for the reply.
// @Description A recitation reply carrying an unlock code completes the lesson and unlocks the next one.
// @Description Supports idempotency via the Idempotency-Key header (same key, same result).
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       Authorization    header  string  false "Bearer token"
// @Param       X-User-ID        header  string  false "User ID (development header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ChatRequest  true  "Chat message"
//
// @Success     200  {object}  handlers.ChatResponse
// @Header      200  {string}  Idempotency-Replayed  "true when the stored response was returned"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid message or chat type"
// @Failure     403  {object}  handlers.ErrorResponse  "userId does not match the token"
// @Failure     404  {object}  handlers.ErrorResponse  "Course or lesson not found"
// @Failure     500  {object}  handlers.ErrorResponse  "No assistant configured"
// @Failure     502  {object}  handlers.ErrorResponse  "Assistant run failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Assistant service unavailable"
// @Failure     504  {object}  handlers.ErrorResponse  "Assistant run timed out"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	uid, allowed := chatUserID(c, req.UserID)
	if !allowed {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "userId does not match the authenticated user")
		return
	}

	idemKey, hasKey := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	if hasKey && h.idem != nil {
		rec, err := h.idem.Find(ctx, uid, scope, idemKey, time.Now().UTC())
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
		if rec != nil {
			c.Header("Idempotency-Replayed", "true")
			c.Data(rec.Status, jsonContentType, []byte(rec.Body))
			return
		}
	}

	res, err := h.tutor.Submit(ctx, services.SubmitInput{
		UserID:           uid,
		CourseID:         req.CourseID,
		LessonID:         req.LessonID,
		ChatType:         req.ChatType,
		Message:          sanitizeContent(req.Message),
		ExistingThreadID: strings.TrimSpace(req.ThreadID),
		AssistantID:      strings.TrimSpace(req.AssistantID),
	})
	if err != nil {
		var threadID string
		if res != nil {
			threadID = res.ThreadID
		}
		serviceError(c, err, threadID)
		return
	}

	body, err := json.Marshal(ChatResponse{
		Success:      true,
		Response:     res.Response,
		ThreadID:     res.ThreadID,
		RunID:        res.RunID,
		UnlockCode:   res.UnlockCode,
		NextLessonID: res.NextLessonID,
	})
	if err != nil {
		serviceError(c, err, res.ThreadID)
		return
	}

	// Best effort: a lost record only means a retry runs again.
	if hasKey && h.idem != nil {
		if err := h.idem.Save(ctx, uid, scope, idemKey, http.StatusOK, body); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency store failed")
		}
	}
	c.Data(http.StatusOK, jsonContentType, body)
}

// ListChatMessages godoc
// @ID          listChatMessages
// @Summary     List a conversation's messages
// @Description Returns a page of the persisted turns for (learner, course, lesson, chat type), oldest first.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chat
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (development header)"  example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       courseId       query   string  true  "Course ID"  example(course_1)
// @Param       lessonId       query   string  false "Lesson ID"  example(lesson_2)
// @Param       chatType       query   string  true  "Chat type"  Enums(recitation, qna, general)
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListMessagesResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /chat/messages [get]
func (h *Handlers) ListChatMessages(c *gin.Context) {
	page := utils.ParsePage(c.Query("page"), c.Query("page_size"))

	hp, err := h.tutor.History(c.Request.Context(), middleware.UserID(c),
		c.Query("courseId"), c.Query("lessonId"), c.Query("chatType"), page)
	if err != nil {
		serviceError(c, err, "")
		return
	}

	etag := fmt.Sprintf(`W/"messages:%s:%d:%d:%d:%d"`, hp.ThreadID, hp.Total, hp.LastID, hp.Page.Number, hp.Page.Size)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	ok(c, http.StatusOK, ListMessagesResponse{
		ThreadID:   hp.ThreadID,
		Messages:   hp.Messages,
		Pagination: pagination(hp.Page, hp.Total),
	})
}
