// Course HTTP handlers.
//
// This file exposes read access to the course tree and the learner's
// enrollment and progress:
//   - GET  /courses/{courseId}            (course tree, ordered)
//   - GET  /courses/{courseId}/overview   (tree + per-lesson status)
//   - POST /courses/{courseId}/enroll     (idempotent enrollment)
//   - GET  /courses/{courseId}/progress   (unlocked and completed sets)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lesson-tutor/internal/http/middleware"
)

func courseParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("courseId"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "courseId is required")
		return "", false
	}
	return id, true
}

// GetCourse godoc
// @ID          getCourse
// @Summary     Get a course
// @Description Returns the course with its modules and lessons in display order.
// @Tags        Courses
// @Produce     json
// @Param       courseId  path  string  true  "Course ID"  example(course_1)
// @Success     200  {object}  domain.Course
// @Failure     404  {object}  handlers.ErrorResponse  "Course not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /courses/{courseId} [get]
func (h *Handlers) GetCourse(c *gin.Context) {
	id, valid := courseParam(c)
	if !valid {
		return
	}
	course, err := h.courses.GetCourse(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err, "")
		return
	}
	ok(c, http.StatusOK, course)
}

// GetCourseOverview godoc
// @ID          getCourseOverview
// @Summary     Get a course with the learner's progress
// @Description Returns the course tree, the learner's progress record, a status row per lesson and the lesson to work on next.
// @Tags        Courses
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (development header)"  example(user123)
// @Param       courseId   path    string  true  "Course ID"  example(course_1)
// @Success     200  {object}  services.CourseOverview
// @Failure     404  {object}  handlers.ErrorResponse  "Course not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /courses/{courseId}/overview [get]
func (h *Handlers) GetCourseOverview(c *gin.Context) {
	id, valid := courseParam(c)
	if !valid {
		return
	}
	ov, err := h.courses.Overview(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		serviceError(c, err, "")
		return
	}
	ok(c, http.StatusOK, ov)
}

// EnrollCourse godoc
// @ID          enrollCourse
// @Summary     Enroll in a course
// @Description Creates the learner's progress record and unlocks the first lesson. Enrolling twice is a no-op.
// @Tags        Courses
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (development header)"  example(user123)
// @Param       courseId   path    string  true  "Course ID"  example(course_1)
// @Success     200  {object}  domain.ProgressRecord
// @Failure     404  {object}  handlers.ErrorResponse  "Course not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /courses/{courseId}/enroll [post]
func (h *Handlers) EnrollCourse(c *gin.Context) {
	id, valid := courseParam(c)
	if !valid {
		return
	}
	rec, err := h.courses.Enroll(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		serviceError(c, err, "")
		return
	}
	ok(c, http.StatusOK, rec)
}

// GetProgress godoc
// @ID          getProgress
// @Summary     Get the learner's progress in a course
// @Tags        Courses
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (development header)"  example(user123)
// @Param       courseId   path    string  true  "Course ID"  example(course_1)
// @Success     200  {object}  domain.ProgressRecord
// @Failure     404  {object}  handlers.ErrorResponse  "Course not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /courses/{courseId}/progress [get]
func (h *Handlers) GetProgress(c *gin.Context) {
	id, valid := courseParam(c)
	if !valid {
		return
	}
	rec, err := h.courses.GetProgress(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		serviceError(c, err, "")
		return
	}
	ok(c, http.StatusOK, rec)
}
