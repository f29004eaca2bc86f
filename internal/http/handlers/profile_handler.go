// Profile HTTP handlers.
//
// This file exposes the learner's own profile:
//   - GET  /profile            (read)
//   - PUT  /profile            (onboarding form, create or replace)
//   - POST /profile/sessions   (engagement tracker)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lesson-tutor/internal/domain"
	"github.com/tbourn/go-lesson-tutor/internal/http/middleware"
)

// ProfileRequest is the JSON payload of PUT /profile.
type ProfileRequest struct {
	FirstName       string   `json:"firstName" example:"Ana"`
	LastName        string   `json:"lastName" example:"Kovac"`
	Email           string   `json:"email" example:"ana@example.com"`
	CurrentRole     string   `json:"currentRole" example:"Account manager"`
	ExperienceLevel string   `json:"experienceLevel" example:"intermediate"`
	Industry        string   `json:"industry" example:"SaaS"`
	PrimaryGoals    []string `json:"primaryGoals" example:"close larger deals"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Get the learner's profile
// @Tags        Profile
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (development header)"  example(user123)
// @Success     200  {object}  domain.UserProfile
// @Failure     404  {object}  handlers.ErrorResponse  "Profile not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		serviceError(c, err, "")
		return
	}
	ok(c, http.StatusOK, p)
}

// PutProfile godoc
// @ID          putProfile
// @Summary     Create or replace the learner's profile
// @Description Stores the onboarding answers used to personalize the tutor. The session counter is not writable here.
// @Tags        Profile
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (development header)"  example(user123)
// @Param       body       body    handlers.ProfileRequest  true  "Profile fields"
// @Success     200  {object}  domain.UserProfile
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid profile"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile [put]
func (h *Handlers) PutProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.profiles.Upsert(c.Request.Context(), &domain.UserProfile{
		UserID:          middleware.UserID(c),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		CurrentRole:     req.CurrentRole,
		ExperienceLevel: req.ExperienceLevel,
		Industry:        req.Industry,
		PrimaryGoals:    req.PrimaryGoals,
	})
	if err != nil {
		serviceError(c, err, "")
		return
	}
	ok(c, http.StatusOK, p)
}

// RecordSession godoc
// @ID          recordSession
// @Summary     Count a learning session
// @Description Increments the learner's session counter and returns the profile.
// @Tags        Profile
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (development header)"  example(user123)
// @Success     200  {object}  domain.UserProfile
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile/sessions [post]
func (h *Handlers) RecordSession(c *gin.Context) {
	p, err := h.profiles.RecordSession(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		serviceError(c, err, "")
		return
	}
	ok(c, http.StatusOK, p)
}
