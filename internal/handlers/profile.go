package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/authcore/internal/middleware"
	"github.com/charlesng35/authcore/internal/services"
	"github.com/charlesng35/authcore/pkg/response"
)

// ProfileHandler exposes the signed-in account's profile.
type ProfileHandler struct {
	profiles *services.ProfileService
}

// NewProfileHandler configures a profile handler.
func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	account, err := h.profiles.Get(requestContext(c), middleware.CurrentRequest(c).Account.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": account})
}

// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var body services.ProfileUpdate
	if !bindJSON(c, &body) {
		return
	}

	account, err := h.profiles.Update(requestContext(c), middleware.CurrentRequest(c).Account.ID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": account})
}
