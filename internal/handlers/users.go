package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/authcore/internal/services"
	"github.com/charlesng35/authcore/pkg/response"
)

type UserHandler struct {
	profiles *services.ProfileService
}

type userListItem struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider"`
	EmailVerified bool      `json:"email_verified"`
	IsAdmin       bool      `json:"is_admin"`
	Avatar        string    `json:"avatar"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewUserHandler(profiles *services.ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	accounts, err := h.profiles.ListAccounts(requestContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]userListItem, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, userListItem{
			ID:            account.ID,
			Email:         account.Email,
			Name:          account.Name,
			Provider:      account.Provider,
			EmailVerified: account.EmailVerified,
			IsAdmin:       account.IsAdmin,
			Avatar:        account.Avatar,
			CreatedAt:     account.CreatedAt,
		})
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: len(items)})
}
