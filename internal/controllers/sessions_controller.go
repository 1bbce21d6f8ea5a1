package controllers

import (
	"net/http"

	"github.com/poofware/listings-service/internal/dtos"
	"github.com/poofware/listings-service/internal/middleware"
	"github.com/poofware/listings-service/internal/utils"
)

// SessionsController lets whoever owns user roles evict a cached session, so
// a role change takes effect on the user's next request instead of after
// SessionTTL.
type SessionsController struct {
	store middleware.SessionStore
}

func NewSessionsController(store middleware.SessionStore) *SessionsController {
	return &SessionsController{store: store}
}

// DELETE /api/v1/sessions/{id} (Admin)
func (c *SessionsController) InvalidateSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	c.store.Invalidate(id)
	utils.Logger.WithField("user_id", id).Info("Cached session invalidated")
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "Session invalidated"})
}
