package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-pizzeria-management/notify"
)

// HandleWebSocket upgrades an authenticated request into an event listener.
// It returns when the listener disconnects.
func HandleWebSocket(hub *notify.Hub, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		if err := hub.ServeWS(c.Writer, c.Request, actor.ID); err != nil {
			// the upgrader has already written the failure response
			log.WithError(err).WithField("user_id", actor.ID).Warn("websocket upgrade failed")
		}
	}
}
