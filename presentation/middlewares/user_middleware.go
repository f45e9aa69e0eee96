package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/hilthontt/trio/infrastructure/security"
	"go.uber.org/zap"
)

const (
	UserContextKey = "user"
)

// UserMiddleware resolves the caller identity. Callers without one get a fresh
// guest id, returned in the user cookie.
func UserMiddleware(clock model.Clock, secureCookies bool, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := &model.User{
			ID:        security.GetUserID(c.Request),
			CreatedAt: clock.Now(),
		}

		if user.ID == "" {
			user.ID = uuid.NewString()
			user.IsGuest = true
			security.SetUserID(c.Writer, user.ID, secureCookies)
			logger.Debug("generated new user ID", zap.String("userID", user.ID))
		}

		c.Set(UserContextKey, user)

		c.Next()
	}
}

func GetUserFromContext(c *gin.Context) (*model.User, bool) {
	user, exists := c.Get(UserContextKey)
	if !exists {
		return nil, false
	}

	u, ok := user.(*model.User)
	return u, ok
}
