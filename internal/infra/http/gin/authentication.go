package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"hotelbook/internal/app/middleware"
)

const actorContextKey = "hotelbook.actor"

var errTokenRole = errors.New("token role is not recognised")

var knownRoles = map[string]struct{}{
	"guest":   {},
	"manager": {},
	"admin":   {},
}

// Claims are issued by the account service; this service only verifies them.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies HS256 bearer tokens. Requests without a token pass
// through anonymously; route groups decide whether an actor is required.
type AuthMiddleware struct {
	Secret []byte
	Logger *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || len(m.Secret) == 0 {
		c.Next()
		return
	}
	actor, err := m.parse(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	setActor(c, actor)
	c.Next()
}

func (m AuthMiddleware) parse(raw string) (middleware.Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return middleware.Actor{}, err
	}
	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if _, ok := knownRoles[role]; !ok {
		return middleware.Actor{}, errTokenRole
	}
	if claims.Subject == "" {
		return middleware.Actor{}, jwt.ErrTokenInvalidSubject
	}
	return middleware.Actor{ID: claims.Subject, Role: role}, nil
}

func setActor(c *gin.Context, actor middleware.Actor) {
	c.Set(actorContextKey, actor)
	c.Set("actor_id", actor.ID)
	c.Request = c.Request.WithContext(middleware.ContextWithActor(c.Request.Context(), actor))
}

func currentActor(c *gin.Context) (middleware.Actor, bool) {
	val, exists := c.Get(actorContextKey)
	if !exists {
		return middleware.Actor{}, false
	}
	a, ok := val.(middleware.Actor)
	return a, ok
}

// RequireRole guards a route group.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := currentActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
			return
		}
		if role != "" && a.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
