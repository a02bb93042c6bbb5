package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalContextKey = "rigrent.principal"

// Dev headers are honoured only when no signing secret is configured.
const (
	devUserHeader  = "X-User-ID"
	devEmailHeader = "X-User-Email"
)

var errTokenSubject = errors.New("token has no subject")

type principal struct {
	ID    string
	Email string
	Roles []string
}

// Claims is the bearer token payload issued by the identity provider.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuth resolves the caller from an HS256 bearer token. Requests without a
// token continue anonymously; a bad token is rejected.
type JWTAuth struct {
	Secret []byte
	Logger *slog.Logger
}

func (m JWTAuth) Handle(c *gin.Context) {
	if len(m.Secret) == 0 {
		if id := strings.TrimSpace(c.GetHeader(devUserHeader)); id != "" {
			setPrincipal(c, principal{ID: id, Email: strings.TrimSpace(c.GetHeader(devEmailHeader))})
		}
		c.Next()
		return
	}
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.Next()
		return
	}
	p, err := m.verify(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "reason": reasonUnauthenticated})
		return
	}
	setPrincipal(c, p)
	c.Next()
}

func (m JWTAuth) verify(raw string) (principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return principal{}, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return principal{}, errTokenSubject
	}
	return principal{ID: claims.Subject, Email: claims.Email, Roles: claims.Roles}, nil
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requireUser(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "reason": reasonUnauthenticated})
		return principal{}, false
	}
	return p, true
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
