package middleware

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Validator validates a bearer token and returns the authenticated
// user's ID. The token is minted by the external identity provider;
// this service only verifies it.
type Validator interface {
	Validate(token string) (string, error)
}

// JWTValidator validates HS256 tokens signed with a shared secret.
type JWTValidator struct {
	secret []byte
}

func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// Validate parses and verifies the token, returning the subject claim.
func (v *JWTValidator) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token missing subject claim")
	}
	return sub, nil
}

// AuthMiddleware extracts the Bearer token, validates it, and stores
// the user ID in the request context.
func AuthMiddleware(validator Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger()

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			_ = c.Error(apperrors.Unauthorized("missing_auth", "Authorization required"))
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := validator.Validate(token)
		if err != nil {
			log.Warnw("Invalid bearer token",
				"error", err,
				"path", c.Request.URL.Path,
				"token", logger.MaskJWT(token),
			)

			message := "Invalid authentication token"
			if strings.Contains(err.Error(), "expired") {
				message = "Your session has expired"
			}
			_ = c.Error(apperrors.Unauthorized("invalid_token", message))
			c.Abort()
			return
		}

		c.Set(string(UserIDKey), userID)
		c.Next()
	}
}

// GetUserID returns the authenticated user's ID from the gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(string(UserIDKey))
}
