package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/shared/apperror"
	"go-leave-assistant/internal/shared/contextutil"
	"go-leave-assistant/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMissing  = apperror.New(apperror.CodeUnauthorized, "Token not found", http.StatusUnauthorized)
	ErrInvalidToken  = apperror.New(apperror.CodeUnauthorized, "Invalid token", http.StatusUnauthorized)
	ErrTokenExpired  = apperror.New(apperror.CodeUnauthorized, "Token has expired", http.StatusUnauthorized)
	ErrInactiveActor = apperror.New(apperror.CodeUnauthorized, "Employee is not active", http.StatusUnauthorized)
)

// ActorLookup resolves the employee named by the token.
type ActorLookup interface {
	FindActiveByID(ctx context.Context, id string) (*actor.Actor, error)
}

// AuthMiddleware validates the bearer token and loads the acting employee.
// Role comes from the employee record, not from the token.
func AuthMiddleware(secret string, actors ActorLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}
		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			abortWith(c, ErrTokenMissing)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			errObj := ErrInvalidToken
			if err != nil && strings.Contains(err.Error(), "expired") {
				errObj = ErrTokenExpired
			}
			abortWith(c, errObj)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortWith(c, ErrInvalidToken)
			return
		}

		employeeID, _ := claims["employee_id"].(string)
		if employeeID == "" {
			employeeID, _ = claims["sub"].(string)
		}
		if employeeID == "" {
			abortWith(c, ErrInvalidToken.WithDetails("employee_id claim missing"))
			return
		}

		a, err := actors.FindActiveByID(c.Request.Context(), employeeID)
		if err != nil || a == nil {
			abortWith(c, ErrInactiveActor)
			return
		}

		c.Set("employee_id", a.ID.String())
		c.Set("role", string(a.Role))
		c.Set("actor", a)

		ctx := contextutil.WithEmployeeID(c.Request.Context(), a.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CurrentActor returns the actor loaded by AuthMiddleware.
func CurrentActor(c *gin.Context) (*actor.Actor, bool) {
	v, ok := c.Get("actor")
	if !ok {
		return nil, false
	}
	a, ok := v.(*actor.Actor)
	return a, ok && a != nil
}

func abortWith(c *gin.Context, err *apperror.AppError) {
	response.Error(c, err.HTTPStatus, err.Code, err.Message, err.Details)
	c.Abort()
}
