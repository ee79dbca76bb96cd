package middleware

import (
	"context"
	"net/http"

	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/app/entity"
	"github.com/vibast-solutions/ms-go-commerce/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// SessionCookieName is the cookie carrying the session credential.
const SessionCookieName = "access_token"

type sessionValidator interface {
	ValidateSessionToken(tokenString string) (*service.SessionClaims, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
}

type AuthMiddleware struct {
	userService sessionValidator
}

func NewAuthMiddleware(userService sessionValidator) *AuthMiddleware {
	return &AuthMiddleware{userService: userService}
}

// RequireAuth verifies the session cookie and re-reads the live account so a
// ban takes effect on the next request instead of at session expiry.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			logrus.Debug("Missing session cookie")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				StatusCode: http.StatusUnauthorized,
				Message:    "access token not found, please login",
			})
		}

		claims, err := m.userService.ValidateSessionToken(cookie.Value)
		if err != nil {
			logrus.Debug("Invalid or expired session token")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				StatusCode: http.StatusUnauthorized,
				Message:    "invalid or expired token, please login again",
			})
		}

		user, err := m.userService.GetUser(c.Request().Context(), claims.UserID)
		if err != nil {
			logrus.WithField("user_id", claims.UserID).Debug("Session account no longer exists")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				StatusCode: http.StatusUnauthorized,
				Message:    "invalid or expired token, please login again",
			})
		}
		if user.IsBanned {
			logrus.WithField("user_id", claims.UserID).Warn("Banned account presented a valid session")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				StatusCode: http.StatusUnauthorized,
				Message:    "account is banned",
			})
		}

		c.Set("user_id", user.ID.Hex())
		c.Set("is_admin", user.IsAdmin)

		return next(c)
	}
}

// RequireAdmin gates admin-only routes; it runs after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		isAdmin, _ := c.Get("is_admin").(bool)
		if !isAdmin {
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{
				StatusCode: http.StatusForbidden,
				Message:    "forbidden, you must be an admin to access this resource",
			})
		}
		return next(c)
	}
}

// RequireSelfOrAdmin restricts :id routes to the account owner or an admin;
// it runs after RequireAuth.
func (m *AuthMiddleware) RequireSelfOrAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		isAdmin, _ := c.Get("is_admin").(bool)
		userID, _ := c.Get("user_id").(string)
		if !isAdmin && userID != c.Param("id") {
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{
				StatusCode: http.StatusForbidden,
				Message:    "forbidden, you can only access your own account",
			})
		}
		return next(c)
	}
}

// RequireGuest rejects requests that already carry a valid session, mirroring
// the registration/login routes being closed to logged-in users.
func (m *AuthMiddleware) RequireGuest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}
		if _, err = m.userService.ValidateSessionToken(cookie.Value); err != nil {
			return next(c)
		}
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    "user is already logged in",
		})
	}
}
