package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/app/middleware"
	"github.com/vibast-solutions/ms-go-commerce/app/service"
	"github.com/vibast-solutions/ms-go-commerce/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	userService service.UserService
	cfg         *config.Config
}

func NewAuthController(userService service.UserService, cfg *config.Config) *AuthController {
	return &AuthController{userService: userService, cfg: cfg}
}

func (c *AuthController) Login(ctx echo.Context) error {
	req, err := dto.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	user, token, err := c.userService.Login(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return errorResponse(ctx, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, service.ErrAccountBanned):
			logrus.WithField("email", req.Email).Warn("Login failed: account is banned")
			return errorResponse(ctx, http.StatusUnauthorized, "your account is banned, please contact an administrator")
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	ctx.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(c.cfg.SessionTokenTTL),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	logrus.WithField("email", req.Email).Info("Login successful")
	return successResponse(ctx, http.StatusOK, "user logged in successfully", echo.Map{"user": user})
}

func (c *AuthController) Logout(ctx echo.Context) error {
	ctx.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	logrus.Info("Logout successful")
	return successResponse(ctx, http.StatusOK, "user logged out successfully", nil)
}
