package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/app/middleware"
	"github.com/vibast-solutions/ms-go-commerce/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

func (c *UserController) ProcessRegister(ctx echo.Context) error {
	req, err := dto.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	imagePath, _ := ctx.Get(middleware.ImagePathKey).(string)

	logrus.WithField("email", req.Email).Info("Register request received")
	token, err := c.userService.ProcessRegister(ctx.Request().Context(), req, imagePath)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			logrus.WithField("email", req.Email).Warn("Register failed: email already registered")
			return errorResponse(ctx, http.StatusConflict, "user with this email already exists, please login")
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithField("email", req.Email).Info("Activation token issued")
	return successResponse(ctx, http.StatusOK,
		fmt.Sprintf("please go to your %s to complete the registration process", req.Email), token)
}

func (c *UserController) Activate(ctx echo.Context) error {
	req, err := dto.NewActivateRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind activate request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Activate validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	logrus.Info("Activation request received")
	user, err := c.userService.Activate(ctx.Request().Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			logrus.Warn("Activation failed: token expired")
			return errorResponse(ctx, http.StatusUnauthorized, "token has expired")
		case errors.Is(err, service.ErrInvalidToken):
			logrus.Warn("Activation failed: invalid token")
			return errorResponse(ctx, http.StatusUnauthorized, "invalid token")
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			logrus.Warn("Activation failed: email already registered")
			return errorResponse(ctx, http.StatusConflict, "user with this email already exists, please login")
		}
		logrus.WithError(err).Error("Activation failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID.Hex(),
		"email":   user.Email,
	}).Info("User activated")
	return successResponse(ctx, http.StatusCreated, "user was registered successfully", user)
}

func (c *UserController) GetUsers(ctx echo.Context) error {
	search := ctx.QueryParam("search")
	page, _ := strconv.ParseInt(ctx.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.QueryParam("limit"), 10, 64)

	users, pagination, err := c.userService.GetUsers(ctx.Request().Context(), search, page, limit)
	if err != nil {
		if errors.Is(err, service.ErrNoUsersFound) {
			return errorResponse(ctx, http.StatusNotFound, "no users found")
		}
		logrus.WithError(err).Error("Get users failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	return successResponse(ctx, http.StatusAccepted, "users were returned successfully", echo.Map{
		"users":      users,
		"pagination": pagination,
	})
}

func (c *UserController) GetUser(ctx echo.Context) error {
	user, err := c.userService.GetUser(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "user not found")
		}
		logrus.WithError(err).WithField("user_id", ctx.Param("id")).Error("Get user failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	return successResponse(ctx, http.StatusAccepted, "user was returned successfully", echo.Map{"user": user})
}

func (c *UserController) UpdateUser(ctx echo.Context) error {
	req, err := dto.NewUpdateUserRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update user request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Update user validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	imagePath, _ := ctx.Get(middleware.ImagePathKey).(string)

	user, err := c.userService.UpdateUser(ctx.Request().Context(), ctx.Param("id"), req, imagePath)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailImmutable):
			return errorResponse(ctx, http.StatusBadRequest, "email can not be updated")
		case errors.Is(err, service.ErrUserNotFound):
			return errorResponse(ctx, http.StatusNotFound, "user not found")
		}
		logrus.WithError(err).WithField("user_id", ctx.Param("id")).Error("Update user failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithField("user_id", user.ID.Hex()).Info("User updated")
	return successResponse(ctx, http.StatusAccepted, "user was updated successfully", echo.Map{"updatedUser": user})
}

func (c *UserController) DeleteUser(ctx echo.Context) error {
	err := c.userService.DeleteUser(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "user not found")
		}
		logrus.WithError(err).WithField("user_id", ctx.Param("id")).Error("Delete user failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithField("user_id", ctx.Param("id")).Info("User deleted")
	return successResponse(ctx, http.StatusAccepted, "user was deleted successfully", nil)
}

func (c *UserController) ManageUser(ctx echo.Context) error {
	req, err := dto.NewManageUserRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind manage user request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Manage user validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	user, message, err := c.userService.ManageUser(ctx.Request().Context(), ctx.Param("id"), req.Action)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAction):
			logrus.WithField("action", req.Action).Warn("Manage user failed: invalid action")
			return errorResponse(ctx, http.StatusBadRequest, "invalid action, please use ban or unban")
		case errors.Is(err, service.ErrUserNotFound):
			return errorResponse(ctx, http.StatusNotFound, "user not found")
		}
		logrus.WithError(err).WithField("user_id", ctx.Param("id")).Error("Manage user failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID.Hex(),
		"action":  req.Action,
	}).Info("User status changed")
	return successResponse(ctx, http.StatusAccepted, message, user)
}

func (c *UserController) UpdatePassword(ctx echo.Context) error {
	req, err := dto.NewUpdatePasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update password request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Update password validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	user, err := c.userService.UpdatePassword(ctx.Request().Context(), ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConfirmationMismatch):
			return errorResponse(ctx, http.StatusBadRequest, "new password and confirmation do not match")
		case errors.Is(err, service.ErrPasswordMismatch):
			return errorResponse(ctx, http.StatusBadRequest, "old password is incorrect")
		case errors.Is(err, service.ErrUserNotFound):
			return errorResponse(ctx, http.StatusNotFound, "user not found")
		}
		logrus.WithError(err).WithField("user_id", ctx.Param("id")).Error("Update password failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithField("user_id", user.ID.Hex()).Info("Password updated")
	return successResponse(ctx, http.StatusAccepted, "password was updated successfully", echo.Map{"updatedUser": user})
}

func (c *UserController) ForgetPassword(ctx echo.Context) error {
	req, err := dto.NewForgetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind forget password request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Forget password validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	token, err := c.userService.ForgetPassword(ctx.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrEmailNotFound) {
			logrus.WithField("email", req.Email).Warn("Password reset requested for unknown email")
			return errorResponse(ctx, http.StatusNotFound, "no account registered with this email")
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Forget password failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	return successResponse(ctx, http.StatusOK,
		fmt.Sprintf("please go to your %s to reset the password", req.Email), token)
}

func (c *UserController) ResetPassword(ctx echo.Context) error {
	req, err := dto.NewResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Reset password validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	logrus.Info("Reset password request received")
	if err = c.userService.ResetPassword(ctx.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			logrus.Warn("Reset password failed: token expired")
			return errorResponse(ctx, http.StatusUnauthorized, "token has expired")
		case errors.Is(err, service.ErrInvalidToken):
			logrus.Warn("Reset password failed: invalid token")
			return errorResponse(ctx, http.StatusUnauthorized, "invalid token")
		case errors.Is(err, service.ErrUserNotFound):
			return errorResponse(ctx, http.StatusNotFound, "user not found")
		}
		logrus.WithError(err).Error("Reset password failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.Info("Password reset successful")
	return successResponse(ctx, http.StatusAccepted, "password reset successfully", nil)
}
