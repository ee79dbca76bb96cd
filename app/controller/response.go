package controller

import (
	"github.com/vibast-solutions/ms-go-commerce/app/dto"

	"github.com/labstack/echo/v4"
)

func successResponse(ctx echo.Context, statusCode int, message string, payload interface{}) error {
	return ctx.JSON(statusCode, dto.SuccessResponse{
		StatusCode: statusCode,
		Message:    message,
		Payload:    payload,
	})
}

func errorResponse(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, dto.ErrorResponse{
		StatusCode: statusCode,
		Message:    message,
	})
}
