package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{categoryService: categoryService}
}

func (c *CategoryController) CreateCategory(ctx echo.Context) error {
	req, err := dto.NewCategoryRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind create category request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Create category validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	category, err := c.categoryService.CreateCategory(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrCategoryExists) {
			logrus.WithField("name", req.Name).Warn("Create category failed: duplicate name")
			return errorResponse(ctx, http.StatusConflict, "category with this name already exists")
		}
		logrus.WithError(err).WithField("name", req.Name).Error("Create category failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithField("slug", category.Slug).Info("Category created")
	return successResponse(ctx, http.StatusCreated, "category was created successfully", category)
}

func (c *CategoryController) GetCategories(ctx echo.Context) error {
	categories, err := c.categoryService.GetCategories(ctx.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("Get categories failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	return successResponse(ctx, http.StatusOK, "returned all the categories", echo.Map{"categories": categories})
}

func (c *CategoryController) GetCategory(ctx echo.Context) error {
	category, err := c.categoryService.GetCategory(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "category not found")
		}
		logrus.WithError(err).WithField("slug", ctx.Param("slug")).Error("Get category failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	return successResponse(ctx, http.StatusOK, "returned single category", echo.Map{"category": category})
}

func (c *CategoryController) UpdateCategory(ctx echo.Context) error {
	req, err := dto.NewCategoryRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update category request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Update category validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	category, err := c.categoryService.UpdateCategory(ctx.Request().Context(), ctx.Param("slug"), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			return errorResponse(ctx, http.StatusNotFound, "category not found")
		case errors.Is(err, service.ErrCategoryExists):
			return errorResponse(ctx, http.StatusConflict, "category with this name already exists")
		}
		logrus.WithError(err).WithField("slug", ctx.Param("slug")).Error("Update category failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithField("slug", category.Slug).Info("Category updated")
	return successResponse(ctx, http.StatusAccepted, "category was updated successfully", echo.Map{"updatedCategory": category})
}

func (c *CategoryController) DeleteCategory(ctx echo.Context) error {
	err := c.categoryService.DeleteCategory(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			return errorResponse(ctx, http.StatusNotFound, "category not found")
		case errors.Is(err, service.ErrCategoryInUse):
			return errorResponse(ctx, http.StatusConflict, "category still has products assigned")
		}
		logrus.WithError(err).WithField("slug", ctx.Param("slug")).Error("Delete category failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithField("slug", ctx.Param("slug")).Info("Category deleted")
	return successResponse(ctx, http.StatusOK, "category was deleted successfully", nil)
}
