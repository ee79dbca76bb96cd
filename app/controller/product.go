package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/app/middleware"
	"github.com/vibast-solutions/ms-go-commerce/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

func (c *ProductController) CreateProduct(ctx echo.Context) error {
	req, err := dto.NewCreateProductRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind create product request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Create product validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	imagePath, _ := ctx.Get(middleware.ImagePathKey).(string)

	logrus.WithField("name", req.Name).Info("Create product request received")
	product, err := c.productService.CreateProduct(ctx.Request().Context(), req, imagePath)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductExists):
			logrus.WithField("name", req.Name).Warn("Create product failed: duplicate name")
			return errorResponse(ctx, http.StatusConflict, "product with the same name already exists")
		case errors.Is(err, service.ErrCategoryNotFound):
			return errorResponse(ctx, http.StatusNotFound, "category not found")
		}
		logrus.WithError(err).WithField("name", req.Name).Error("Create product failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithField("slug", product.Slug).Info("Product created")
	return successResponse(ctx, http.StatusCreated, "product was created successfully", product)
}

func (c *ProductController) GetProducts(ctx echo.Context) error {
	search := ctx.QueryParam("search")
	page, _ := strconv.ParseInt(ctx.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.QueryParam("limit"), 10, 64)

	products, pagination, err := c.productService.GetProducts(ctx.Request().Context(), search, page, limit)
	if err != nil {
		logrus.WithError(err).Error("Get products failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	return successResponse(ctx, http.StatusOK, "returned all the products", echo.Map{
		"products":   products,
		"pagination": pagination,
	})
}

func (c *ProductController) GetProduct(ctx echo.Context) error {
	product, err := c.productService.GetProduct(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "product not found")
		}
		logrus.WithError(err).WithField("slug", ctx.Param("slug")).Error("Get product failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	return successResponse(ctx, http.StatusOK, "returned single product", echo.Map{"product": product})
}

func (c *ProductController) UpdateProduct(ctx echo.Context) error {
	req, err := dto.NewUpdateProductRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update product request")
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Update product validation failed")
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	}

	imagePath, _ := ctx.Get(middleware.ImagePathKey).(string)

	product, err := c.productService.UpdateProduct(ctx.Request().Context(), ctx.Param("slug"), req, imagePath)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "product not found")
		}
		logrus.WithError(err).WithField("slug", ctx.Param("slug")).Error("Update product failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithField("slug", product.Slug).Info("Product updated")
	return successResponse(ctx, http.StatusAccepted, "product was updated successfully", echo.Map{"updatedProduct": product})
}

func (c *ProductController) DeleteProduct(ctx echo.Context) error {
	err := c.productService.DeleteProduct(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "product not found")
		}
		logrus.WithError(err).WithField("slug", ctx.Param("slug")).Error("Delete product failed")
		return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
	}

	logrus.WithField("slug", ctx.Param("slug")).Info("Product deleted")
	return successResponse(ctx, http.StatusOK, "product was deleted successfully", nil)
}
