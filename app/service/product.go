package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/app/entity"
	"github.com/vibast-solutions/ms-go-commerce/config"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	ErrProductExists   = errors.New("product with the same name already exists")
	ErrProductNotFound = errors.New("product not found")
)

const productMediaFolder = "products"

type productRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	FindBySlug(ctx context.Context, slug string) (*entity.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CountByCategory(ctx context.Context, categoryID bson.ObjectID) (int64, error)
	Search(ctx context.Context, search string, skip, limit int64) ([]entity.Product, int64, error)
	UpdateBySlug(ctx context.Context, slug string, fields bson.M) (*entity.Product, error)
	DeleteBySlug(ctx context.Context, slug string) (*entity.Product, error)
}

type categoryFinder interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*entity.Category, error)
}

type ProductService interface {
	CreateProduct(ctx context.Context, req *dto.CreateProductRequest, imagePath string) (*entity.Product, error)
	GetProducts(ctx context.Context, search string, page, limit int64) ([]entity.Product, dto.Pagination, error)
	GetProduct(ctx context.Context, slug string) (*entity.Product, error)
	UpdateProduct(ctx context.Context, slug string, req *dto.UpdateProductRequest, imagePath string) (*entity.Product, error)
	DeleteProduct(ctx context.Context, slug string) error
}

type ProductServiceOption func(*productService)

type productService struct {
	productRepo  productRepository
	categoryRepo categoryFinder
	media        mediaStore
	cfg          *config.Config
	asyncRunner  AsyncRunner
}

func NewProductService(
	productRepo productRepository,
	categoryRepo categoryFinder,
	media mediaStore,
	cfg *config.Config,
	opts ...ProductServiceOption,
) ProductService {
	svc := &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		media:        media,
		cfg:          cfg,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithProductAsyncRunner(runner AsyncRunner) ProductServiceOption {
	return func(s *productService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest, imagePath string) (*entity.Product, error) {
	productSlug := slug.Make(req.Name)

	exists, err := s.productRepo.SlugExists(ctx, productSlug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrProductExists
	}

	// Categories exist before products reference them; the store gives no
	// cross-document guarantee, so this is a read-before-write check.
	categoryID, err := bson.ObjectIDFromHex(req.Category)
	if err != nil {
		return nil, ErrCategoryNotFound
	}
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	imageURL := ""
	if imagePath != "" {
		imageURL, err = s.media.Upload(ctx, imagePath, productMediaFolder)
		if err != nil {
			return nil, err
		}
		if removeErr := os.Remove(imagePath); removeErr != nil {
			logrus.WithError(removeErr).WithField("path", imagePath).Warn("Failed to remove staged image")
		}
	}

	now := time.Now()
	product := &entity.Product{
		Name:        req.Name,
		Slug:        productSlug,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Shipping:    req.Shipping,
		Image:       imageURL,
		CategoryID:  category.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = s.productRepo.Create(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrProductExists
		}
		return nil, err
	}

	product.Category = category
	return product, nil
}

func (s *productService) GetProducts(ctx context.Context, search string, page, limit int64) ([]entity.Product, dto.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 4
	}

	products, count, err := s.productRepo.Search(ctx, search, (page-1)*limit, limit)
	if err != nil {
		return nil, dto.Pagination{}, err
	}

	for i := range products {
		s.populateCategory(ctx, &products[i])
	}

	return products, dto.NewPagination(count, page, limit), nil
}

func (s *productService) GetProduct(ctx context.Context, productSlug string) (*entity.Product, error) {
	product, err := s.productRepo.FindBySlug(ctx, productSlug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	s.populateCategory(ctx, product)
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, productSlug string, req *dto.UpdateProductRequest, imagePath string) (*entity.Product, error) {
	fields := bson.M{}
	if req.Name != nil {
		fields["name"] = *req.Name
		fields["slug"] = slug.Make(*req.Name)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Quantity != nil {
		fields["quantity"] = *req.Quantity
	}
	if req.Sold != nil {
		fields["sold"] = *req.Sold
	}
	if req.Shipping != nil {
		fields["shipping"] = *req.Shipping
	}

	var oldImage string
	if imagePath != "" {
		existing, err := s.productRepo.FindBySlug(ctx, productSlug)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrProductNotFound
		}
		oldImage = existing.Image

		imageURL, err := s.media.Upload(ctx, imagePath, productMediaFolder)
		if err != nil {
			return nil, err
		}
		if removeErr := os.Remove(imagePath); removeErr != nil {
			logrus.WithError(removeErr).WithField("path", imagePath).Warn("Failed to remove staged image")
		}
		fields["image"] = imageURL
	}

	product, err := s.productRepo.UpdateBySlug(ctx, productSlug, fields)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if oldImage != "" {
		s.deleteMediaAsync(oldImage)
	}

	s.populateCategory(ctx, product)
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, productSlug string) error {
	product, err := s.productRepo.DeleteBySlug(ctx, productSlug)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}

	if product.Image != "" {
		s.deleteMediaAsync(product.Image)
	}
	return nil
}

// populateCategory resolves the referenced category. A dangling reference
// only leaves Category nil on the response, it never fails the read.
func (s *productService) populateCategory(ctx context.Context, product *entity.Product) {
	category, err := s.categoryRepo.FindByID(ctx, product.CategoryID)
	if err != nil {
		logrus.WithError(err).WithField("category_id", product.CategoryID.Hex()).Warn("Failed to load product category")
		return
	}
	product.Category = category
}

func (s *productService) deleteMediaAsync(url string) {
	s.asyncRunner(func() {
		deleteCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.media.Delete(deleteCtx, url); err != nil {
			logrus.WithError(err).WithField("url", url).Error("Failed to delete media file")
		}
	})
}
