package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/app/entity"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	ErrCategoryExists   = errors.New("category with this name already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category still has products assigned")
)

type categoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	FindByID(ctx context.Context, id bson.ObjectID) (*entity.Category, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context) ([]entity.Category, error)
	UpdateBySlug(ctx context.Context, slug string, fields bson.M) (*entity.Category, error)
	DeleteBySlug(ctx context.Context, slug string) (*entity.Category, error)
}

type productCounter interface {
	CountByCategory(ctx context.Context, categoryID bson.ObjectID) (int64, error)
}

type CategoryService interface {
	CreateCategory(ctx context.Context, req *dto.CategoryRequest) (*entity.Category, error)
	GetCategories(ctx context.Context) ([]entity.Category, error)
	GetCategory(ctx context.Context, slug string) (*entity.Category, error)
	UpdateCategory(ctx context.Context, slug string, req *dto.CategoryRequest) (*entity.Category, error)
	DeleteCategory(ctx context.Context, slug string) error
}

type categoryService struct {
	categoryRepo categoryRepository
	products     productCounter
}

func NewCategoryService(categoryRepo categoryRepository, products productCounter) CategoryService {
	return &categoryService{categoryRepo: categoryRepo, products: products}
}

func (s *categoryService) CreateCategory(ctx context.Context, req *dto.CategoryRequest) (*entity.Category, error) {
	categorySlug := slug.Make(req.Name)

	exists, err := s.categoryRepo.SlugExists(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCategoryExists
	}

	now := time.Now()
	category := &entity.Category{
		Name:      req.Name,
		Slug:      categorySlug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.categoryRepo.Create(ctx, category); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) GetCategories(ctx context.Context) ([]entity.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *categoryService) GetCategory(ctx context.Context, categorySlug string) (*entity.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, categorySlug string, req *dto.CategoryRequest) (*entity.Category, error) {
	category, err := s.categoryRepo.UpdateBySlug(ctx, categorySlug, bson.M{
		"name": req.Name,
		"slug": slug.Make(req.Name),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, categorySlug string) error {
	category, err := s.categoryRepo.FindBySlug(ctx, categorySlug)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	// Products keep referencing category ids; refuse the delete while any
	// still do rather than leave dangling references.
	inUse, err := s.products.CountByCategory(ctx, category.ID)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrCategoryInUse
	}

	deleted, err := s.categoryRepo.DeleteBySlug(ctx, categorySlug)
	if err != nil {
		return err
	}
	if deleted == nil {
		return ErrCategoryNotFound
	}
	return nil
}
