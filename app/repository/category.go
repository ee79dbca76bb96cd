package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-commerce/app/entity"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{collection: db.Collection("categories")}
}

func (r *CategoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *CategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	result, err := r.collection.InsertOne(ctx, category)
	if err != nil {
		return err
	}
	if id, ok := result.InsertedID.(bson.ObjectID); ok {
		category.ID = id
	}
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id bson.ObjectID) (*entity.Category, error) {
	category := &entity.Category{}
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	category := &entity.Category{}
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]entity.Category, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var categories []entity.Category
	if err = cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) UpdateBySlug(ctx context.Context, slug string, fields bson.M) (*entity.Category, error) {
	fields["updated_at"] = time.Now()

	category := &entity.Category{}
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"slug": slug},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepository) DeleteBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	category := &entity.Category{}
	err := r.collection.FindOneAndDelete(ctx, bson.M{"slug": slug}).Decode(category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}
