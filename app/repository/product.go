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

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection("products")}
}

func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	result, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		return err
	}
	if id, ok := result.InsertedID.(bson.ObjectID); ok {
		product.ID = id
	}
	return nil
}

func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	product := &entity.Product{}
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID bson.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"category_id": categoryID})
}

// Search returns products matching the search term on name, newest first,
// plus the total match count for pagination.
func (r *ProductRepository) Search(ctx context.Context, search string, skip, limit int64) ([]entity.Product, int64, error) {
	filter := bson.M{
		"name": bson.Regex{Pattern: ".*" + search + ".*", Options: "i"},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}

	var products []entity.Product
	if err = cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

func (r *ProductRepository) UpdateBySlug(ctx context.Context, slug string, fields bson.M) (*entity.Product, error) {
	fields["updated_at"] = time.Now()

	product := &entity.Product{}
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"slug": slug},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) DeleteBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	product := &entity.Product{}
	err := r.collection.FindOneAndDelete(ctx, bson.M{"slug": slug}).Decode(product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}
