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

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection("users")}
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return err
	}
	if id, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id bson.ObjectID) (*entity.User, error) {
	user := &entity.User{}
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	user := &entity.User{}
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Search returns non-admin users whose name, email or phone matches the
// search term, plus the total match count for pagination.
func (r *UserRepository) Search(ctx context.Context, search string, skip, limit int64) ([]entity.User, int64, error) {
	pattern := bson.Regex{Pattern: ".*" + search + ".*", Options: "i"}
	filter := bson.M{
		"is_admin": bson.M{"$ne": true},
		"$or": []bson.M{
			{"name": pattern},
			{"email": pattern},
			{"phone": pattern},
		},
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

	var users []entity.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

// Update applies the given field updates atomically and returns the updated
// document, or nil when no user has the given id.
func (r *UserRepository) Update(ctx context.Context, id bson.ObjectID, fields bson.M) (*entity.User, error) {
	fields["updated_at"] = time.Now()

	user := &entity.User{}
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a non-admin user by id and returns the removed document,
// or nil when no matching non-admin user exists.
func (r *UserRepository) Delete(ctx context.Context, id bson.ObjectID) (*entity.User, error) {
	user := &entity.User{}
	err := r.collection.FindOneAndDelete(ctx, bson.M{
		"_id":      id,
		"is_admin": false,
	}).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
