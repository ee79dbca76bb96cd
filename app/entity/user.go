package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	Phone        string        `bson:"phone" json:"phone"`
	Address      string        `bson:"address" json:"address"`
	Image        string        `bson:"image,omitempty" json:"image,omitempty"`
	IsAdmin      bool          `bson:"is_admin" json:"isAdmin"`
	IsBanned     bool          `bson:"is_banned" json:"isBanned"`
	CreatedAt    time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updatedAt"`
}
