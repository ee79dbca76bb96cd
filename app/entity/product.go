package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Product struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Slug        string        `bson:"slug" json:"slug"`
	Description string        `bson:"description" json:"description"`
	Price       float64       `bson:"price" json:"price"`
	Quantity    int           `bson:"quantity" json:"quantity"`
	Sold        int           `bson:"sold" json:"sold"`
	Shipping    float64       `bson:"shipping" json:"shipping"`
	Image       string        `bson:"image,omitempty" json:"image,omitempty"`
	CategoryID  bson.ObjectID `bson:"category_id" json:"categoryId"`
	CreatedAt   time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updatedAt"`

	// Filled in by the service from the categories collection, never stored.
	Category *Category `bson:"-" json:"category,omitempty"`
}
