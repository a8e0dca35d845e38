package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategoryPizza   Category = "pizza"
	CategoryDrink   Category = "drink"
	CategoryDessert Category = "dessert"
	CategoryAddon   Category = "addon"
)

var Categories = []Category{CategoryPizza, CategoryDrink, CategoryDessert, CategoryAddon}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PriceOption is one priced choice on a product: a size, a crust or an addon.
type PriceOption struct {
	Name      string `bson:"name" json:"name" validate:"required"`
	Price     Money  `bson:"price" json:"price"`
	Available bool   `bson:"available" json:"available"`
}

type Product struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Name         string             `bson:"name" json:"name" validate:"required,min=2,max=100"`
	Category     Category           `bson:"category" json:"category" validate:"required,oneof=pizza drink dessert addon"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Ingredients  []string           `bson:"ingredients,omitempty" json:"ingredients,omitempty"`
	Sizes        []PriceOption      `bson:"sizes" json:"sizes" validate:"required,min=1,dive"`
	Crusts       []PriceOption      `bson:"crusts,omitempty" json:"crusts,omitempty" validate:"dive"`
	Addons       []PriceOption      `bson:"addons,omitempty" json:"addons,omitempty" validate:"dive"`
	PrepMinutes  int                `bson:"prep_minutes" json:"prep_minutes" validate:"gte=0"`
	Available    bool               `bson:"available" json:"available"`
	Vegetarian   bool               `bson:"vegetarian" json:"vegetarian"`
	Image        string             `bson:"image,omitempty" json:"image,omitempty"`
	DisplayOrder int                `bson:"display_order" json:"display_order"`
	Created_at   time.Time          `bson:"created_at" json:"created_at"`
	Updated_at   time.Time          `bson:"updated_at" json:"updated_at"`
}

const DefaultPrepMinutes = 30

// FindOption returns the named option only when it exists and is available.
func FindOption(options []PriceOption, name string) (PriceOption, bool) {
	for _, option := range options {
		if option.Name == name {
			return option, option.Available
		}
	}
	return PriceOption{}, false
}
