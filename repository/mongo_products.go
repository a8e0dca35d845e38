package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/database"
	"go-pizzeria-management/models"
)

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{collection: db.Collection(database.ProductCollection)}
}

func (r *mongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("product already exists")
		}
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func (r *mongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFound("product not found")
	}
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, fmt.Errorf("finding product %s: %w", id, err)
	}
	return &product, nil
}

func (r *mongoProductRepository) ExistsByNameAndCategory(ctx context.Context, name string, category models.Category) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"name": name, "category": category}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("counting products: %w", err)
	}
	return count > 0, nil
}

func (r *mongoProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Available != nil {
		query["available"] = *filter.Available
	}
	if filter.Search != "" {
		query["$text"] = bson.M{"$search": filter.Search}
	}
	opts := options.Find().SetSort(bson.D{{Key: "display_order", Value: 1}, {Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	return products, nil
}

func (r *mongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return fmt.Errorf("updating product %s: %w", product.ID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("product not found")
	}
	return nil
}

func (r *mongoProductRepository) Categories(ctx context.Context) ([]models.Category, error) {
	values, err := r.collection.Distinct(ctx, "category", bson.M{"available": true})
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	categories := make([]models.Category, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, models.Category(s))
		}
	}
	return categories, nil
}
