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

const orderNumberSequence = "order_number"

type mongoOrderRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{db: db, collection: db.Collection(database.OrderCollection)}
}

func (r *mongoOrderRepository) NextNumber(ctx context.Context) (int64, error) {
	return database.NextSequence(ctx, r.db, orderNumberSequence)
}

func (r *mongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("order number %s already exists", order.Number)
		}
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (r *mongoOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFound("order not found")
	}
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("finding order %s: %w", id, err)
	}
	return &order, nil
}

func orderQuery(filter OrderFilter) bson.M {
	query := bson.M{}
	if filter.Active != nil {
		query["active"] = *filter.Active
	}
	if len(filter.Statuses) == 1 {
		query["status"] = filter.Statuses[0]
	} else if len(filter.Statuses) > 1 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if created := dateMatch(DateRange{From: filter.From, To: filter.To}); created != nil {
		query["created_at"] = created
	}
	return query
}

func (r *mongoOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	direction := -1
	if filter.OldestFirst {
		direction = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: direction}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, orderQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decoding orders: %w", err)
	}
	return orders, nil
}

func literal(v interface{}) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

// orderUpdate renders change as an update pipeline. Values are wrapped in
// $literal so user text starting with "$" is never read as a field path.
func orderUpdate(change OrderChange) mongo.Pipeline {
	set := bson.D{{Key: "updated_at", Value: literal(change.UpdatedAt)}}
	if change.Status != nil {
		set = append(set, bson.E{Key: "status", Value: literal(*change.Status)})
		if field := models.StampField(*change.Status); field != "" && change.Stamp != nil {
			path := "times." + field
			set = append(set, bson.E{Key: path, Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + path, literal(*change.Stamp)}}}})
		}
	}
	if change.Active != nil {
		set = append(set, bson.E{Key: "active", Value: literal(*change.Active)})
	}
	if change.Customer != nil {
		set = append(set, bson.E{Key: "customer", Value: literal(*change.Customer)})
	}
	if change.Notes != nil {
		set = append(set, bson.E{Key: "notes", Value: literal(*change.Notes)})
	}
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

func (r *mongoOrderRepository) Update(ctx context.Context, id string, change OrderChange) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFound("order not found")
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": change.From}, orderUpdate(change), opts).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("updating order %s: %w", id, err)
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("checking order %s: %w", id, err)
	}
	if n == 0 {
		return nil, apperrors.NotFound("order not found")
	}
	return nil, apperrors.InvalidOrderState("order is no longer %s, it was changed by another request", change.From)
}

func maxNumberPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "max", Value: bson.D{{Key: "$max", Value: bson.D{{Key: "$convert", Value: bson.D{
				{Key: "input", Value: "$number"},
				{Key: "to", Value: "long"},
				{Key: "onError", Value: int64(0)},
				{Key: "onNull", Value: int64(0)},
			}}}}}},
		}}},
	}
}

// SyncOrderNumbers moves the order counter past the highest number already
// stored, so numbering continues on databases that predate the counter.
func SyncOrderNumbers(ctx context.Context, db *mongo.Database) error {
	cursor, err := db.Collection(database.OrderCollection).Aggregate(ctx, maxNumberPipeline())
	if err != nil {
		return fmt.Errorf("reading highest order number: %w", err)
	}
	var rows []struct {
		Max int64 `bson:"max"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return fmt.Errorf("decoding highest order number: %w", err)
	}
	if len(rows) == 0 || rows[0].Max == 0 {
		return nil
	}
	return database.SeedSequence(ctx, db, orderNumberSequence, rows[0].Max)
}
