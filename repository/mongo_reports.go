package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"go-pizzeria-management/database"
	"go-pizzeria-management/models"
)

type mongoReportRepository struct {
	orders *mongo.Collection
}

func NewMongoReportRepository(db *mongo.Database) ReportRepository {
	return &mongoReportRepository{orders: db.Collection(database.OrderCollection)}
}

func dateMatch(r DateRange) bson.M {
	if r.From == nil && r.To == nil {
		return nil
	}
	created := bson.M{}
	if r.From != nil {
		created["$gte"] = *r.From
	}
	if r.To != nil {
		created["$lte"] = *r.To
	}
	return created
}

// deliveredMatch selects the orders that count as sales.
func deliveredMatch(r DateRange) bson.D {
	match := bson.D{
		{Key: "status", Value: models.StatusDelivered},
		{Key: "active", Value: true},
	}
	if created := dateMatch(r); created != nil {
		match = append(match, bson.E{Key: "created_at", Value: created})
	}
	return bson.D{{Key: "$match", Value: match}}
}

// mongoTimezone names loc the way $dateToString accepts it.
func mongoTimezone(loc *time.Location) string {
	if loc == nil || loc == time.Local || loc.String() == "Local" {
		return "UTC"
	}
	return loc.String()
}

func salesPipeline(r DateRange, grouping Grouping, loc *time.Location) mongo.Pipeline {
	groupStage := bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
			{Key: "format", Value: grouping.mongoFormat()},
			{Key: "date", Value: "$created_at"},
			{Key: "timezone", Value: mongoTimezone(loc)},
		}}}},
		{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$payment.total"}}},
		{Key: "orders", Value: bson.D{{Key: "$sum", Value: 1}}},
		{Key: "average_ticket", Value: bson.D{{Key: "$avg", Value: "$payment.total"}}},
	}}}
	sortStage := bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}}
	projectStage := bson.D{{Key: "$project", Value: bson.D{
		{Key: "_id", Value: 0},
		{Key: "label", Value: "$_id"},
		{Key: "revenue", Value: 1},
		{Key: "orders", Value: 1},
		{Key: "average_ticket", Value: 1},
	}}}
	return mongo.Pipeline{deliveredMatch(r), groupStage, sortStage, projectStage}
}

func topProductsPipeline(r DateRange, limit int) mongo.Pipeline {
	unwindStage := bson.D{{Key: "$unwind", Value: "$items"}}
	groupStage := bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$items.product_id"},
		{Key: "name", Value: bson.D{{Key: "$first", Value: "$items.product_name"}}},
		{Key: "quantity", Value: bson.D{{Key: "$sum", Value: "$items.quantity"}}},
		{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$items.price"}}},
		{Key: "average_price", Value: bson.D{{Key: "$avg", Value: "$items.price"}}},
	}}}
	sortStage := bson.D{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}, {Key: "revenue", Value: -1}}}}
	limitStage := bson.D{{Key: "$limit", Value: int64(limit)}}
	lookupStage := bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: database.ProductCollection},
		{Key: "localField", Value: "_id"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "product"},
	}}}
	projectStage := bson.D{{Key: "$project", Value: bson.D{
		{Key: "_id", Value: 0},
		{Key: "product_id", Value: bson.D{{Key: "$toString", Value: "$_id"}}},
		{Key: "name", Value: 1},
		{Key: "category", Value: bson.D{{Key: "$ifNull", Value: bson.A{
			bson.D{{Key: "$arrayElemAt", Value: bson.A{"$product.category", 0}}}, "",
		}}}},
		{Key: "quantity", Value: 1},
		{Key: "revenue", Value: 1},
		{Key: "average_price", Value: 1},
	}}}
	return mongo.Pipeline{deliveredMatch(r), unwindStage, groupStage, sortStage, limitStage, lookupStage, projectStage}
}

func channelPipeline(r DateRange) mongo.Pipeline {
	groupStage := bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$channel"},
		{Key: "orders", Value: bson.D{{Key: "$sum", Value: 1}}},
		{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$payment.total"}}},
		{Key: "average_ticket", Value: bson.D{{Key: "$avg", Value: "$payment.total"}}},
	}}}
	sortStage := bson.D{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}}}}
	projectStage := bson.D{{Key: "$project", Value: bson.D{
		{Key: "_id", Value: 0},
		{Key: "channel", Value: "$_id"},
		{Key: "orders", Value: 1},
		{Key: "revenue", Value: 1},
		{Key: "average_ticket", Value: 1},
	}}}
	return mongo.Pipeline{deliveredMatch(r), groupStage, sortStage, projectStage}
}

func (r *mongoReportRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func (r *mongoReportRepository) SalesByPeriod(ctx context.Context, dr DateRange, grouping Grouping, loc *time.Location) ([]SalesBucket, error) {
	buckets := []SalesBucket{}
	if err := r.aggregate(ctx, salesPipeline(dr, grouping, loc), &buckets); err != nil {
		return nil, fmt.Errorf("aggregating sales: %w", err)
	}
	return buckets, nil
}

func (r *mongoReportRepository) TopProducts(ctx context.Context, dr DateRange, limit int) ([]ProductSales, error) {
	products := []ProductSales{}
	if err := r.aggregate(ctx, topProductsPipeline(dr, limit), &products); err != nil {
		return nil, fmt.Errorf("aggregating top products: %w", err)
	}
	return products, nil
}

func (r *mongoReportRepository) SalesByChannel(ctx context.Context, dr DateRange) ([]ChannelSales, error) {
	channels := []ChannelSales{}
	if err := r.aggregate(ctx, channelPipeline(dr), &channels); err != nil {
		return nil, fmt.Errorf("aggregating channels: %w", err)
	}
	return channels, nil
}
