// Package repository holds the catalog, order and account stores together
// with the report queries that run over them.
package repository

import (
	"context"
	"time"

	"go-pizzeria-management/models"
)

type ProductFilter struct {
	Category  models.Category
	Available *bool
	Search    string
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	ExistsByNameAndCategory(ctx context.Context, name string, category models.Category) (bool, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Categories(ctx context.Context) ([]models.Category, error)
}

type OrderFilter struct {
	Statuses    []models.OrderStatus
	Type        models.FulfillmentType
	From        *time.Time
	To          *time.Time
	Active      *bool
	Limit       int
	OldestFirst bool
}

// OrderChange is a partial order update. It applies only while the stored
// order still has status From; nil fields keep their stored value. Stamp is
// the lifecycle time for Status and never replaces a stamp already stored.
type OrderChange struct {
	From      models.OrderStatus
	Status    *models.OrderStatus
	Stamp     *time.Time
	Active    *bool
	Customer  *models.Customer
	Notes     *string
	UpdatedAt time.Time
}

type OrderRepository interface {
	// NextNumber returns the next order sequence value. Values are unique
	// and strictly increasing even under concurrent callers.
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// Update applies change atomically and returns the stored order. It fails
	// with InvalidOrderState when the order left change.From in the meantime.
	Update(ctx context.Context, id string, change OrderChange) (*models.Order, error)
}

// UserChange overwrites the non-nil fields of an account. When IfPassword is
// set the change applies only while that hash is still stored.
type UserChange struct {
	Name               *string
	Email              *string
	Role               *models.Role
	Active             *bool
	Password           *string
	SoundNotifications *bool
	PreferredView      *models.View
	LastLogin          *time.Time
	IfPassword         string
	UpdatedAt          time.Time
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id string, change UserChange) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	// ClaimFirstAccount reports true to exactly one caller over the life of
	// the store. It decides which registration bootstraps the admin.
	ClaimFirstAccount(ctx context.Context) (bool, error)
}

// DateRange bounds a report on order creation time; nil ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

type Grouping string

const (
	GroupByHour  Grouping = "hour"
	GroupByDay   Grouping = "day"
	GroupByMonth Grouping = "month"
)

func (g Grouping) Valid() bool {
	return g == GroupByHour || g == GroupByDay || g == GroupByMonth
}

// mongoFormat and goLayout render the same bucket label on both stores.
func (g Grouping) mongoFormat() string {
	switch g {
	case GroupByHour:
		return "%Y-%m-%d %H:00"
	case GroupByMonth:
		return "%Y-%m"
	default:
		return "%Y-%m-%d"
	}
}

func (g Grouping) goLayout() string {
	switch g {
	case GroupByHour:
		return "2006-01-02 15:00"
	case GroupByMonth:
		return "2006-01"
	default:
		return "2006-01-02"
	}
}

type SalesBucket struct {
	Label         string       `bson:"label" json:"label"`
	Revenue       models.Money `bson:"revenue" json:"revenue"`
	Orders        int          `bson:"orders" json:"orders"`
	AverageTicket models.Money `bson:"average_ticket" json:"average_ticket"`
}

type ProductSales struct {
	ProductID    string          `bson:"product_id" json:"product_id"`
	Name         string          `bson:"name" json:"name"`
	Category     models.Category `bson:"category" json:"category"`
	Quantity     int             `bson:"quantity" json:"quantity"`
	Revenue      models.Money    `bson:"revenue" json:"revenue"`
	AveragePrice models.Money    `bson:"average_price" json:"average_price"`
}

type ChannelSales struct {
	Channel       models.Channel `bson:"channel" json:"channel"`
	Orders        int            `bson:"orders" json:"orders"`
	Revenue       models.Money   `bson:"revenue" json:"revenue"`
	AverageTicket models.Money   `bson:"average_ticket" json:"average_ticket"`
}

// ReportRepository runs the aggregate queries over delivered, active orders.
type ReportRepository interface {
	SalesByPeriod(ctx context.Context, r DateRange, grouping Grouping, loc *time.Location) ([]SalesBucket, error)
	TopProducts(ctx context.Context, r DateRange, limit int) ([]ProductSales, error)
	SalesByChannel(ctx context.Context, r DateRange) ([]ChannelSales, error)
}
