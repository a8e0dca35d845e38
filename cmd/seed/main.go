// Command seed loads demo accounts and a starter menu into an empty database.
// Existing accounts and products are left untouched.
package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/config"
	"go-pizzeria-management/database"
	"go-pizzeria-management/helpers"
	"go-pizzeria-management/models"
	"go-pizzeria-management/permissions"
	"go-pizzeria-management/repository"
	"go-pizzeria-management/services"
)

const demoPassword = "123456"

var demoAccounts = []services.RegisterRequest{
	{Name: "Administrator", Email: "admin@pizzeria.local", Role: models.RoleAdmin},
	{Name: "Manager", Email: "manager@pizzeria.local", Role: models.RoleManager},
	{Name: "Counter", Email: "counter@pizzeria.local", Role: models.RoleCounterStaff},
	{Name: "Cook", Email: "cook@pizzeria.local", Role: models.RoleCook},
	{Name: "Driver", Email: "driver@pizzeria.local", Role: models.RoleDriver},
}

func opt(name, price string) models.PriceOption {
	return models.PriceOption{Name: name, Price: models.MoneyFromString(price), Available: true}
}

func pizzaSizes(small, medium, large, giant string) []models.PriceOption {
	return []models.PriceOption{opt("small", small), opt("medium", medium), opt("large", large), opt("giant", giant)}
}

func prep(minutes int) *int { return &minutes }

var crusts = []models.PriceOption{opt("catupiry", "5.00"), opt("cheddar", "6.00")}
var addons = []models.PriceOption{opt("olives", "2.00"), opt("oregano", "1.00")}

var demoMenu = []services.ProductRequest{
	{
		Name: "Margherita", Category: models.CategoryPizza,
		Description: "Tomato sauce, mozzarella, basil and olive oil",
		Ingredients: []string{"tomato sauce", "mozzarella", "basil", "olive oil"},
		Sizes:       pizzaSizes("25.90", "35.90", "45.90", "55.90"),
		Crusts:      crusts, Addons: addons, PrepMinutes: prep(25), Vegetarian: true, DisplayOrder: 1,
	},
	{
		Name: "Calabresa", Category: models.CategoryPizza,
		Description: "Tomato sauce, mozzarella, calabresa sausage and onion",
		Ingredients: []string{"tomato sauce", "mozzarella", "calabresa", "onion"},
		Sizes:       pizzaSizes("28.90", "38.90", "48.90", "58.90"),
		Crusts:      crusts, Addons: addons, PrepMinutes: prep(30), DisplayOrder: 2,
	},
	{
		Name: "Portuguesa", Category: models.CategoryPizza,
		Description: "Tomato sauce, mozzarella, ham, eggs, onion and olives",
		Ingredients: []string{"tomato sauce", "mozzarella", "ham", "eggs", "onion", "olives"},
		Sizes:       pizzaSizes("32.90", "42.90", "52.90", "62.90"),
		Crusts:      crusts, Addons: addons, PrepMinutes: prep(35), DisplayOrder: 3,
	},
	{
		Name: "Four Cheese", Category: models.CategoryPizza,
		Description: "Tomato sauce, mozzarella, catupiry, parmesan and gorgonzola",
		Ingredients: []string{"tomato sauce", "mozzarella", "catupiry", "parmesan", "gorgonzola"},
		Sizes:       pizzaSizes("35.90", "45.90", "55.90", "65.90"),
		Crusts:      crusts, Addons: addons, PrepMinutes: prep(30), Vegetarian: true, DisplayOrder: 4,
	},
	{
		Name: "Cola 2L", Category: models.CategoryDrink,
		Sizes: []models.PriceOption{opt("2l", "12.00")}, PrepMinutes: prep(0), DisplayOrder: 10,
	},
	{
		Name: "Chocolate Pizza", Category: models.CategoryDessert,
		Description: "Milk chocolate and strawberries",
		Sizes:       []models.PriceOption{opt("small", "29.90"), opt("medium", "39.90")},
		PrepMinutes: prep(20), Vegetarian: true, DisplayOrder: 20,
	},
}

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := database.DBinstance(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("cannot reach mongodb")
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDatabase)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.WithError(err).Fatal("cannot create indexes")
	}

	accounts := services.NewAccountService(
		repository.NewMongoUserRepository(db),
		helpers.NewTokenManager(cfg.SecretKey, cfg.TokenTTL),
		helpers.NewPasswordHasher(cfg.BcryptCost),
		permissions.Default,
		log,
	)
	products := services.NewProductService(repository.NewMongoProductRepository(db), log)

	seedAccounts(ctx, accounts, log)
	seedMenu(ctx, products, log)
	log.Info("seed complete")
}

func seedAccounts(ctx context.Context, accounts *services.AccountService, log *logrus.Logger) {
	var admin *models.Actor
	for _, req := range demoAccounts {
		req.Password = demoPassword
		user, err := accounts.Register(ctx, admin, req)
		switch {
		case err == nil:
			log.WithFields(logrus.Fields{"email": user.Email, "role": user.Role}).Info("account created")
		case apperrors.Is(err, apperrors.KindAuthentication):
			log.Info("accounts already exist, skipping")
			return
		case apperrors.Is(err, apperrors.KindConflict):
			continue
		default:
			log.WithError(err).Fatal("cannot create account")
		}
		if user.Role == models.RoleAdmin && admin == nil {
			admin = &models.Actor{ID: user.ID.Hex(), Email: user.Email, Role: user.Role}
		}
	}
}

func seedMenu(ctx context.Context, products *services.ProductService, log *logrus.Logger) {
	for _, req := range demoMenu {
		product, err := products.Create(ctx, req)
		switch {
		case err == nil:
			log.WithField("product", product.Name).Info("product created")
		case apperrors.Is(err, apperrors.KindConflict):
			log.WithField("product", req.Name).Debug("product exists")
		default:
			log.WithError(err).WithField("product", req.Name).Fatal("cannot create product")
		}
	}
}
