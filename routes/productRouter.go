package routes

import (
	"github.com/gin-gonic/gin"

	"go-pizzeria-management/middleware"
	"go-pizzeria-management/permissions"
)

// ProductRoutes exposes the menu. Reading it needs no account.
func ProductRoutes(api *gin.RouterGroup, d Dependencies) {
	products := api.Group("/products")
	products.GET("", d.Products.GetProducts())
	products.GET("/categories", d.Products.GetCategories())
	products.GET("/:id", d.Products.GetProduct())

	manage := products.Group("", middleware.Authentication(d.Auth), d.require(permissions.ManageProducts))
	manage.POST("", d.Products.CreateProduct())
	manage.PUT("/:id", d.Products.UpdateProduct())
	manage.DELETE("/:id", d.Products.DeleteProduct())
	manage.PUT("/:id/availability", d.Products.SetAvailability())
}
