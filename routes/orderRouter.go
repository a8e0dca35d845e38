package routes

import (
	"github.com/gin-gonic/gin"

	"go-pizzeria-management/middleware"
	"go-pizzeria-management/permissions"
)

// OrderRoutes registers the order endpoints. Status changes are gated per
// target status inside the order service.
func OrderRoutes(api *gin.RouterGroup, d Dependencies) {
	orders := api.Group("/orders", middleware.Authentication(d.Auth))
	orders.GET("", d.require(permissions.ViewOrders), d.Orders.GetOrders())
	orders.GET("/kds", d.require(permissions.ViewOrders), d.Orders.GetKitchenQueue())
	orders.GET("/:id", d.require(permissions.ViewOrders), d.Orders.GetOrder())
	orders.POST("", d.require(permissions.CreateOrder), d.Orders.CreateOrder())
	orders.PUT("/:id", d.require(permissions.EditOrder), d.Orders.UpdateOrder())
	orders.PUT("/:id/status", d.Orders.UpdateOrderStatus())
	orders.DELETE("/:id", d.require(permissions.CancelOrder), d.Orders.CancelOrder())
}
