package routes

import (
	"github.com/gin-gonic/gin"

	"go-pizzeria-management/middleware"
	"go-pizzeria-management/permissions"
)

func ReportRoutes(api *gin.RouterGroup, d Dependencies) {
	reports := api.Group("/reports", middleware.Authentication(d.Auth))
	reports.GET("/dashboard", d.Reports.Dashboard())

	gated := reports.Group("", d.require(permissions.ViewReports))
	gated.GET("/sales", d.Reports.Sales())
	gated.GET("/products", d.Reports.Products())
	gated.GET("/times", d.Reports.Times())
	gated.GET("/channels", d.Reports.Channels())
}
