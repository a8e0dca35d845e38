package routes

import (
	"github.com/gin-gonic/gin"

	"go-pizzeria-management/middleware"
	"go-pizzeria-management/permissions"
)

func AuthRoutes(api *gin.RouterGroup, d Dependencies) {
	auth := api.Group("/auth")
	auth.POST("/register", middleware.OptionalAuthentication(d.Auth), d.Users.SignUp())
	if d.Login != nil {
		auth.POST("/login", d.Login.Handler(), d.Users.Login())
	} else {
		auth.POST("/login", d.Users.Login())
	}

	session := auth.Group("", middleware.Authentication(d.Auth))
	session.GET("/me", d.Users.Me())
	session.PUT("/password", d.Users.ChangePassword())
	session.PUT("/preferences", d.Users.UpdatePreferences())
}

func UserRoutes(api *gin.RouterGroup, d Dependencies) {
	users := api.Group("/users", middleware.Authentication(d.Auth), d.require(permissions.ManageUsers))
	users.GET("", d.Users.GetUsers())
	users.PUT("/:id", d.Users.UpdateUser())
	users.DELETE("/:id", d.Users.DeactivateUser())
}
