package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pizzeria-management/helpers"
	"go-pizzeria-management/middleware"
	"go-pizzeria-management/services"
)

type UserController struct {
	accounts *services.AccountService
}

func NewUserController(accounts *services.AccountService) *UserController {
	return &UserController{accounts: accounts}
}

// SignUp creates an account. The very first account needs no token and
// becomes the administrator.
func (uc *UserController) SignUp() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.RegisterRequest
		if !bindJSON(c, &req) {
			return
		}
		actor, ok := middleware.CurrentActor(c)
		caller := &actor
		if !ok {
			caller = nil
		}
		user, err := uc.accounts.Register(c.Request.Context(), caller, req)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusCreated, gin.H{"user": user, "message": "account created"})
	}
}

func (uc *UserController) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.LoginRequest
		if !bindJSON(c, &req) {
			return
		}
		session, err := uc.accounts.Login(c.Request.Context(), req)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{
			"token":      session.Token,
			"expires_at": session.ExpiresAt,
			"user":       session.User,
		})
	}
}

func (uc *UserController) Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		user, err := uc.accounts.Me(c.Request.Context(), actor)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"user": user})
	}
}

func (uc *UserController) ChangePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req services.ChangePasswordRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := uc.accounts.ChangePassword(c.Request.Context(), actor, req); err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"message": "password changed"})
	}
}

func (uc *UserController) UpdatePreferences() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req services.PreferencesRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := uc.accounts.UpdatePreferences(c.Request.Context(), actor, req)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"user": user})
	}
}

func (uc *UserController) GetUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := uc.accounts.ListUsers(c.Request.Context())
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"users": users, "count": len(users)})
	}
}

func (uc *UserController) UpdateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req services.UpdateUserRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := uc.accounts.UpdateUser(c.Request.Context(), actor, c.Param("id"), req)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"user": user, "message": "account updated"})
	}
}

func (uc *UserController) DeactivateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		user, err := uc.accounts.Deactivate(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"user": user, "message": "account deactivated"})
	}
}
