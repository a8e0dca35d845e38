// Package controllers adapts the services to gin handlers.
package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/helpers"
	"go-pizzeria-management/middleware"
	"go-pizzeria-management/models"
)

// bindJSON decodes the request body, responding with a validation failure
// when it is not valid JSON for target.
func bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		helpers.RespondError(c, apperrors.Validation("invalid request body"))
		return false
	}
	return true
}

func actorFrom(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		helpers.RespondError(c, apperrors.Authentication("authentication token required"))
	}
	return actor, ok
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Validation("%s must be true or false", key)
	}
	return &v, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation("%s must be a number", key)
	}
	return v, nil
}
