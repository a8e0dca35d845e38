package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/helpers"
	"go-pizzeria-management/services"
)

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

func (pc *ProductController) GetProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		available, err := queryBool(c, "available")
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		all, err := queryBool(c, "all")
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		products, err := pc.products.List(c.Request.Context(), services.ProductQuery{
			Category:  c.Query("category"),
			Available: available,
			All:       all != nil && *all,
			Search:    c.Query("search"),
		})
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"products": products, "count": len(products)})
	}
}

func (pc *ProductController) GetCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := pc.products.Categories(c.Request.Context())
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"categories": categories})
	}
}

func (pc *ProductController) GetProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := pc.products.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"product": product})
	}
}

func (pc *ProductController) CreateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.ProductRequest
		if !bindJSON(c, &req) {
			return
		}
		product, err := pc.products.Create(c.Request.Context(), req)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusCreated, gin.H{"product": product, "message": "product created"})
	}
}

func (pc *ProductController) UpdateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.ProductRequest
		if !bindJSON(c, &req) {
			return
		}
		product, err := pc.products.Update(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"product": product, "message": "product updated"})
	}
}

func (pc *ProductController) DeleteProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := pc.products.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"product": product, "message": "product removed"})
	}
}

func (pc *ProductController) SetAvailability() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Available *bool `json:"available"`
		}
		if !bindJSON(c, &body) {
			return
		}
		if body.Available == nil {
			helpers.RespondError(c, apperrors.Validation("available is required"))
			return
		}
		product, err := pc.products.SetAvailability(c.Request.Context(), c.Param("id"), *body.Available)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"product": product})
	}
}
