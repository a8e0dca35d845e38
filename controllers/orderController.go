package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pizzeria-management/helpers"
	"go-pizzeria-management/models"
	"go-pizzeria-management/services"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (oc *OrderController) GetOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		active, err := queryBool(c, "active")
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		limit, err := queryInt(c, "limit")
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		orders, err := oc.orders.List(c.Request.Context(), services.ListOrdersQuery{
			Status: c.Query("status"),
			Type:   c.Query("type"),
			From:   c.Query("from"),
			To:     c.Query("to"),
			Active: active,
			Limit:  limit,
		})
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
	}
}

// GetKitchenQueue lists the orders shown on a kitchen display sector.
func (oc *OrderController) GetKitchenQueue() gin.HandlerFunc {
	return func(c *gin.Context) {
		queue, err := oc.orders.KitchenQueue(c.Request.Context(), c.Query("sector"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"orders": queue, "count": len(queue)})
	}
}

func (oc *OrderController) GetOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := oc.orders.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"order": order})
	}
}

func (oc *OrderController) CreateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req services.CreateOrderRequest
		if !bindJSON(c, &req) {
			return
		}
		order, err := oc.orders.Create(c.Request.Context(), actor, req)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusCreated, gin.H{"order": order, "message": "order created"})
	}
}

func (oc *OrderController) UpdateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req services.EditOrderRequest
		if !bindJSON(c, &req) {
			return
		}
		order, err := oc.orders.Edit(c.Request.Context(), actor, c.Param("id"), req)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"order": order, "message": "order updated"})
	}
}

func (oc *OrderController) UpdateOrderStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var body struct {
			Status models.OrderStatus `json:"status"`
		}
		if !bindJSON(c, &body) {
			return
		}
		order, err := oc.orders.UpdateStatus(c.Request.Context(), actor, c.Param("id"), body.Status)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"order": order, "message": "status updated"})
	}
}

func (oc *OrderController) CancelOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		order, err := oc.orders.Cancel(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"order": order, "message": "order cancelled"})
	}
}
