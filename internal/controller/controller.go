package controller

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"water-delivery-backend/internal/dto"
	"water-delivery-backend/internal/model"
	"water-delivery-backend/internal/service"
)

type OrderController struct {
	Service *service.OrderService
}

func NewOrderController(s *service.OrderService) *OrderController {
	return &OrderController{Service: s}
}

func principal(c *gin.Context) model.Principal {
	return model.Principal{
		UserID: c.GetString("userID"),
		Role:   c.GetString("userRole"),
	}
}

// GET /orders?status=&collection=&user_id=&start_date=&end_date=
func (ctl *OrderController) ListOrders(c *gin.Context) {
	filter := service.ListFilter{
		UserID:     c.Query("user_id"),
		Status:     c.Query("status"),
		Collection: c.Query("collection"),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
	}

	orders, err := ctl.Service.List(c.Request.Context(), principal(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// POST /orders body {"order": {...}}
func (ctl *OrderController) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Order == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "order payload zorunlu."})
		return
	}

	if err := ctl.Service.Create(c.Request.Context(), principal(c), *req.Order); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// PUT /orders/:orderId body {"updates": {...}}
func (ctl *OrderController) UpdateOrder(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Updates == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "updates payload zorunlu."})
		return
	}

	order, err := ctl.Service.Update(c.Request.Context(), principal(c), c.Param("orderId"), *req.Updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// DELETE /orders/:orderId
func (ctl *OrderController) DeleteOrder(c *gin.Context) {
	if err := ctl.Service.Delete(c.Request.Context(), principal(c), c.Param("orderId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondError maps business errors to status codes. Everything
// unrecognized is a 500 with a generic body; internals stay internal.
func respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var forbiddenErr *service.ForbiddenError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"detail": validationErr.Detail})
	case errors.As(err, &forbiddenErr):
		c.JSON(http.StatusForbidden, gin.H{"detail": forbiddenErr.Detail})
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Siparis bulunamadi."})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Kullanici bulunamadi."})
	case errors.Is(err, service.ErrNotPersisted):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Siparis olusturulamadi."})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Gecersiz kullanici bilgileri"})
	default:
		log.Println("unexpected error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Sunucu hatasi."})
	}
}
