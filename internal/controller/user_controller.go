package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"water-delivery-backend/internal/dto"
	"water-delivery-backend/internal/service"
)

type UserController struct {
	Auth     *service.AuthService
	Profiles *service.ProfileService
	Catalog  *service.CatalogService
}

func NewUserController(auth *service.AuthService, profiles *service.ProfileService, catalog *service.CatalogService) *UserController {
	return &UserController{Auth: auth, Profiles: profiles, Catalog: catalog}
}

// POST /auth/login — no token required
func (ctl *UserController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "user_id_or_email zorunlu."})
		return
	}

	token, user, err := ctl.Auth.Login(c.Request.Context(), req.UserIDOrEmail, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// GET /products
func (ctl *UserController) ListProducts(c *gin.Context) {
	products, err := ctl.Catalog.Products(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GET /profile/:userId
func (ctl *UserController) GetProfile(c *gin.Context) {
	user, err := ctl.Profiles.Get(c.Request.Context(), principal(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// PUT /profile/:userId body {"updates": {...}}
func (ctl *UserController) UpdateProfile(c *gin.Context) {
	var req dto.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Updates == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "updates payload zorunlu."})
		return
	}

	user, err := ctl.Profiles.Update(c.Request.Context(), principal(c), c.Param("userId"), req.Updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
