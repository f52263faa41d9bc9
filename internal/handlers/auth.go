package handlers

import (
	"errors"

	"github.com/fleetrent/fleetrent-backend/internal/accounts"
	"github.com/fleetrent/fleetrent-backend/internal/database"
	"github.com/fleetrent/fleetrent-backend/internal/models"
	"github.com/fleetrent/fleetrent-backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=owner customer"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Register(directory *accounts.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		user, err := directory.Register(c.Request.Context(), input.Username, input.Password, models.Role(input.Role))
		if err != nil {
			switch {
			case errors.Is(err, accounts.ErrDuplicateUsername):
				c.JSON(409, gin.H{"error": "Username already taken"})
			case errors.Is(err, accounts.ErrInvalidRole):
				c.JSON(400, gin.H{"error": "Role must be owner or customer"})
			case errors.Is(err, database.ErrUnavailable):
				c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			default:
				c.JSON(500, gin.H{"error": "Failed to create user"})
			}
			return
		}

		c.JSON(201, gin.H{
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"role":     user.Role,
			},
		})
	}
}

func Login(directory *accounts.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		user, err := directory.Authenticate(c.Request.Context(), input.Username, input.Password)
		if err != nil {
			switch {
			case errors.Is(err, accounts.ErrInvalidCredentials):
				c.JSON(401, gin.H{"error": "Invalid credentials"})
			case errors.Is(err, database.ErrUnavailable):
				c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			default:
				c.JSON(500, gin.H{"error": "Failed to log in"})
			}
			return
		}

		token, err := utils.GenerateToken(user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{
			"token": token,
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"role":     user.Role,
			},
		})
	}
}
