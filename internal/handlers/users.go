package handlers

import (
	"errors"

	"github.com/fleetrent/fleetrent-backend/internal/accounts"
	"github.com/fleetrent/fleetrent-backend/internal/database"
	"github.com/gin-gonic/gin"
)

// GetProfile retrieves the logged-in user's profile
func GetProfile(directory *accounts.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		user, err := directory.Get(c.Request.Context(), userId)
		if err != nil {
			switch {
			case errors.Is(err, accounts.ErrAccountNotFound):
				c.JSON(404, gin.H{"error": "User not found"})
			case errors.Is(err, database.ErrUnavailable):
				c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			default:
				c.JSON(500, gin.H{"error": "Failed to fetch profile"})
			}
			return
		}

		c.JSON(200, gin.H{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		})
	}
}

// UpdateProfile changes the user's password. Usernames are immutable once
// registered, so there is nothing else to edit.
func UpdateProfile(directory *accounts.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			CurrentPassword string `json:"currentPassword" binding:"required"`
			NewPassword     string `json:"newPassword" binding:"required,min=6"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		err := directory.ChangePassword(c.Request.Context(), userId, input.CurrentPassword, input.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, accounts.ErrInvalidCredentials):
				c.JSON(401, gin.H{"error": "Current password is incorrect"})
			case errors.Is(err, accounts.ErrAccountNotFound):
				c.JSON(404, gin.H{"error": "User not found"})
			case errors.Is(err, database.ErrUnavailable):
				c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			default:
				c.JSON(500, gin.H{"error": "Failed to update password"})
			}
			return
		}

		c.JSON(200, gin.H{"message": "Password updated successfully"})
	}
}
