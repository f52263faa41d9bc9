package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/fleetrent/fleetrent-backend/internal/database"
	"github.com/fleetrent/fleetrent-backend/internal/fleet"
	"github.com/fleetrent/fleetrent-backend/internal/services"
	"github.com/gin-gonic/gin"
)

type AddVehicleInput struct {
	OwnerID uint   `json:"ownerId" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Type    string `json:"type" binding:"required"`
}

// AddVehicle registers a new vehicle (admin only, enforced by the router)
func AddVehicle(registry *fleet.Registry, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddVehicleInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		vehicle, err := registry.AddVehicle(c.Request.Context(), input.OwnerID, input.Name, input.Type)
		if err != nil {
			switch {
			case errors.Is(err, fleet.ErrOwnerNotFound):
				c.JSON(404, gin.H{"error": "Owner account not found"})
			case errors.Is(err, database.ErrUnavailable):
				c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			default:
				c.JSON(400, gin.H{"error": err.Error()})
			}
			return
		}

		go func() {
			ctx := context.Background()
			if err := services.SetVehicleAvailability(ctx, vehicle.ID, string(vehicle.Availability)); err != nil {
				log.Printf("Failed to cache vehicle availability: %v", err)
			}
			if err := services.PublishVehicleAdded(ctx, vehicle.ID, vehicle.OwnerID, vehicle.Name); err != nil {
				log.Printf("Failed to publish vehicle added event: %v", err)
			}
		}()
		hub.SendVehicleAdded(services.VehicleAdded{
			VehicleID: vehicle.ID,
			Name:      vehicle.Name,
			Type:      vehicle.Type,
		})

		c.JSON(201, vehicle)
	}
}

// GetAllVehicles retrieves the whole fleet
func GetAllVehicles(registry *fleet.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicles, err := registry.ListAll(c.Request.Context())
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch vehicles"})
			return
		}
		c.JSON(200, vehicles)
	}
}

// GetAvailableVehicles retrieves vehicles open for reservation
func GetAvailableVehicles(registry *fleet.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicles, err := registry.ListAvailable(c.Request.Context())
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch vehicles"})
			return
		}
		c.JSON(200, vehicles)
	}
}

// GetMyVehicles retrieves the vehicles registered under the logged-in owner
func GetMyVehicles(registry *fleet.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		vehicles, err := registry.ListByOwner(c.Request.Context(), userId)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch vehicles"})
			return
		}
		c.JSON(200, vehicles)
	}
}

// GetVehicleAvailability reports a single vehicle's availability flag
func GetVehicleAvailability(registry *fleet.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid vehicle ID"})
			return
		}

		// Cache first; the store stays the source of truth on a miss
		if cached, err := services.GetVehicleAvailability(c.Request.Context(), uint(vehicleID)); err == nil && cached != "" {
			c.JSON(200, gin.H{"vehicleId": vehicleID, "availability": cached})
			return
		}

		availability, err := registry.GetAvailability(c.Request.Context(), uint(vehicleID))
		if err != nil {
			switch {
			case errors.Is(err, fleet.ErrVehicleNotFound):
				c.JSON(404, gin.H{"error": "Vehicle not found"})
			case errors.Is(err, database.ErrUnavailable):
				c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			default:
				c.JSON(500, gin.H{"error": "Failed to fetch availability"})
			}
			return
		}

		go func() {
			if err := services.SetVehicleAvailability(context.Background(), uint(vehicleID), string(availability)); err != nil {
				log.Printf("Failed to cache vehicle availability: %v", err)
			}
		}()

		c.JSON(200, gin.H{"vehicleId": vehicleID, "availability": availability})
	}
}

// UploadVehiclePhoto stores a photo for a vehicle and records its URL.
// Owners may only upload for their own vehicles; admins for any.
func UploadVehiclePhoto(registry *fleet.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		role := c.GetString("role")

		vehicleID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid vehicle ID"})
			return
		}

		vehicle, err := registry.Get(c.Request.Context(), uint(vehicleID))
		if err != nil {
			if errors.Is(err, fleet.ErrVehicleNotFound) {
				c.JSON(404, gin.H{"error": "Vehicle not found"})
			} else {
				c.JSON(500, gin.H{"error": "Failed to fetch vehicle"})
			}
			return
		}

		if role != "admin" && vehicle.OwnerID != userId {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}

		file, err := c.FormFile("photo")
		if err != nil {
			c.JSON(400, gin.H{"error": "Photo file required"})
			return
		}

		url, err := services.UploadImage(file, "vehicles")
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload photo"})
			return
		}

		if err := registry.SetPhotoURL(c.Request.Context(), uint(vehicleID), url); err != nil {
			c.JSON(500, gin.H{"error": "Failed to save photo URL"})
			return
		}

		c.JSON(200, gin.H{"photoUrl": url})
	}
}
