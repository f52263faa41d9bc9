package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/fleetrent/fleetrent-backend/internal/bookings"
	"github.com/fleetrent/fleetrent-backend/internal/database"
	"github.com/fleetrent/fleetrent-backend/internal/fleet"
	"github.com/fleetrent/fleetrent-backend/internal/models"
	"github.com/fleetrent/fleetrent-backend/internal/reservations"
	"github.com/fleetrent/fleetrent-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// ReserveVehicle handles a customer's attempt to book a vehicle. Losing the
// race for a vehicle is a 409, not a server error.
func ReserveVehicle(coordinator *reservations.Coordinator, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		var input struct {
			VehicleID uint `json:"vehicleId" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		booking, err := coordinator.Reserve(c.Request.Context(), userId, input.VehicleID)
		if err != nil {
			switch {
			case errors.Is(err, fleet.ErrVehicleNotFound):
				c.JSON(404, gin.H{"error": "Vehicle not found"})
			case errors.Is(err, reservations.ErrAlreadyBooked):
				c.JSON(409, gin.H{"error": "Vehicle is not available"})
			case errors.Is(err, database.ErrUnavailable):
				c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			default:
				c.JSON(500, gin.H{"error": "Failed to create booking"})
			}
			return
		}

		go func() {
			ctx := context.Background()
			if err := services.SetVehicleAvailability(ctx, booking.VehicleID, string(models.VehicleBooked)); err != nil {
				log.Printf("Failed to cache vehicle availability: %v", err)
			}
			if err := services.PublishBookingUpdate(ctx, booking.ID, booking.CustomerID, booking.VehicleID); err != nil {
				log.Printf("Failed to publish booking update: %v", err)
			}
		}()
		hub.SendVehicleBooked(booking.CustomerID, services.VehicleBooked{
			VehicleID: booking.VehicleID,
			BookingID: booking.ID,
		})

		c.JSON(201, booking)
	}
}

// GetMyBookings retrieves the logged-in customer's bookings
func GetMyBookings(ledger *bookings.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		views, err := ledger.ListByCustomer(c.Request.Context(), userId)
		if err != nil {
			if errors.Is(err, database.ErrUnavailable) {
				c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		c.JSON(200, views)
	}
}
