package reservations

import (
	"context"
	"errors"

	"github.com/fleetrent/fleetrent-backend/internal/bookings"
	"github.com/fleetrent/fleetrent-backend/internal/database"
	"github.com/fleetrent/fleetrent-backend/internal/fleet"
	"github.com/fleetrent/fleetrent-backend/internal/models"
	"gorm.io/gorm"
)

// ErrAlreadyBooked is the expected outcome for the losers of a reservation
// race, not a defect. Callers report it and move on.
var ErrAlreadyBooked = errors.New("vehicle is not available")

// Coordinator is the only writer that crosses the fleet and the booking
// ledger. It flips a vehicle to booked and records the booking as one
// transaction, so concurrent callers for the same vehicle resolve to exactly
// one winner.
type Coordinator struct {
	db     *gorm.DB
	ledger *bookings.Ledger
}

func NewCoordinator(db *gorm.DB, ledger *bookings.Ledger) *Coordinator {
	return &Coordinator{db: db, ledger: ledger}
}

// Reserve books a vehicle for a customer. The availability check and the
// flip are a single conditional UPDATE, so there is no window between read
// and write; the commit order of the store decides the winner. Mutations to
// different vehicles do not contend.
func (c *Coordinator) Reserve(ctx context.Context, customerID, vehicleID uint) (*models.Booking, error) {
	var booking *models.Booking

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Vehicle{}).
			Where("id = ? AND availability = ?", vehicleID, models.VehicleAvailable).
			Update("availability", models.VehicleBooked)
		if result.Error != nil {
			return database.StorageError(result.Error)
		}

		if result.RowsAffected == 0 {
			// Lost the race, or the vehicle never existed.
			var count int64
			if err := tx.Model(&models.Vehicle{}).Where("id = ?", vehicleID).Count(&count).Error; err != nil {
				return database.StorageError(err)
			}
			if count == 0 {
				return fleet.ErrVehicleNotFound
			}
			return ErrAlreadyBooked
		}

		b, err := c.ledger.CreateInTx(tx, customerID, vehicleID)
		if err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}
