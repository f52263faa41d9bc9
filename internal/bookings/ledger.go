package bookings

import (
	"context"

	"github.com/fleetrent/fleetrent-backend/internal/database"
	"github.com/fleetrent/fleetrent-backend/internal/models"
	"gorm.io/gorm"
)

// Ledger stores booking records. Rows are only ever inserted through the
// reservation coordinator's transaction and are immutable afterwards.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// CreateInTx inserts a booking as part of an enclosing transaction. The
// coordinator owns the transaction; calling this outside one would bypass
// the availability flip it must pair with.
func (l *Ledger) CreateInTx(tx *gorm.DB, customerID, vehicleID uint) (*models.Booking, error) {
	booking := models.Booking{
		CustomerID: customerID,
		VehicleID:  vehicleID,
		Status:     models.BookingStatusBooked,
	}
	if err := tx.Create(&booking).Error; err != nil {
		return nil, database.StorageError(err)
	}
	return &booking, nil
}

// BookingView is a booking joined with the vehicle it references, shaped for
// presentation.
type BookingView struct {
	ID          uint                 `json:"id"`
	VehicleID   uint                 `json:"vehicleId"`
	VehicleName string               `json:"vehicleName"`
	VehicleType string               `json:"vehicleType"`
	Status      models.BookingStatus `json:"status"`
}

// ListByCustomer returns a customer's bookings in insertion order, each
// carrying the referenced vehicle's display name.
func (l *Ledger) ListByCustomer(ctx context.Context, customerID uint) ([]BookingView, error) {
	var views []BookingView
	err := l.db.WithContext(ctx).Model(&models.Booking{}).
		Select("bookings.id, bookings.vehicle_id, vehicles.vehicle_name, vehicles.vehicle_type, bookings.status").
		Joins("JOIN vehicles ON vehicles.id = bookings.vehicle_id").
		Where("bookings.customer_id = ?", customerID).
		Order("bookings.id").
		Scan(&views).Error
	if err != nil {
		return nil, database.StorageError(err)
	}
	return views, nil
}

// CountBookedForVehicle reports how many bookings hold booked status for one
// vehicle. Used to check the availability invariant in tests.
func (l *Ledger) CountBookedForVehicle(ctx context.Context, vehicleID uint) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.Booking{}).
		Where("vehicle_id = ? AND status = ?", vehicleID, models.BookingStatusBooked).
		Count(&count).Error
	if err != nil {
		return 0, database.StorageError(err)
	}
	return count, nil
}
