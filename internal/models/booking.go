package models

import (
	"gorm.io/gorm"
)

type BookingStatus string

// The only status in the current flow. A return/cancellation flow would add
// its own value here plus a booked -> available vehicle transition.
const (
	BookingStatusBooked BookingStatus = "booked"
)

type Booking struct {
	gorm.Model
	CustomerID uint          `json:"customerId" gorm:"column:customer_id;not null;index"`
	Customer   User          `json:"-"`
	VehicleID  uint          `json:"vehicleId" gorm:"column:vehicle_id;not null;index"`
	Vehicle    Vehicle       `json:"-"`
	Status     BookingStatus `json:"status" gorm:"column:status;not null;default:'booked'"`
}

// TableName specifies the table name
func (Booking) TableName() string {
	return "bookings"
}
