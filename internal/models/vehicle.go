package models

import (
	"gorm.io/gorm"
)

type Availability string

const (
	VehicleAvailable Availability = "available"
	VehicleBooked    Availability = "booked"
)

type Vehicle struct {
	gorm.Model
	OwnerID      uint         `json:"ownerId" gorm:"column:owner_id;not null;index"`
	Owner        User         `json:"-"`
	Name         string       `json:"name" gorm:"column:vehicle_name;not null"`
	Type         string       `json:"type" gorm:"column:vehicle_type;not null"`
	Availability Availability `json:"availability" gorm:"column:availability;not null;default:'available'"`
	PhotoURL     string       `json:"photoUrl" gorm:"column:photo_url;default:''"`
}

// TableName specifies the table name
func (Vehicle) TableName() string {
	return "vehicles"
}
