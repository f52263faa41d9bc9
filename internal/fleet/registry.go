package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetrent/fleetrent-backend/internal/database"
	"github.com/fleetrent/fleetrent-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrOwnerNotFound   = errors.New("owner account not found")
)

// Registry stores vehicles and their availability flag. Availability is only
// ever flipped by the reservation coordinator; the registry itself is
// read-mostly.
type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// AddVehicle registers a vehicle under an owner-role account. The owner
// reference is validated up front; vehicles start out available.
func (r *Registry) AddVehicle(ctx context.Context, ownerID uint, name, vehicleType string) (*models.Vehicle, error) {
	if name == "" || vehicleType == "" {
		return nil, fmt.Errorf("vehicle name and type required")
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ?", ownerID, models.RoleOwner).
		Count(&count).Error
	if err != nil {
		return nil, database.StorageError(err)
	}
	if count == 0 {
		return nil, ErrOwnerNotFound
	}

	vehicle := models.Vehicle{
		OwnerID:      ownerID,
		Name:         name,
		Type:         vehicleType,
		Availability: models.VehicleAvailable,
	}
	if err := r.db.WithContext(ctx).Create(&vehicle).Error; err != nil {
		return nil, database.StorageError(err)
	}
	return &vehicle, nil
}

// ListAll returns every vehicle in insertion order.
func (r *Registry) ListAll(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := r.db.WithContext(ctx).Order("id").Find(&vehicles).Error; err != nil {
		return nil, database.StorageError(err)
	}
	return vehicles, nil
}

// ListAvailable returns vehicles that can currently be reserved.
func (r *Registry) ListAvailable(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.WithContext(ctx).
		Where("availability = ?", models.VehicleAvailable).
		Order("id").
		Find(&vehicles).Error
	if err != nil {
		return nil, database.StorageError(err)
	}
	return vehicles, nil
}

// ListByOwner returns the vehicles registered under one owner.
func (r *Registry) ListByOwner(ctx context.Context, ownerID uint) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id").
		Find(&vehicles).Error
	if err != nil {
		return nil, database.StorageError(err)
	}
	return vehicles, nil
}

// Get looks up a single vehicle.
func (r *Registry) Get(ctx context.Context, vehicleID uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, database.StorageError(err)
	}
	return &vehicle, nil
}

// GetAvailability reports the current availability flag of a vehicle.
func (r *Registry) GetAvailability(ctx context.Context, vehicleID uint) (models.Availability, error) {
	vehicle, err := r.Get(ctx, vehicleID)
	if err != nil {
		return "", err
	}
	return vehicle.Availability, nil
}

// SetPhotoURL records the uploaded photo location for a vehicle.
func (r *Registry) SetPhotoURL(ctx context.Context, vehicleID uint, url string) error {
	result := r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("id = ?", vehicleID).
		Update("photo_url", url)
	if result.Error != nil {
		return database.StorageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVehicleNotFound
	}
	return nil
}
