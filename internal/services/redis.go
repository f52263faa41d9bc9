package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// BookingUpdatesChannel carries reservation events for any listener that
// wants them (dashboards, audit consumers).
const BookingUpdatesChannel = "booking:updates"

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// SetVehicleAvailability caches a vehicle's availability flag. The database
// stays the source of truth; the cache only feeds read-heavy listing views.
func SetVehicleAvailability(ctx context.Context, vehicleID uint, availability string) error {
	key := fmt.Sprintf("vehicle:availability:%d", vehicleID)
	return RedisClient.Set(ctx, key, availability, time.Hour).Err()
}

// GetVehicleAvailability retrieves a cached availability flag
func GetVehicleAvailability(ctx context.Context, vehicleID uint) (string, error) {
	key := fmt.Sprintf("vehicle:availability:%d", vehicleID)
	return RedisClient.Get(ctx, key).Result()
}

// PublishBookingUpdate publishes a reservation event to Redis pub/sub
func PublishBookingUpdate(ctx context.Context, bookingID, customerID, vehicleID uint) error {
	updateData := map[string]interface{}{
		"bookingId":  bookingID,
		"customerId": customerID,
		"vehicleId":  vehicleID,
		"status":     "booked",
		"timestamp":  time.Now().Unix(),
	}

	data, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, BookingUpdatesChannel, data).Err()
}

// PublishVehicleAdded publishes a fleet addition event to Redis pub/sub
func PublishVehicleAdded(ctx context.Context, vehicleID, ownerID uint, name string) error {
	updateData := map[string]interface{}{
		"vehicleId": vehicleID,
		"ownerId":   ownerID,
		"name":      name,
		"timestamp": time.Now().Unix(),
	}

	data, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "fleet:updates", data).Err()
}
