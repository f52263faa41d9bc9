package reservations_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/fleetrent/fleetrent-backend/internal/accounts"
	"github.com/fleetrent/fleetrent-backend/internal/bookings"
	"github.com/fleetrent/fleetrent-backend/internal/database"
	"github.com/fleetrent/fleetrent-backend/internal/fleet"
	"github.com/fleetrent/fleetrent-backend/internal/models"
	"github.com/fleetrent/fleetrent-backend/internal/reservations"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// These tests need a real postgres behind TEST_DATABASE_URL; the reservation
// contract is about the store's commit order and cannot be exercised against
// a fake.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping store-backed tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if err := db.Exec(`TRUNCATE bookings, vehicles, users RESTART IDENTITY CASCADE`).Error; err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return db
}

type fixture struct {
	db          *gorm.DB
	directory   *accounts.Directory
	registry    *fleet.Registry
	ledger      *bookings.Ledger
	coordinator *reservations.Coordinator
}

func newFixture(t *testing.T) *fixture {
	db := openTestDB(t)
	ledger := bookings.NewLedger(db)
	return &fixture{
		db:          db,
		directory:   accounts.NewDirectory(db),
		registry:    fleet.NewRegistry(db),
		ledger:      ledger,
		coordinator: reservations.NewCoordinator(db, ledger),
	}
}

func (f *fixture) mustRegister(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	user, err := f.directory.Register(context.Background(), username, "secret123", role)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func (f *fixture) mustAddVehicle(t *testing.T, ownerID uint, name, vehicleType string) *models.Vehicle {
	t.Helper()
	vehicle, err := f.registry.AddVehicle(context.Background(), ownerID, name, vehicleType)
	if err != nil {
		t.Fatalf("add vehicle %s: %v", name, err)
	}
	return vehicle
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustRegister(t, "alice", models.RoleCustomer)

	_, err := f.directory.Register(ctx, "alice", "pw2", models.RoleOwner)
	if !errors.Is(err, accounts.ErrDuplicateUsername) {
		t.Fatalf("err = %v, want ErrDuplicateUsername", err)
	}
}

func TestRegisterConcurrentSameUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.directory.Register(ctx, "contested", "secret123", models.RoleCustomer)
		}(i)
	}
	wg.Wait()

	var wins, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, accounts.ErrDuplicateUsername):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || duplicates != callers-1 {
		t.Fatalf("wins = %d, duplicates = %d, want 1 and %d", wins, duplicates, callers-1)
	}

	var count int64
	if err := f.db.Model(&models.User{}).Where("username = ?", "contested").Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("stored accounts = %d, want 1", count)
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustRegister(t, "alice", models.RoleCustomer)

	user, err := f.directory.Authenticate(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Role != models.RoleCustomer {
		t.Errorf("role = %s, want customer", user.Role)
	}

	if _, err := f.directory.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, accounts.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := f.directory.Authenticate(ctx, "nobody", "secret123"); !errors.Is(err, accounts.ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v, want ErrInvalidCredentials", err)
	}
}

func TestDirectoryGetUnknownAccount(t *testing.T) {
	f := newFixture(t)

	if _, err := f.directory.Get(context.Background(), 999); !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestSeededAdminCanLogIn(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "admin123")
	f := newFixture(t)
	ctx := context.Background()

	// openTestDB truncates after migrating; reseed to simulate first run
	if err := database.SeedAdmin(f.db); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	admin, err := f.directory.Authenticate(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("authenticate admin: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Fatalf("role = %s, want admin", admin.Role)
	}

	// Seeding again must not create a second admin
	if err := database.SeedAdmin(f.db); err != nil {
		t.Fatalf("reseed admin: %v", err)
	}
	var count int64
	if err := f.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if count != 1 {
		t.Fatalf("admin accounts = %d, want 1", count)
	}
}

func TestAddVehicleListedAsAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.mustRegister(t, "ovidio", models.RoleOwner)
	vehicle := f.mustAddVehicle(t, owner.ID, "Civic", "car")

	if vehicle.Availability != models.VehicleAvailable {
		t.Fatalf("availability = %s, want available", vehicle.Availability)
	}

	available, err := f.registry.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	found := false
	for _, v := range available {
		if v.ID == vehicle.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("new vehicle missing from available list")
	}

	mine, err := f.registry.ListByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != vehicle.ID {
		t.Fatalf("owner list = %+v, want the one vehicle", mine)
	}
}

func TestAddVehicleRejectsUnknownOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.registry.AddVehicle(ctx, 999, "Civic", "car"); !errors.Is(err, fleet.ErrOwnerNotFound) {
		t.Fatalf("err = %v, want ErrOwnerNotFound", err)
	}

	// Customer accounts cannot own fleet vehicles either
	customer := f.mustRegister(t, "carl", models.RoleCustomer)
	if _, err := f.registry.AddVehicle(ctx, customer.ID, "Civic", "car"); !errors.Is(err, fleet.ErrOwnerNotFound) {
		t.Fatalf("err = %v, want ErrOwnerNotFound for customer owner", err)
	}
}

func TestReserveFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.mustRegister(t, "ovidio", models.RoleOwner)
	alice := f.mustRegister(t, "alice", models.RoleCustomer)
	bob := f.mustRegister(t, "bob", models.RoleCustomer)
	vehicle := f.mustAddVehicle(t, owner.ID, "Civic", "car")

	booking, err := f.coordinator.Reserve(ctx, alice.ID, vehicle.ID)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if booking.Status != models.BookingStatusBooked {
		t.Errorf("status = %s, want booked", booking.Status)
	}

	availability, err := f.registry.GetAvailability(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("get availability: %v", err)
	}
	if availability != models.VehicleBooked {
		t.Errorf("availability = %s, want booked", availability)
	}

	views, err := f.ledger.ListByCustomer(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(views) != 1 || views[0].VehicleName != "Civic" {
		t.Fatalf("bookings = %+v, want one referencing Civic", views)
	}

	// Second attempt loses without mutating anything
	if _, err := f.coordinator.Reserve(ctx, bob.ID, vehicle.ID); !errors.Is(err, reservations.ErrAlreadyBooked) {
		t.Fatalf("second reserve err = %v, want ErrAlreadyBooked", err)
	}
	bobViews, err := f.ledger.ListByCustomer(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list bob bookings: %v", err)
	}
	if len(bobViews) != 0 {
		t.Fatalf("bob bookings = %+v, want none", bobViews)
	}

	// Availability invariant: booked iff a booked booking references it
	count, err := f.ledger.CountBookedForVehicle(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("count booked: %v", err)
	}
	if count != 1 {
		t.Fatalf("booked bookings = %d, want 1", count)
	}
}

func TestReserveVehicleNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.mustRegister(t, "alice", models.RoleCustomer)

	if _, err := f.coordinator.Reserve(ctx, alice.ID, 999); !errors.Is(err, fleet.ErrVehicleNotFound) {
		t.Fatalf("err = %v, want ErrVehicleNotFound", err)
	}
}

func TestReserveRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.mustRegister(t, "ovidio", models.RoleOwner)
	vehicle := f.mustAddVehicle(t, owner.ID, "Civic", "car")

	const callers = 16
	customers := make([]*models.User, callers)
	for i := range customers {
		customers[i] = f.mustRegister(t, fmt.Sprintf("customer%02d", i), models.RoleCustomer)
	}

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.coordinator.Reserve(ctx, customers[i].ID, vehicle.ID)
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, reservations.ErrAlreadyBooked):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != callers-1 {
		t.Fatalf("wins = %d, losses = %d, want 1 and %d", wins, losses, callers-1)
	}

	count, err := f.ledger.CountBookedForVehicle(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("count booked: %v", err)
	}
	if count != 1 {
		t.Fatalf("booked bookings = %d, want exactly 1", count)
	}

	availability, err := f.registry.GetAvailability(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("get availability: %v", err)
	}
	if availability != models.VehicleBooked {
		t.Fatalf("availability = %s, want booked", availability)
	}
}

func TestReserveDifferentVehiclesDoNotContend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.mustRegister(t, "ovidio", models.RoleOwner)
	alice := f.mustRegister(t, "alice", models.RoleCustomer)
	bob := f.mustRegister(t, "bob", models.RoleCustomer)
	civic := f.mustAddVehicle(t, owner.ID, "Civic", "car")
	vespa := f.mustAddVehicle(t, owner.ID, "Vespa", "scooter")

	var wg sync.WaitGroup
	var errA, errB error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errA = f.coordinator.Reserve(ctx, alice.ID, civic.ID)
	}()
	go func() {
		defer wg.Done()
		_, errB = f.coordinator.Reserve(ctx, bob.ID, vespa.ID)
	}()
	wg.Wait()

	if errA != nil || errB != nil {
		t.Fatalf("reserves on distinct vehicles failed: %v, %v", errA, errB)
	}
}
