package seeders

import (
	"context"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"github.com/shashiranjanraj/parcelhub/config"
)

func init() {
	Register("admin_user", SeedAdmin)
	Register("demo_rider", SeedRider)
	Register("demo_parcel", SeedParcel)
}

// SeedAdmin creates the SEED_ADMIN_EMAIL account with the admin role.
func SeedAdmin(ctx context.Context, repos repositories.Set) error {
	now := models.Now()
	_, err := repos.Users.Insert(ctx, &models.User{
		Email:     config.Get("SEED_ADMIN_EMAIL", "admin@parcelhub.local"),
		Name:      "Administrator",
		Role:      models.RoleAdmin,
		CreatedAt: now,
		LastLogIn: now,
	})
	return err
}

// SeedRider files a pending rider application.
func SeedRider(ctx context.Context, repos repositories.Set) error {
	rider, err := models.NewRider(map[string]any{
		"email":  "rider@parcelhub.local",
		"name":   "Demo Rider",
		"region": "Dhaka",
		"phone":  "+8801700000000",
	}, models.Now())
	if err != nil {
		return err
	}
	_, err = repos.Riders.Insert(ctx, &rider)
	return err
}

// SeedParcel creates an unpaid parcel owned by the seeded admin. Parcels have
// no natural key, so running it twice creates two parcels.
func SeedParcel(ctx context.Context, repos repositories.Set) error {
	owner := config.Get("SEED_ADMIN_EMAIL", "admin@parcelhub.local")
	parcel, err := models.NewParcel(map[string]any{
		"parcel_type":    "document",
		"weight":         0.5,
		"receiver_name":  "Demo Receiver",
		"receiver_phone": "+8801800000000",
		"delivery_cost":  60,
	}, owner, models.Now())
	if err != nil {
		return err
	}
	_, err = repos.Parcels.Insert(ctx, &parcel)
	return err
}
