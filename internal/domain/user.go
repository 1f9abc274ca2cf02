package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between principals calling the API
type Role string

// Define constants for roles
const (
	RoleUser    Role = "user"    // a coached member
	RoleService Role = "service" // internal worker/trigger callers
)

// User represents an account in the system. Body metrics live here (not on
// the fitness profile) because they are shown and edited all over the app,
// while the profile is coaching-specific.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"` // Should be unique
	Role          Role               `bson:"role" json:"role"`
	HeightCm      float64            `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	CurrentWeight float64            `bson:"currentWeightKg,omitempty" json:"currentWeightKg,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsService() bool {
	return u.Role == RoleService
}
