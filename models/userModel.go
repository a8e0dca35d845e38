package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleCounterStaff Role = "counter_staff"
	RoleCook         Role = "cook"
	RoleDriver       Role = "driver"
)

var Roles = []Role{RoleAdmin, RoleManager, RoleCounterStaff, RoleCook, RoleDriver}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type View string

const (
	ViewAll         View = "all"
	ViewPreparation View = "preparation"
	ViewExpedition  View = "expedition"
	ViewDelivery    View = "delivery"
)

func (v View) Valid() bool {
	switch v {
	case ViewAll, ViewPreparation, ViewExpedition, ViewDelivery:
		return true
	}
	return false
}

type Preferences struct {
	SoundNotifications bool `bson:"sound_notifications" json:"sound_notifications"`
	PreferredView      View `bson:"preferred_view" json:"preferred_view"`
}

func DefaultPreferences() Preferences {
	return Preferences{SoundNotifications: true, PreferredView: ViewAll}
}

type User struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"`
	Role       Role               `bson:"role" json:"role"`
	Active     bool               `bson:"active" json:"active"`
	Last_login *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	Settings   Preferences        `bson:"settings" json:"settings"`
	Created_at time.Time          `bson:"created_at" json:"created_at"`
	Updated_at time.Time          `bson:"updated_at" json:"updated_at"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    string
	Email string
	Role  Role
}
