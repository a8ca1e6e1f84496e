package models

import (
	"time"
)

/*
 Application layer data models.
*/

// Vec3 is a world-space position on the city model. The ground plane is XZ; Y is height.
type Vec3 struct {
	X float64 `bson:"x" json:"x"`
	Y float64 `bson:"y" json:"y"`
	Z float64 `bson:"z" json:"z"`
}

// Pin is a user-placed point of interest on the map, optionally tied to a district.
type Pin struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Type        string    `bson:"type,omitempty" json:"type,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	DistrictID  string    `bson:"districtId,omitempty" json:"districtId,omitempty"`
	Pos         Vec3      `bson:"pos" json:"pos"`
	OwnerID     string    `bson:"ownerId" json:"ownerId"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// OwnedBy reports whether the pin belongs to the given user.
func (p *Pin) OwnedBy(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

// Profile holds the Discord profile fields we persist into the session. The caller's
// role is never stored here - it is recomputed from the guild member list on demand.
type Profile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
}

func (u *Profile) Anonymous() bool {
	return u == nil || u.ID == ""
}
