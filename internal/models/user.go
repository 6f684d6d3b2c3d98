package models

import "time"

// User is a member of editorial staff, mirrored from identity provider claims
// so reminders can be addressed to authors by subject.
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Sub       string    `bson:"sub" json:"sub"` // OIDC subject, also the actor ID
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	Roles     []string  `bson:"roles,omitempty" json:"roles,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
