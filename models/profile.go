package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Profile model holds the display data for a user. ProfileImg is an opaque
// asset key resolved against the configured image base URL.
type Profile struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     primitive.ObjectID `json:"userId" bson:"userId"`
	FirstName  string             `json:"firstName" bson:"firstName"`
	LastName   string             `json:"lastName,omitempty" bson:"lastName,omitempty"`
	ProfileImg string             `json:"profileImg" bson:"profileImg"`
}
