package model

// UserIdentity is the display identity of a user. The users collection is
// owned by the authentication service; this service only reads it.
type UserIdentity struct {
	ID       string `bson:"user_id" json:"id"`
	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`
}
