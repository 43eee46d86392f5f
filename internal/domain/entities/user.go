package entities

import "time"

// User is an immutable snapshot of a user and the cards it owns at read
// time. The embedded card list is materialized when the snapshot is built
// and is not kept live: any card mutation invalidates the cached snapshot.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	BirthDate time.Time `json:"birthDate"`
	Email     string    `json:"email"`
	Cards     []Card    `json:"cards"`
}

// FullName returns "name surname", the form a card holder must match.
func (u *User) FullName() string {
	return u.Name + " " + u.Surname
}
