package entities

import "time"

// Card is an immutable snapshot of a payment card. UserID references the
// owning user.
type Card struct {
	ID             int64     `json:"id"`
	Number         string    `json:"number"`
	Holder         string    `json:"holder"`
	ExpirationDate time.Time `json:"expirationDate"`
	UserID         int64     `json:"userId"`
}
