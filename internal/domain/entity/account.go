package entity

import "time"

// Account is a row of the credit ledger, keyed by the identity email
type Account struct {
	Email     string    `json:"email"`
	Credits   int       `json:"credits"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanGenerate reports whether the balance covers one more invoice
func (a *Account) CanGenerate() bool {
	return a != nil && a.Credits > 0
}
