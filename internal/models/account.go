package models

// Account is a user's bank account. The core only reads accounts to verify
// ownership; balances are derived elsewhere.
type Account struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}
