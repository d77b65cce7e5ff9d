package models

// Address is the delivery address saved on a user profile.
type Address struct {
	State       string `json:"state"`
	City        string `json:"city"`
	AddressLine string `json:"address_line"`
}

// User represents the signed-in account as reported by GET /auth/me.
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	FullName     string   `json:"full_name"`
	Phone        string   `json:"phone"`
	IsAdmin      bool     `json:"is_admin"`
	IsVerified   bool     `json:"is_verified"`
	AuthProvider string   `json:"auth_provider,omitempty"`
	Address      *Address `json:"address,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
}
