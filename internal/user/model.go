package user

import "time"

type Type string

const (
	TypeBuyer Type = "buyer"
	TypeShop  Type = "shop"
)

type User struct {
	ID        int64
	Email     string
	Password  string
	Type      Type
	IsActive  bool
	CreatedAt time.Time
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Type     Type   `json:"type" validate:"omitempty,oneof=buyer shop"`
}
