package contact

type Contact struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"-"`
	City      string `json:"city"`
	Street    string `json:"street"`
	House     string `json:"house"`
	Structure string `json:"structure"`
	Building  string `json:"building"`
	Apartment string `json:"apartment"`
	Phone     string `json:"phone"`
}

type CreateInput struct {
	City      string `json:"city" validate:"required,max=50"`
	Street    string `json:"street" validate:"required,max=100"`
	House     string `json:"house" validate:"max=15"`
	Structure string `json:"structure" validate:"max=15"`
	Building  string `json:"building" validate:"max=15"`
	Apartment string `json:"apartment" validate:"max=15"`
	Phone     string `json:"phone" validate:"required,max=20"`
}

// UpdateInput changes only the fields that are set.
type UpdateInput struct {
	ID        int64   `json:"id" validate:"required,gt=0"`
	City      *string `json:"city" validate:"omitempty,max=50"`
	Street    *string `json:"street" validate:"omitempty,max=100"`
	House     *string `json:"house" validate:"omitempty,max=15"`
	Structure *string `json:"structure" validate:"omitempty,max=15"`
	Building  *string `json:"building" validate:"omitempty,max=15"`
	Apartment *string `json:"apartment" validate:"omitempty,max=15"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

func (in UpdateInput) apply(c *Contact) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.City, in.City)
	set(&c.Street, in.Street)
	set(&c.House, in.House)
	set(&c.Structure, in.Structure)
	set(&c.Building, in.Building)
	set(&c.Apartment, in.Apartment)
	set(&c.Phone, in.Phone)
}
