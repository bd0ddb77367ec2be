package shop

type Shop struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	URL        *string `json:"url"`
	State      bool    `json:"state"`
	UserID     *int64  `json:"-"`
	OwnerEmail string  `json:"-"`
}

type Filter struct {
	ShopID *int64
	// OnlyAccepting restricts the list to shops whose state is true.
	OnlyAccepting bool
}
