package models

// User represents a registered user. Field names follow the backend
// contract (fio is the full name).
type User struct {
	ID    int    `json:"id"`
	FIO   string `json:"fio"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Ad represents a property listing.
type Ad struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	UserID        int      `json:"user_id"`
	Rooms         int      `json:"rooms"`
	City          string   `json:"city"`
	Address       string   `json:"address"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
	Photos        []string `json:"photos"`
	Price         int64    `json:"price"`
	AdType        string   `json:"ad_type"`
	HouseType     string   `json:"house_type"`
	Floor         int      `json:"floor"`
	FloorsInHouse int      `json:"floors_in_house"`
	YearBuilt     int      `json:"year_built"`
	Area          float64  `json:"area"`
	Complex       string   `json:"complex"`

	// Joined from the owner row for list/detail views.
	UserFIO   string `json:"user_fio,omitempty"`
	UserPhone string `json:"user_phone,omitempty"`
}

// AdFilter is a sparse set of predicates for the /ads listing.
// Zero-value fields impose no constraint; numeric bounds use pointers
// so that 0 remains a usable value.
type AdFilter struct {
	Title        string
	City         string
	Rooms        *int
	PriceMin     *int64
	PriceMax     *int64
	AdType       string
	HouseType    string
	FloorMin     *int
	FloorMax     *int
	YearBuiltMin *int
	YearBuiltMax *int
	AreaMin      *float64
	AreaMax      *float64
	Complex      string
}

// Message is a private message between two users. Timestamp is RFC3339.
type Message struct {
	ID         int    `json:"id"`
	FromUserID int    `json:"from_user_id"`
	ToUserID   int    `json:"to_user_id"`
	Text       string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// ChatPartner is one row of the conversation list: the peer plus the
// latest message exchanged with them.
type ChatPartner struct {
	PartnerID   int    `json:"partner_id"`
	PartnerName string `json:"partner_name"`
	LastMessage string `json:"message"`
	Timestamp   string `json:"timestamp"`
}
