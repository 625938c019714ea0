package model

// Listing は貸し出し物件（place）を表す。
type Listing struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	OwnerID     string   `json:"owner_id"`
	AmenityIDs  []string `json:"amenity_ids"`
}

// Amenity は物件の設備を表す。
type Amenity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Review は物件に対するレビューを表す。
type Review struct {
	ID      string `json:"id"`
	PlaceID string `json:"place_id"`
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
	Rating  int    `json:"rating"`
}
