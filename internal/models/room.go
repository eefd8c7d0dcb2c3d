package models

// Room is the stored document from the "rooms" collection.
type Room struct {
	ID           string  `json:"id"`
	HotelID      string  `json:"hotelId"`
	CategoryID   string  `json:"categoryId"`
	RoomNo       string  `json:"roomNo"`
	Price        float64 `json:"price"`
	Status       string  `json:"status"`
	PropertyType string  `json:"propertyType"`
}

// ResolvedRoom is a room with its category and hotel names joined in at
// read time. Missing references resolve to "Unknown".
type ResolvedRoom struct {
	Room
	CategoryName string `json:"categoryName"`
	HotelName    string `json:"hotelName,omitempty"`
}

type Category struct {
	ID           string `json:"id"`
	CategoryName string `json:"categoryName"`
}

type Hotel struct {
	ID        string `json:"id"`
	HotelName string `json:"hotelName"`
}
