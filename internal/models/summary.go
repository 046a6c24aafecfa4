package models

// Summary backs the admin dashboard.
type Summary struct {
	TotalRevenue     float64         `json:"totalRevenue"`
	EventsByCategory []CategoryCount `json:"eventsByCategory"`
}

type CategoryCount struct {
	CategoryName string `bun:"category_name" json:"CategoryName"`
	EventCount   int    `bun:"event_count" json:"eventCount"`
}
