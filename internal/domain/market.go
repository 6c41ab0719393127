package domain

// Quote is display-only market data for one coin id.
type Quote struct {
	Price float64 `json:"usd"`
	Image string  `json:"image,omitempty"`
}
