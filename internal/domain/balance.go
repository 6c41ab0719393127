package domain

// Balance is the non-negative holding recorded for one symbol.
type Balance struct {
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

// Balances maps symbol to amount.
type Balances map[string]float64
