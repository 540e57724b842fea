package handler

// AmountRequest is the body shared by credit, debit, deposit, and withdraw.
type AmountRequest struct {
	Amount int64 `json:"amount"`
}

// AdjustRequest is the body for the administrative balance adjustment.
type AdjustRequest struct {
	Delta int64 `json:"delta"`
}

// TransferRequest is the HTTP request body for POST /transfers.
type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}
