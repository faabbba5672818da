package models

type MFloorsheetResponse struct {
	Success bool            `json:"success"`
	Data    MFloorsheetPage `json:"data"`
}

type MFloorsheetPage struct {
	TotalAmount float64           `json:"totalAmount"`
	TotalQty    float64           `json:"totalQty"`
	TotalTrades int64             `json:"totalTrades"`
	PageIndex   int               `json:"pageIndex"`
	TotalPages  int               `json:"totalPages"`
	TotalItems  int64             `json:"totalItems"`
	PageSize    int               `json:"pageSize"`
	Content     []MFloorsheetItem `json:"content"`
}

type MFloorsheetItem struct {
	ContractID       int64   `json:"contractId"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	BuyerMemberID    string  `json:"buyerMemberId"`
	SellerMemberID   string  `json:"sellerMemberId"`
	ContractQuantity float64 `json:"contractQuantity"`
	ContractRate     float64 `json:"contractRate"`
	ContractAmount   float64 `json:"contractAmount"`
	BusinessDate     string  `json:"businessDate"`
	IconURL          string  `json:"iconUrl,omitempty"`
}

// MFloorsheetQuery mirrors the upstream query parameters.
type MFloorsheetQuery struct {
	Size   int
	Page   int
	Symbol string
}
