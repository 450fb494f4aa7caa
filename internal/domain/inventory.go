package domain

// InventoryItem keeps the column names the shop client already uses.
type InventoryItem struct {
	ID             int64   `json:"id" db:"id"`
	ItemName       string  `json:"ItemName" db:"item_name"`
	Description    string  `json:"Description" db:"description"`
	Quantity       int     `json:"Quantity" db:"quantity"`
	WeightPerPiece float64 `json:"WeightPerPiece" db:"weight_per_piece"`
	TotalWeight    float64 `json:"TotalWeight" db:"total_weight"`
}

// RecomputeWeight sets TotalWeight from the per-piece weight and quantity.
func (i *InventoryItem) RecomputeWeight() {
	i.TotalWeight = i.WeightPerPiece * float64(i.Quantity)
}
