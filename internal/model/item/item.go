package item

// Item is a named record held by the store. Items are immutable once created.
type Item struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
