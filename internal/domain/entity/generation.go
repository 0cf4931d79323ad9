package entity

import "time"

// Generation records one successful invoice render that consumed a credit
type Generation struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	CompanyName string    `json:"company_name"`
	ClientName  string    `json:"client_name"`
	ItemCount   int       `json:"item_count"`
	SkipCount   int       `json:"skip_count"`
	GrandTotal  float64   `json:"grand_total"`
	StoragePath string    `json:"storage_path"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
