package product

import "github.com/google/uuid"

// Product is a catalog item. Records are seeded out-of-band and only
// ever read through the API.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Images      []string  `json:"images"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Sizes       []string  `json:"sizes"`
	Bestseller  bool      `json:"bestseller"`
	Date        int64     `json:"date"` // milliseconds since epoch
}
