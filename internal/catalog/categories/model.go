package categories

// Category represents a product category. Products reference it weakly by id.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
