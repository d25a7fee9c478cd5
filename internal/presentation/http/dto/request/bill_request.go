package request

// BillFilterRequest represents bill list parameters. Every value is
// optional and applied on its own.
type BillFilterRequest struct {
	Status     string `form:"status"`
	Type       string `form:"type"`
	Category   string `form:"category"`
	CustomerID string `form:"customer_id"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	Items      bool   `form:"items"`
	Page       string `form:"page"`
	PerPage    string `form:"per_page"`
}
