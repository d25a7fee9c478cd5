package request

// CustomerFilterRequest represents customer list parameters
type CustomerFilterRequest struct {
	Search  string `form:"search"`
	Page    string `form:"page"`
	PerPage string `form:"per_page"`
}
