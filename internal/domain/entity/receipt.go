package entity

// ReceiptHeader holds the shop details printed at the top of a receipt.
type ReceiptHeader struct {
	ShopName string `json:"shop_name"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	GSTIN    string `json:"gstin,omitempty"`
}

// ReceiptLine is a single bill line as printed.
type ReceiptLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

// Receipt is a printable view of a bill. It is not stored; amounts are
// already formatted to two places.
type Receipt struct {
	Header        ReceiptHeader `json:"header"`
	BillNumber    string        `json:"bill_number"`
	Date          string        `json:"date"`
	BillType      string        `json:"bill_type"`
	BillCategory  string        `json:"bill_category"`
	Customer      string        `json:"customer,omitempty"`
	CustomerPhone string        `json:"customer_phone,omitempty"`
	Lines         []ReceiptLine `json:"lines"`
	Subtotal      string        `json:"subtotal"`
	GSTPercentage string        `json:"gst_percentage,omitempty"`
	GSTAmount     string        `json:"gst_amount,omitempty"`
	Total         string        `json:"total"`
	PaymentStatus string        `json:"payment_status"`
	PaymentMethod string        `json:"payment_method"`
	Paid          string        `json:"paid"`
	Balance       string        `json:"balance"`
}
