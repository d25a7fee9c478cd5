package enum

// BillType tells whether GST is charged on a bill
type BillType string

const (
	BillTypeGST    BillType = "GST"
	BillTypeNonGST BillType = "NON-GST"
)

// BillTypes lists every accepted bill type
var BillTypes = []BillType{BillTypeGST, BillTypeNonGST}

func (t BillType) String() string {
	return string(t)
}

// IsValid reports whether t is a known bill type
func (t BillType) IsValid() bool {
	return contains(BillTypes, t)
}

// NumberPrefix is the prefix used in bill numbers, e.g. GST2510-0001 or NON2510-0001
func (t BillType) NumberPrefix() string {
	if t == BillTypeGST {
		return "GST"
	}
	return "NON"
}

func (t *BillType) UnmarshalJSON(data []byte) error {
	v, err := unmarshalClosed(data, BillTypes, "bill type")
	if err != nil {
		return err
	}
	*t = v
	return nil
}
