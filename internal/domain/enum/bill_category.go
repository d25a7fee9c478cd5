package enum

// BillCategory classifies what a bill was raised for
type BillCategory string

const (
	BillCategorySales   BillCategory = "Sales"
	BillCategoryService BillCategory = "Service"
	BillCategoryRepair  BillCategory = "Repair"
)

var BillCategories = []BillCategory{BillCategorySales, BillCategoryService, BillCategoryRepair}

func (c BillCategory) String() string {
	return string(c)
}

func (c BillCategory) IsValid() bool {
	return contains(BillCategories, c)
}

func (c *BillCategory) UnmarshalJSON(data []byte) error {
	v, err := unmarshalClosed(data, BillCategories, "bill category")
	if err != nil {
		return err
	}
	*c = v
	return nil
}
