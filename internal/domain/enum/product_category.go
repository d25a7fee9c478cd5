package enum

// ProductCategory groups products in the catalogue
type ProductCategory string

const (
	ProductCategoryPowerTool ProductCategory = "power-tool"
	ProductCategoryAccessory ProductCategory = "accessory"
	ProductCategorySparePart ProductCategory = "spare-part"
	ProductCategoryOther     ProductCategory = "other"
)

var ProductCategories = []ProductCategory{
	ProductCategoryPowerTool,
	ProductCategoryAccessory,
	ProductCategorySparePart,
	ProductCategoryOther,
}

func (c ProductCategory) String() string {
	return string(c)
}

func (c ProductCategory) IsValid() bool {
	return contains(ProductCategories, c)
}

func (c *ProductCategory) UnmarshalJSON(data []byte) error {
	v, err := unmarshalClosed(data, ProductCategories, "product category")
	if err != nil {
		return err
	}
	*c = v
	return nil
}
