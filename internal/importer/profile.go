package importer

// Profile describes the header names of a line-item CSV layout.
// Adding a new layout is just adding a new Profile to the profiles slice.
type Profile struct {
	Name        string
	NameCol     string
	PriceCol    string
	QuantityCol string
}

func (p Profile) requiredCols() []string {
	return []string{p.NameCol, p.PriceCol, p.QuantityCol}
}

// profiles are matched case-insensitively against every row until one fits.
var profiles = []Profile{
	{
		Name:        "en",
		NameCol:     "name",
		PriceCol:    "price",
		QuantityCol: "quantity",
	},
	{
		Name:        "en-short",
		NameCol:     "product",
		PriceCol:    "price",
		QuantityCol: "qty",
	},
	{
		Name:        "uk",
		NameCol:     "назва",
		PriceCol:    "ціна",
		QuantityCol: "кількість",
	},
	{
		Name:        "ru",
		NameCol:     "наименование",
		PriceCol:    "цена",
		QuantityCol: "количество",
	},
}
