package model

// Catalog partitions categories and products into the two storefront menus.
type Catalog string

const (
	CatalogDrinks    Catalog = "drinks"
	CatalogCocktails Catalog = "cocktails"
)

// ParseCatalog returns the catalog named by s, or false when s is not a known catalog.
func ParseCatalog(s string) (Catalog, bool) {
	switch Catalog(s) {
	case CatalogDrinks, CatalogCocktails:
		return Catalog(s), true
	}
	return "", false
}

func (c Catalog) String() string { return string(c) }
