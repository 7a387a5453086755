package catalog

// Default returns the built-in bar menu used when no deployment menu
// file is configured.
func Default() *Catalog {
	c, err := New([]Item{
		{ID: "vodka", Name: "Vodka (0.02L)", Category: "alcoholic", UnitPrice: 2.30},
		{ID: "borovicka", Name: "Borovicka (0.02L)", Category: "alcoholic", UnitPrice: 2.10},
		{ID: "slivovica", Name: "Slivovica (0.02L)", Category: "alcoholic", UnitPrice: 2.50},
		{ID: "small_beer", Name: "Small Beer (0.3L)", Category: "alcoholic", UnitPrice: 2.30},
		{ID: "aperol_spritz", Name: "Aperol Spritz", Category: "alcoholic", UnitPrice: 4.50},
		{ID: "wine", Name: "Wine (0.2L)", Category: "alcoholic", UnitPrice: 3.50},
		{ID: "coca_cola", Name: "Coca cola (330ml)", Category: "non_alcoholic", UnitPrice: 2.50},
		{ID: "sprite", Name: "Sprite (330ml)", Category: "non_alcoholic", UnitPrice: 2.50},
		{ID: "fanta", Name: "Fanta (330ml)", Category: "non_alcoholic", UnitPrice: 2.50},
		{ID: "orange_juice", Name: "Orange Juice (330ml)", Category: "non_alcoholic", UnitPrice: 2.50},
		{ID: "apple_juice", Name: "Apple Juice (330ml)", Category: "non_alcoholic", UnitPrice: 2.50},
		{ID: "chips", Name: "Chips", Category: "snacks", UnitPrice: 2.20},
		{ID: "bread_sticks", Name: "Bread Sticks", Category: "snacks", UnitPrice: 2.40},
	})
	if err != nil {
		// The built-in menu is fixed at compile time
		panic(err)
	}
	return c
}
