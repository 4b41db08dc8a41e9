package domain

import "slices"

// AllCategories is the filter sentinel meaning "no category filter"
const AllCategories = "Semua Kategori"

// DefaultCategory is the catch-all category
const DefaultCategory = "Lainnya"

// Categories lists the selectable categories in display order. The last
// entry is the default.
var Categories = []string{
	"Performa (Lambat/Hang)",
	"Tampilan (Layar/Grafis)",
	"Jaringan (WiFi/LAN)",
	"Penyimpanan (HDD/SSD)",
	"Suhu (Overheating)",
	"Booting (Tidak Nyala/BSOD)",
	"Audio",
	"Peripheral (USB/Keyboard/Mouse)",
	"Power (Baterai/Charger)",
	DefaultCategory,
}

// IsCategory reports whether c is one of Categories
func IsCategory(c string) bool {
	return slices.Contains(Categories, c)
}

// NormalizeCategory maps empty or unknown values to DefaultCategory
func NormalizeCategory(c string) string {
	if IsCategory(c) {
		return c
	}
	return DefaultCategory
}

// FilterOptions returns the category choices for filters: the sentinel
// followed by every category.
func FilterOptions() []string {
	return append([]string{AllCategories}, Categories...)
}
