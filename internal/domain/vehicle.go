package domain

// VehicleCategory classifies an arriving vehicle.
type VehicleCategory string

const (
	CategoryTwoWheeler   VehicleCategory = "TWO_WHEELER"
	CategoryThreeWheeler VehicleCategory = "THREE_WHEELER"
	CategoryFourWheeler  VehicleCategory = "FOUR_WHEELER"
	CategoryInvalid      VehicleCategory = "INVALID"
)

// ClassifyVehicle maps the external wheel-count code to a category.
func ClassifyVehicle(code int) VehicleCategory {
	switch code {
	case 2:
		return CategoryTwoWheeler
	case 3:
		return CategoryThreeWheeler
	case 4:
		return CategoryFourWheeler
	default:
		return CategoryInvalid
	}
}

// Tier returns the tier serving the category and false for CategoryInvalid.
func (c VehicleCategory) Tier() (Tier, bool) {
	switch c {
	case CategoryTwoWheeler:
		return Tier2, true
	case CategoryThreeWheeler, CategoryFourWheeler:
		return Tier1, true
	default:
		return 0, false
	}
}
