package masterdata

import (
	"fmt"
	"strconv"
	"strings"
)

// UOMPerEach is the total volume of one each: units times volume per unit.
func UOMPerEach(unitsPerEach, volumePerUnit float64) float64 {
	if unitsPerEach == 0 || volumePerUnit == 0 {
		return 0
	}
	return unitsPerEach * volumePerUnit
}

// PackSizeName builds the canonical pack size label, e.g. "12x1 l/case",
// or "1 l/bottle" when there is a single unit per each.
func PackSizeName(unitsPerEach, volumePerUnit float64, unitsOfUnits, packageType string) string {
	if unitsPerEach == 0 || volumePerUnit == 0 || unitsOfUnits == "" || packageType == "" {
		return ""
	}
	unit := strings.ToLower(unitsOfUnits)
	pkg := strings.ToLower(packageType)
	if unitsPerEach == 1 {
		return fmt.Sprintf("%s %s/%s", formatNumber(volumePerUnit), unit, pkg)
	}
	return fmt.Sprintf("%sx%s %s/%s", formatNumber(unitsPerEach), formatNumber(volumePerUnit), unit, pkg)
}

// ItemName joins product name and pack size label.
func ItemName(productName, packSize string) string {
	if productName == "" || packSize == "" {
		return ""
	}
	return productName + " " + packSize
}

// formatNumber renders a float the way a person would type it, without a
// trailing ".0".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
