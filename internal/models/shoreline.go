package models

// ShorelinePoint is a single transect measurement from the shoreline change feed.
type ShorelinePoint struct {
	TransectID      string  `json:"transectId"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Date            string  `json:"date"`
	ErosionRate     float64 `json:"erosionRate"`
	ShorelineChange float64 `json:"shorelineChange"`
	Uncertainty     float64 `json:"uncertainty"`
	Location        string  `json:"location"`
}

// HasPosition reports whether both coordinates are set. Points without a
// position are dropped by the feed parser and never reach the map.
func (p ShorelinePoint) HasPosition() bool {
	return p.Latitude != 0 && p.Longitude != 0
}
