package feed

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
)

// Canonical field names, matched case-insensitively as substrings of the CSV headers.
var fieldNames = [...]string{
	"transectId", "latitude", "longitude", "date",
	"erosionRate", "shorelineChange", "uncertainty", "location",
}

const (
	fTransectID = iota
	fLatitude
	fLongitude
	fDate
	fErosionRate
	fShorelineChange
	fUncertainty
	fLocation
)

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// ParseCSV converts feed text into shoreline points. The first header whose
// lowercase form contains a canonical field name supplies that field. Rows are
// split on plain commas; quoted fields are not supported. Rows without a
// non-zero latitude and longitude are dropped.
func ParseCSV(text string) []models.ShorelinePoint {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	headers := strings.Split(strings.TrimSuffix(lines[0], "\r"), ",")

	var idx [len(fieldNames)]int
	for i, name := range fieldNames {
		idx[i] = headerIndex(headers, name)
	}

	points := make([]models.ShorelinePoint, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(strings.TrimSuffix(line, "\r"), ",")
		field := func(f int) string {
			if i := idx[f]; i >= 0 && i < len(values) {
				return values[i]
			}
			return ""
		}

		p := models.ShorelinePoint{
			TransectID:      field(fTransectID),
			Latitude:        parseLeadingFloat(field(fLatitude)),
			Longitude:       parseLeadingFloat(field(fLongitude)),
			Date:            field(fDate),
			ErosionRate:     parseLeadingFloat(field(fErosionRate)),
			ShorelineChange: parseLeadingFloat(field(fShorelineChange)),
			Uncertainty:     parseLeadingFloat(field(fUncertainty)),
			Location:        field(fLocation),
		}
		if !p.HasPosition() {
			continue
		}
		if p.TransectID == "" {
			p.TransectID = randomTransectID()
		}
		if p.Location == "" {
			p.Location = "Unknown"
		}
		points = append(points, p)
	}
	return points
}

func headerIndex(headers []string, name string) int {
	name = strings.ToLower(name)
	for i, h := range headers {
		if strings.Contains(strings.ToLower(h), name) {
			return i
		}
	}
	return -1
}

// parseLeadingFloat parses the longest numeric prefix of s after leading
// whitespace ("12.5m" is 12.5). Anything without a numeric prefix is 0.
func parseLeadingFloat(s string) float64 {
	m := leadingFloat.FindString(strings.TrimLeft(s, " \t"))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

func randomTransectID() string {
	var b strings.Builder
	b.WriteString("T-")
	for range 9 {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return b.String()
}
