package feed

import "github.com/kjstillabower/coastal-change-dashboard/internal/models"

// FallbackPoints returns the fixed Massachusetts sample served when neither the
// feed nor the proxy answers. Boston Harbor shows accretion; the rest erode.
func FallbackPoints() []models.ShorelinePoint {
	return []models.ShorelinePoint{
		{TransectID: "CC-001", Latitude: 42.0565, Longitude: -70.1844, Date: "2000-01-01", ErosionRate: -0.5, ShorelineChange: -10, Uncertainty: 2, Location: "Cape Cod"},
		{TransectID: "CC-002", Latitude: 42.0544, Longitude: -70.1833, Date: "2010-01-01", ErosionRate: -0.7, ShorelineChange: -17, Uncertainty: 2, Location: "Cape Cod"},
		{TransectID: "CC-003", Latitude: 42.0523, Longitude: -70.1822, Date: "2018-01-01", ErosionRate: -0.8, ShorelineChange: -22, Uncertainty: 2, Location: "Cape Cod"},

		{TransectID: "MV-001", Latitude: 41.4108, Longitude: -70.5652, Date: "2000-01-01", ErosionRate: -1.2, ShorelineChange: -24, Uncertainty: 3, Location: "Martha's Vineyard"},
		{TransectID: "MV-002", Latitude: 41.4120, Longitude: -70.5630, Date: "2010-01-01", ErosionRate: -1.5, ShorelineChange: -39, Uncertainty: 3, Location: "Martha's Vineyard"},
		{TransectID: "MV-003", Latitude: 41.4132, Longitude: -70.5608, Date: "2018-01-01", ErosionRate: -1.8, ShorelineChange: -54, Uncertainty: 3, Location: "Martha's Vineyard"},

		{TransectID: "BH-001", Latitude: 42.3305, Longitude: -70.9709, Date: "2000-01-01", ErosionRate: 0.3, ShorelineChange: 6, Uncertainty: 2, Location: "Boston Harbor"},
		{TransectID: "BH-002", Latitude: 42.3299, Longitude: -70.9695, Date: "2010-01-01", ErosionRate: 0.4, ShorelineChange: 10, Uncertainty: 2, Location: "Boston Harbor"},
		{TransectID: "BH-003", Latitude: 42.3293, Longitude: -70.9681, Date: "2018-01-01", ErosionRate: 0.5, ShorelineChange: 14, Uncertainty: 2, Location: "Boston Harbor"},
	}
}
