package mapview

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
)

const referenceColor = "#0d6efd"

// FeatureCollection returns the features of the layer at index. Tile layers
// have none and return ErrLayerHasNoFeatures.
func (m *Map) FeatureCollection(index int) (*geojson.FeatureCollection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return nil, ErrDetached
	}
	if index < 0 || index >= len(m.layers) {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownLayer, index)
	}

	fc := geojson.NewFeatureCollection()
	switch m.layers[index].content {
	case contentReferencePoints:
		for i, place := range ReferencePath {
			f := geojson.NewFeature(place.Point)
			f.Properties["name"] = fmt.Sprintf("Point %d", i+1)
			f.Properties["location"] = place.Name
			f.Properties["style"] = MarkerStyle{Fill: referenceColor, Stroke: "white", StrokeWidth: 1, Radius: 4}
			fc.Append(f)
		}
	case contentReferenceLine:
		line := make(orb.LineString, len(ReferencePath))
		for i, place := range ReferencePath {
			line[i] = place.Point
		}
		f := geojson.NewFeature(line)
		f.Properties["stroke"] = referenceColor
		f.Properties["strokeWidth"] = 4
		fc.Append(f)
	case contentShorelinePoints:
		for _, p := range m.points {
			f := shorelineFeature(p)
			f.Properties["style"] = StyleFor(p.ErosionRate, p.Location)
			fc.Append(f)
		}
	case contentShorelineHeat:
		for _, p := range m.points {
			f := shorelineFeature(p)
			f.Properties["weight"] = HeatmapWeight(p.ErosionRate)
			fc.Append(f)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrLayerHasNoFeatures, m.layers[index].Title)
	}
	return fc, nil
}

func shorelineFeature(p models.ShorelinePoint) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{p.Longitude, p.Latitude})
	f.ID = p.TransectID
	f.Properties["transectId"] = p.TransectID
	f.Properties["location"] = p.Location
	f.Properties["date"] = p.Date
	f.Properties["erosionRate"] = p.ErosionRate
	f.Properties["shorelineChange"] = p.ShorelineChange
	f.Properties["uncertainty"] = p.Uncertainty
	return f
}
