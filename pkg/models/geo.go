package models

// GeoResponse is a Nominatim GeoJSON search result. Only the feature
// coordinates are consumed; the first feature wins.
type GeoResponse struct {
	Features []GeoFeature `json:"features"`
}

// GeoFeature is one GeoJSON feature.
type GeoFeature struct {
	Geometry GeoGeometry `json:"geometry"`
}

// GeoGeometry holds the point coordinates as [longitude, latitude].
type GeoGeometry struct {
	Coordinates [2]float64 `json:"coordinates"`
}
