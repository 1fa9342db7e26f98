package models

// UsgsCoastalData is a shoreline change rate summary row from /api/usgs.
type UsgsCoastalData struct {
	ID            int64   `json:"id"`
	Location      string  `json:"location"`
	Year          int     `json:"year"`
	ErosionRate   float64 `json:"erosionRate"`
	Confidence    string  `json:"confidence"`
	DataSource    string  `json:"dataSource"`
	DatasetName   string  `json:"datasetName"`
	MethodType    string  `json:"methodType"`
	UnitOfMeasure string  `json:"unitOfMeasure"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

// UsgsCoastalDataset is one imported transect measurement from /api/usgs-datasets.
// Pointer fields are nullable on the backend.
type UsgsCoastalDataset struct {
	ID                int64    `json:"id"`
	TransectID        string   `json:"transectId"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	Location          string   `json:"location"`
	Region            string   `json:"region"`
	MeasurementDate   string   `json:"measurementDate"`
	ShorePosUncert    *float64 `json:"shorePosUncert"`
	ShorelinePosition *float64 `json:"shorelinePosition"`
	ShorelineChange   *float64 `json:"shorelineChange"`
	ErosionRate       *float64 `json:"erosionRate"`
	Metadata          string   `json:"metadata,omitempty"`
	DataSource        string   `json:"dataSource"`
	DatasetDOI        string   `json:"datasetDoi"`
	DataURL           string   `json:"dataUrl"`
}

// DatasetCount is the body of /api/usgs-datasets/count.
type DatasetCount struct {
	Count int64 `json:"count"`
}
