package types

// TimestampLayout is the wire and storage format of scan capture times.
const TimestampLayout = "2006-01-02 15:04:05"

// Scan is one identification event owned by a single user.
type Scan struct {
	ID int64 `json:"id" db:"id"`

	// Species is the name of the guessed species.
	Species string `json:"species" db:"species"`

	// Timestamp is the capture time supplied by the client, formatted with
	// TimestampLayout.
	Timestamp string `json:"timestamp" db:"timestamp"`

	ImageCount  int    `json:"image_count" db:"image_count"`
	AverageTime string `json:"average_time" db:"average_time"`

	// Image is the raw payload sent by the client, usually a base64 data URL.
	Image *string `json:"image" db:"image"`

	// ImageKey is set when Image was offloaded to object storage.
	ImageKey *string `json:"-" db:"image_key"`

	Latitude  *float64 `json:"latitude" db:"latitude"`
	Longitude *float64 `json:"longitude" db:"longitude"`

	// UserID is the owner of the scan.
	UserID int `json:"user_id" db:"user_id"`

	// SpeciesInfo is the reference entry matching Species, nil when the
	// species is unknown.
	SpeciesInfo *SpeciesInfo `json:"species_info"`
}

// ScanEvent is published after a scan has been stored.
type ScanEvent struct {
	ScanID    int64    `json:"scan_id"`
	UserID    int      `json:"user_id"`
	Species   string   `json:"species"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Analysis is the result of the placeholder species guess.
type Analysis struct {
	Species     string `json:"species"`
	Timestamp   string `json:"timestamp"`
	ImageCount  int    `json:"imageCount"`
	AverageTime string `json:"averageTime"`
}
