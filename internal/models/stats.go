package models

// ReviewStats summarises the reviews a user has authored
type ReviewStats struct {
	Total      int64
	Scored     int64
	Flagged    int64
	AvgQuality float64 // over scored reviews only
	MaxPerDay  int64   // most reviews authored on one UTC calendar day
}
