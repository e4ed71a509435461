package models

import "time"

// TauBin counts posterior draws that put the change point on Date.
type TauBin struct {
	Index int
	Date  time.Time
	Count int
}

// PointEstimate reduces a posterior to the values the surface reports.
type PointEstimate struct {
	Tau             int
	ChangePointDate time.Time
	Mu1             float64
	Mu2             float64
	Sigma1          float64
	Sigma2          float64

	// Supplementary posterior description.
	TauLow       time.Time
	TauHigh      time.Time
	TauHistogram []TauBin
	Trace        []ParamSummary
	Draws        int
	Chains       int
}

// AnalysisResult is the immutable outcome of one successful run.
type AnalysisResult struct {
	Digest         string
	PricesRaw      []PricePoint
	Preprocessed   []PreprocessedRow
	Returns        ReturnSeries
	Events         []EventRecord
	Estimate       PointEstimate
	RelevantEvents []EventRecord
	WindowDays     int
}
