package models

// ColumnStats describes one numeric column, the way a dataframe describe() does.
type ColumnStats struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Q25     float64 `json:"q25"`
	Median  float64 `json:"median"`
	Q75     float64 `json:"q75"`
	Max     float64 `json:"max"`
}

// SeriesSummary is the exploratory summary of a dataset.
type SeriesSummary struct {
	From      string        `json:"from"`
	To        string        `json:"to"`
	Prices    int           `json:"prices"`
	Events    int           `json:"events"`
	Columns   []ColumnStats `json:"columns"`
	Histogram []HistBin     `json:"log_returns_histogram"`
}

// HistBin is one equal-width histogram bucket.
type HistBin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}
