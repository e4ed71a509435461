package models

// Requests and response bodies of the analysis HTTP surface. Field names follow
// the dashboard contract, hence the mixed casing.

// EventsRequest overrides the correlation window. An explicit 0 is kept.
type EventsRequest struct {
	WindowDays int `query:"window_days" json:"window_days" default:"30" validate:"gte=0,lte=3650"`
}

type RunsRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}

type PriceDTO struct {
	Date  string  `json:"Date"`
	Price float64 `json:"Price"`
}

type PreprocessedDTO struct {
	Date        string  `json:"Date"`
	Price       float64 `json:"Price"`
	LogReturns  float64 `json:"Log_Returns"`
	EventName   string  `json:"Event_Name"`
	Description string  `json:"Description"`
}

type EventDTO struct {
	Date        string `json:"Date"`
	EventName   string `json:"Event_Name"`
	Description string `json:"Description"`
}

type ModelResultsDTO struct {
	ChangePointDate string  `json:"change_point_date"`
	Mu1Post         float64 `json:"mu_1_post"`
	Mu2Post         float64 `json:"mu_2_post"`
	Sigma1Post      float64 `json:"sigma_1_post"`
	Sigma2Post      float64 `json:"sigma_2_post"`
}

// AllDataResponse is the body of GET /api/all_data.
type AllDataResponse struct {
	PricesRaw        []PriceDTO        `json:"prices_raw"`
	PreprocessedData []PreprocessedDTO `json:"preprocessed_data"`
	ModelResults     ModelResultsDTO   `json:"model_results"`
	RelevantEvents   []EventDTO        `json:"relevant_events"`
}

type TauBinDTO struct {
	Index int    `json:"index"`
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// PosteriorDTO extends model_results with the posterior description.
type PosteriorDTO struct {
	ModelResultsDTO
	Tau          int            `json:"tau"`
	TauLowDate   string         `json:"tau_low_date"`
	TauHighDate  string         `json:"tau_high_date"`
	Draws        int            `json:"draws"`
	Chains       int            `json:"chains"`
	Trace        []ParamSummary `json:"trace"`
	TauHistogram []TauBinDTO    `json:"tau_histogram"`
}

type EventsResponse struct {
	ChangePointDate string     `json:"change_point_date"`
	WindowDays      int        `json:"window_days"`
	Events          []EventDTO `json:"events"`
}

type RunRecordDTO struct {
	RunID           string  `json:"run_id"`
	Trigger         string  `json:"trigger"`
	Engine          string  `json:"engine"`
	State           string  `json:"state"`
	StartedAt       string  `json:"started_at"`
	DurationMs      int64   `json:"duration_ms"`
	ChangePointDate string  `json:"change_point_date,omitempty"`
	Mu1Post         float64 `json:"mu_1_post"`
	Mu2Post         float64 `json:"mu_2_post"`
	Sigma1Post      float64 `json:"sigma_1_post"`
	Sigma2Post      float64 `json:"sigma_2_post"`
	Error           string  `json:"error,omitempty"`
}
