package usecase

import (
	"time"

	"RegimeShift/internal/domain/models"
)

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

// ToModelResults renders the point estimate in the dashboard shape.
func ToModelResults(e models.PointEstimate) models.ModelResultsDTO {
	return models.ModelResultsDTO{
		ChangePointDate: day(e.ChangePointDate),
		Mu1Post:         e.Mu1,
		Mu2Post:         e.Mu2,
		Sigma1Post:      e.Sigma1,
		Sigma2Post:      e.Sigma2,
	}
}

func ToEventDTOs(evs []models.EventRecord) []models.EventDTO {
	out := make([]models.EventDTO, 0, len(evs))
	for _, e := range evs {
		out = append(out, models.EventDTO{Date: day(e.Date), EventName: e.Name, Description: e.Description})
	}
	return out
}

// ToAllData builds the combined payload of a ready result.
func ToAllData(r *models.AnalysisResult) models.AllDataResponse {
	prices := make([]models.PriceDTO, 0, len(r.PricesRaw))
	for _, p := range r.PricesRaw {
		prices = append(prices, models.PriceDTO{Date: day(p.Date), Price: p.Price})
	}
	rows := make([]models.PreprocessedDTO, 0, len(r.Preprocessed))
	for _, p := range r.Preprocessed {
		rows = append(rows, models.PreprocessedDTO{
			Date:        day(p.Date),
			Price:       p.Price,
			LogReturns:  p.LogReturn,
			EventName:   p.EventName,
			Description: p.Description,
		})
	}
	return models.AllDataResponse{
		PricesRaw:        prices,
		PreprocessedData: rows,
		ModelResults:     ToModelResults(r.Estimate),
		RelevantEvents:   ToEventDTOs(r.RelevantEvents),
	}
}

// ToPosterior adds the posterior description to the model results.
func ToPosterior(e models.PointEstimate) models.PosteriorDTO {
	bins := make([]models.TauBinDTO, 0, len(e.TauHistogram))
	for _, b := range e.TauHistogram {
		bins = append(bins, models.TauBinDTO{Index: b.Index, Date: day(b.Date), Count: b.Count})
	}
	trace := e.Trace
	if trace == nil {
		trace = []models.ParamSummary{}
	}
	return models.PosteriorDTO{
		ModelResultsDTO: ToModelResults(e),
		Tau:             e.Tau,
		TauLowDate:      day(e.TauLow),
		TauHighDate:     day(e.TauHigh),
		Draws:           e.Draws,
		Chains:          e.Chains,
		Trace:           trace,
		TauHistogram:    bins,
	}
}

func ToEvents(changePoint time.Time, windowDays int, evs []models.EventRecord) models.EventsResponse {
	return models.EventsResponse{
		ChangePointDate: day(changePoint),
		WindowDays:      windowDays,
		Events:          ToEventDTOs(evs),
	}
}

// ToRunRecord flattens a terminal snapshot into a history row.
func ToRunRecord(s *models.Snapshot, trigger, engine string) models.RunRecord {
	rec := models.RunRecord{
		RunID:       s.RunID,
		Trigger:     trigger,
		Engine:      engine,
		State:       s.State,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}
	if s.Result != nil {
		e := s.Result.Estimate
		rec.Digest = s.Result.Digest
		rec.Tau = e.Tau
		rec.ChangePointDate = day(e.ChangePointDate)
		rec.Mu1, rec.Mu2 = e.Mu1, e.Mu2
		rec.Sigma1, rec.Sigma2 = e.Sigma1, e.Sigma2
	}
	if s.Failure != nil {
		rec.ErrorKind = string(s.Failure.Kind)
		rec.ErrorMessage = s.Failure.Message
	}
	return rec
}

func ToRunDTO(r models.RunRecord) models.RunRecordDTO {
	return models.RunRecordDTO{
		RunID:           r.RunID,
		Trigger:         r.Trigger,
		Engine:          r.Engine,
		State:           string(r.State),
		StartedAt:       r.StartedAt.UTC().Format(time.RFC3339),
		DurationMs:      r.Duration().Milliseconds(),
		ChangePointDate: r.ChangePointDate,
		Mu1Post:         r.Mu1,
		Mu2Post:         r.Mu2,
		Sigma1Post:      r.Sigma1,
		Sigma2Post:      r.Sigma2,
		Error:           r.ErrorMessage,
	}
}
