package service

import (
	"context"
	"time"

	"github.com/jask/pathoscreen/internal/database"
	"github.com/jask/pathoscreen/internal/database/repository"
	"github.com/jask/pathoscreen/internal/logx"
	"github.com/jask/pathoscreen/internal/screening"
)

// AnalysisService runs one analysis attempt and keeps the local history.
type AnalysisService struct {
	Analyzer screening.Analyzer
	History  *repository.AnalysisRepo // optional

	now func() time.Time
}

// Run calls the analyzer and records the outcome. History failures are logged
// and never change the outcome handed back to the screen.
func (s *AnalysisService) Run(ctx context.Context, req screening.AnalysisRequest) (screening.AnalysisResult, error) {
	start := time.Now()
	res, err := s.Analyzer.Analyze(ctx, req)
	event := logx.Info()
	if err != nil {
		event = logx.Warn().Err(err)
	}
	event.
		Str("request_id", req.ID).
		Str("variant", req.Variant.Tag).
		Str("organ", req.Organ).
		Dur("elapsed", time.Since(start)).
		Msg("analysis finished")

	s.record(ctx, req, res, err)
	return res, err
}

// Recent lists history, newest first.
func (s *AnalysisService) Recent(ctx context.Context, limit int) ([]repository.Analysis, error) {
	if s.History == nil {
		return nil, nil
	}
	return s.History.List(ctx, limit)
}

func (s *AnalysisService) record(ctx context.Context, req screening.AnalysisRequest, res screening.AnalysisResult, runErr error) {
	if s.History == nil {
		return
	}
	row := repository.Analysis{
		ID:              req.ID,
		Variant:         req.Variant.Tag,
		Organ:           req.Organ,
		ClinicalContext: req.ClinicalContext,
		ImageName:       req.Image.Name,
		CreatedAt:       s.clock(),
	}
	if runErr != nil {
		row.Status = repository.StatusFailed
		row.Error = runErr.Error()
	} else {
		row.Status = repository.StatusCompleted
		row.Observations = res.Observations
		row.Diagnosis = res.Diagnosis
		row.Confidence = res.Confidence
		row.Disclaimer = res.Disclaimer
	}
	// the screen may already be gone; the history row should still land
	if err := s.History.Record(context.WithoutCancel(ctx), row); err != nil {
		logx.Error().Err(err).Str("request_id", req.ID).Msg("record analysis history")
	}
}

func (s *AnalysisService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return database.Now()
}
