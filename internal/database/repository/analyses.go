package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// AnalysisRepo stores the local history of analysis attempts.
type AnalysisRepo struct {
	db *sql.DB
}

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{db: db} }

func (r *AnalysisRepo) Record(ctx context.Context, a Analysis) error {
	if a.Status != StatusCompleted && a.Status != StatusFailed {
		return fmt.Errorf("record analysis %s: unknown status %q", a.ID, a.Status)
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO analyses(id, variant, organ, clinical_context, image_name, status,
		observations, diagnosis, confidence, disclaimer, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		status=excluded.status,
		observations=excluded.observations,
		diagnosis=excluded.diagnosis,
		confidence=excluded.confidence,
		disclaimer=excluded.disclaimer,
		error=excluded.error;
	`, a.ID, a.Variant, a.Organ, a.ClinicalContext, a.ImageName, a.Status,
		a.Observations, a.Diagnosis, a.Confidence, a.Disclaimer, a.Error, a.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record analysis %s: %w", a.ID, err)
	}
	return nil
}

func (r *AnalysisRepo) Get(ctx context.Context, id string) (*Analysis, error) {
	row := r.db.QueryRowContext(ctx, selectAnalyses+` WHERE id = ?`, id)
	a, err := scanAnalysis(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// List returns the newest attempts first. limit <= 0 means all.
func (r *AnalysisRepo) List(ctx context.Context, limit int) ([]Analysis, error) {
	q := selectAnalyses + ` ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const selectAnalyses = `SELECT id, variant, organ, clinical_context, image_name, status,
	observations, diagnosis, confidence, disclaimer, error, created_at FROM analyses`

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (Analysis, error) {
	var a Analysis
	err := s.Scan(&a.ID, &a.Variant, &a.Organ, &a.ClinicalContext, &a.ImageName, &a.Status,
		&a.Observations, &a.Diagnosis, &a.Confidence, &a.Disclaimer, &a.Error, &a.CreatedAt)
	return a, err
}
