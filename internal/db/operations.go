package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var (
	Jobs     = &JobOperations{}
	Prices   = &PriceOperations{}
	Paper    = &PaperOperations{}
	Settings = &SettingOperations{}
)

type JobOperations struct{}

func (o *JobOperations) CreateJob(ctx context.Context, j *PrintJob) error {
	_, err := GetDB().ExecContext(ctx, InsertJob,
		j.ID, j.DocumentName, j.SourcePath, j.TotalPages, j.PagesToPrint,
		j.ColorMode, j.UnitPrice, j.TotalPrice, j.State)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (o *JobOperations) GetJobByID(ctx context.Context, id string) (*PrintJob, error) {
	j := &PrintJob{}
	err := GetDB().QueryRowContext(ctx, GetJobByID, id).Scan(
		&j.ID, &j.DocumentName, &j.SourcePath, &j.TotalPages, &j.PagesToPrint,
		&j.ColorMode, &j.UnitPrice, &j.TotalPrice, &j.InsertedAmount,
		&j.State, &j.FailureReason, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

func (o *JobOperations) ListJobs(ctx context.Context, filter JobFilter) ([]*PrintJob, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error
	if filter.State != "" {
		rows, err = GetDB().QueryContext(ctx, ListJobsByState, filter.State, limit, filter.Offset)
	} else {
		rows, err = GetDB().QueryContext(ctx, ListAllJobs, limit, filter.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*PrintJob
	for rows.Next() {
		j := &PrintJob{}
		if err := rows.Scan(
			&j.ID, &j.DocumentName, &j.SourcePath, &j.TotalPages, &j.PagesToPrint,
			&j.ColorMode, &j.UnitPrice, &j.TotalPrice, &j.InsertedAmount,
			&j.State, &j.FailureReason, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// NextAwaitingJob returns the oldest job still awaiting payment, or
// sql.ErrNoRows when none is queued.
func (o *JobOperations) NextAwaitingJob(ctx context.Context) (*PrintJob, error) {
	j := &PrintJob{}
	err := GetDB().QueryRowContext(ctx, NextAwaitingJob).Scan(
		&j.ID, &j.DocumentName, &j.SourcePath, &j.TotalPages, &j.PagesToPrint,
		&j.ColorMode, &j.UnitPrice, &j.TotalPrice, &j.InsertedAmount,
		&j.State, &j.FailureReason, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get next awaiting job: %w", err)
	}
	return j, nil
}

// TransitionJobState moves a job from one state to another with the
// expected current state as a write guard. It reports false without
// error when the row no longer holds the expected state, so a stale
// caller can never overwrite a state written concurrently.
func (o *JobOperations) TransitionJobState(ctx context.Context, id, from, to, reason string) (bool, error) {
	result, err := GetDB().ExecContext(ctx, TransitionJobState, to, reason, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update job state: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update job state: %w", err)
	}
	return n == 1, nil
}

func (o *JobOperations) UpdateInsertedAmount(ctx context.Context, id string, amount int64) error {
	_, err := GetDB().ExecContext(ctx, UpdateJobInsertedAmount, amount, id)
	if err != nil {
		return fmt.Errorf("failed to update inserted amount: %w", err)
	}
	return nil
}

// FailInterrupted marks jobs left in paid/printing by a previous run as
// failed. Re-printing unattended after a restart would double-charge the
// customer, so interrupted jobs are never resumed.
func (o *JobOperations) FailInterrupted(ctx context.Context, reason string) (int64, error) {
	result, err := GetDB().ExecContext(ctx, FailInterruptedJobs, reason)
	if err != nil {
		return 0, fmt.Errorf("failed to fail interrupted jobs: %w", err)
	}
	return result.RowsAffected()
}

func (o *JobOperations) CountByState(ctx context.Context, state string) (int, error) {
	var count int
	if err := GetDB().QueryRowContext(ctx, CountJobsByState, state).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

type PriceOperations struct{}

func (o *PriceOperations) CreatePriceTable(ctx context.Context, t *PriceTable) error {
	result, err := GetDB().ExecContext(ctx, InsertPriceTable,
		t.BlackRate, t.ColorRate, t.EffectiveFrom)
	if err != nil {
		return fmt.Errorf("failed to create price table: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get price table id: %w", err)
	}
	t.ID = id
	return nil
}

// PriceTableAt returns the table with the latest effective_from not later
// than the given instant. Callers pass the job's creation time so that rate
// changes never reprice an in-flight job.
func (o *PriceOperations) PriceTableAt(ctx context.Context, at time.Time) (*PriceTable, error) {
	t := &PriceTable{}
	err := GetDB().QueryRowContext(ctx, GetPriceTableAt, at).Scan(
		&t.ID, &t.BlackRate, &t.ColorRate, &t.EffectiveFrom, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get price table: %w", err)
	}
	return t, nil
}

func (o *PriceOperations) ListPriceTables(ctx context.Context) ([]*PriceTable, error) {
	rows, err := GetDB().QueryContext(ctx, ListPriceTables)
	if err != nil {
		return nil, fmt.Errorf("failed to list price tables: %w", err)
	}
	defer rows.Close()

	var tables []*PriceTable
	for rows.Next() {
		t := &PriceTable{}
		if err := rows.Scan(&t.ID, &t.BlackRate, &t.ColorRate, &t.EffectiveFrom, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type PaperOperations struct{}

func (o *PaperOperations) LatestSnapshot(ctx context.Context) (*PaperStockSnapshot, error) {
	s := &PaperStockSnapshot{}
	var refill int
	err := GetDB().QueryRowContext(ctx, GetLatestPaperSnapshot).Scan(
		&s.ID, &s.RemainingSheets, &refill, &s.RecordedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get paper snapshot: %w", err)
	}
	s.IsRefillEvent = refill == 1
	return s, nil
}

func (o *PaperOperations) AppendSnapshot(ctx context.Context, remaining int, isRefill bool) error {
	refill := 0
	if isRefill {
		refill = 1
	}
	_, err := GetDB().ExecContext(ctx, InsertPaperSnapshot, remaining, refill, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append paper snapshot: %w", err)
	}
	return nil
}

func (o *PaperOperations) ListSnapshots(ctx context.Context, limit int) ([]*PaperStockSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := GetDB().QueryContext(ctx, ListPaperSnapshots, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list paper snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*PaperStockSnapshot
	for rows.Next() {
		s := &PaperStockSnapshot{}
		var refill int
		if err := rows.Scan(&s.ID, &s.RemainingSheets, &refill, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan paper snapshot: %w", err)
		}
		s.IsRefillEvent = refill == 1
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

type SettingOperations struct{}

func (o *SettingOperations) GetSetting(ctx context.Context, key string) (*Setting, error) {
	s := &Setting{}
	err := GetDB().QueryRowContext(ctx, GetSetting, key).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return s, nil
}

func (o *SettingOperations) SetSetting(ctx context.Context, key, value string) error {
	_, err := GetDB().ExecContext(ctx, UpsertSetting, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
