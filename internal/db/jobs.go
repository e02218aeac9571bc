package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/microseis/gridloc/internal/locate"
)

// Job statuses. A job moves new → running → finished | failed.
const (
	StatusNew      = "new"
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// ErrJobNotFound is returned when a job id does not exist.
var ErrJobNotFound = errors.New("job not found")

// Job is one queued location run: a waveform record plus the processing
// parameters it was submitted with.
type Job struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Waveform   string  `json:"waveform"`
	Params     string  `json:"params"`
	Error      *string `json:"error,omitempty"`
	CreatedAt  int64   `json:"created_at"`
	StartedAt  *int64  `json:"started_at,omitempty"`
	FinishedAt *int64  `json:"finished_at,omitempty"`
}

// JobLog is one log line attached to a job.
type JobLog struct {
	JobID     string `json:"job_id"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"created_at"`
}

// CreateJob inserts a new job for the given waveform path and parameter
// JSON and returns it with a fresh id and status new.
func (db *DB) CreateJob(waveform, params string) (*Job, error) {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusNew,
		Waveform:  waveform,
		Params:    params,
		CreatedAt: db.now(),
	}
	_, err := db.Exec(
		`INSERT INTO jobs (id, status, waveform, params, created_at) VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.Status, job.Waveform, job.Params, job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}
	return job, nil
}

// MarkRunning transitions a job to running and stamps its start time.
func (db *DB) MarkRunning(id string) error {
	return db.updateStatus(
		`UPDATE jobs SET status = ?, started_at = ? WHERE id = ?`,
		StatusRunning, db.now(), id,
	)
}

// MarkFinished transitions a job to finished and stamps its end time.
func (db *DB) MarkFinished(id string) error {
	return db.updateStatus(
		`UPDATE jobs SET status = ?, finished_at = ? WHERE id = ?`,
		StatusFinished, db.now(), id,
	)
}

// MarkFailed transitions a job to failed, recording the failure message.
func (db *DB) MarkFailed(id, message string) error {
	return db.updateStatus(
		`UPDATE jobs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		StatusFailed, message, db.now(), id,
	)
}

func (db *DB) updateStatus(query string, args ...interface{}) error {
	res, err := db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check job update: %w", err)
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// GetJob fetches one job by id.
func (db *DB) GetJob(id string) (*Job, error) {
	row := db.QueryRow(
		`SELECT id, status, waveform, params, error, created_at, started_at, finished_at
		 FROM jobs WHERE id = ?`, id,
	)
	job := &Job{}
	err := row.Scan(&job.ID, &job.Status, &job.Waveform, &job.Params,
		&job.Error, &job.CreatedAt, &job.StartedAt, &job.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}
	return job, nil
}

// ListJobs returns the most recently created jobs, newest first.
func (db *DB) ListJobs(limit int) ([]Job, error) {
	rows, err := db.Query(
		`SELECT id, status, waveform, params, error, created_at, started_at, finished_at
		 FROM jobs ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Status, &job.Waveform, &job.Params,
			&job.Error, &job.CreatedAt, &job.StartedAt, &job.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// NextQueuedJob returns the oldest job still in status new, or nil when the
// queue is empty.
func (db *DB) NextQueuedJob() (*Job, error) {
	rows, err := db.Query(
		`SELECT id, status, waveform, params, error, created_at, started_at, finished_at
		 FROM jobs WHERE status = ? ORDER BY created_at, id LIMIT 1`, StatusNew,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to poll job queue: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	job := &Job{}
	if err := rows.Scan(&job.ID, &job.Status, &job.Waveform, &job.Params,
		&job.Error, &job.CreatedAt, &job.StartedAt, &job.FinishedAt); err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return job, nil
}

// AppendLog attaches a log line to a job.
func (db *DB) AppendLog(jobID, message string) error {
	_, err := db.Exec(
		`INSERT INTO job_logs (job_id, message, created_at) VALUES (?, ?, ?)`,
		jobID, message, db.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert job log: %w", err)
	}
	return nil
}

// JobLogs returns a job's log lines in insertion order.
func (db *DB) JobLogs(jobID string) ([]JobLog, error) {
	rows, err := db.Query(
		`SELECT job_id, message, created_at FROM job_logs WHERE job_id = ? ORDER BY log_id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job logs: %w", err)
	}
	defer rows.Close()

	var logs []JobLog
	for rows.Next() {
		var l JobLog
		if err := rows.Scan(&l.JobID, &l.Message, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// InsertLocations stores a finished job's located events in one transaction.
func (db *DB) InsertLocations(jobID string, locations []locate.Location) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, loc := range locations {
		_, err := tx.Exec(
			`INSERT INTO event_locations (job_id, event_id, node_id, x, y, z, misfit)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			jobID, loc.EventID, loc.NodeID, loc.X, loc.Y, loc.Z, loc.Misfit,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert location for event %d: %w", loc.EventID, err)
		}
	}
	return tx.Commit()
}

// JobLocations returns a job's located events ordered by event id.
func (db *DB) JobLocations(jobID string) ([]locate.Location, error) {
	rows, err := db.Query(
		`SELECT event_id, node_id, x, y, z, misfit
		 FROM event_locations WHERE job_id = ? ORDER BY event_id`, jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch locations: %w", err)
	}
	defer rows.Close()

	var locations []locate.Location
	for rows.Next() {
		var loc locate.Location
		if err := rows.Scan(&loc.EventID, &loc.NodeID, &loc.X, &loc.Y, &loc.Z, &loc.Misfit); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return locations, nil
}
