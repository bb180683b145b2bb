package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/homematch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for local
// development and single-agent installs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS transcripts (
	id            TEXT PRIMARY KEY,
	raw_text      TEXT NOT NULL,
	upload_method TEXT NOT NULL DEFAULT 'upload',
	status        TEXT NOT NULL DEFAULT 'uploaded',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS requirements (
	id                 TEXT PRIMARY KEY,
	transcript_id      TEXT NOT NULL UNIQUE REFERENCES transcripts(id),
	client_name        TEXT NOT NULL DEFAULT '',
	budget_max         REAL NOT NULL DEFAULT 0,
	locations          TEXT NOT NULL DEFAULT '[]',
	must_haves         TEXT NOT NULL DEFAULT '[]',
	nice_to_haves      TEXT NOT NULL DEFAULT '[]',
	property_type      TEXT NOT NULL DEFAULT '',
	min_beds           INTEGER NOT NULL DEFAULT 0,
	min_baths          INTEGER NOT NULL DEFAULT 0,
	min_sqft           INTEGER NOT NULL DEFAULT 0,
	school_requirement TEXT NOT NULL DEFAULT '',
	timeline           TEXT NOT NULL DEFAULT '',
	financing_type     TEXT NOT NULL DEFAULT '',
	confidence_score   REAL NOT NULL DEFAULT 0,
	llm_provider       TEXT NOT NULL DEFAULT '',
	llm_model          TEXT NOT NULL DEFAULT '',
	raw_llm_response   TEXT NOT NULL DEFAULT '',
	is_edited          INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id                      TEXT PRIMARY KEY,
	transcript_id           TEXT NOT NULL REFERENCES transcripts(id),
	current_stage           TEXT NOT NULL DEFAULT 'ingestion',
	status                  TEXT NOT NULL DEFAULT 'pending',
	ingestion_completed_at  DATETIME,
	extraction_completed_at DATETIME,
	search_completed_at     DATETIME,
	ranking_completed_at    DATETIME,
	review_completed_at     DATETIME,
	send_completed_at       DATETIME,
	error_message           TEXT NOT NULL DEFAULT '',
	created_at              DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at              DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS listings (
	id             TEXT PRIMARY KEY,
	external_id    TEXT NOT NULL DEFAULT '',
	run_id         TEXT REFERENCES runs(id),
	requirement_id TEXT NOT NULL REFERENCES requirements(id),
	source         TEXT NOT NULL,
	address        TEXT NOT NULL,
	price          REAL,
	bedrooms       INTEGER,
	bathrooms      REAL,
	sqft           INTEGER,
	property_type  TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	neighborhood   TEXT NOT NULL DEFAULT '',
	image_url      TEXT NOT NULL DEFAULT '',
	listing_url    TEXT NOT NULL DEFAULT '',
	year_built     INTEGER,
	days_on_market INTEGER,
	latitude       REAL,
	longitude      REAL,
	raw_json       TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS ranked_results (
	id                 TEXT PRIMARY KEY,
	run_id             TEXT NOT NULL REFERENCES runs(id),
	listing_id         TEXT NOT NULL REFERENCES listings(id),
	requirement_id     TEXT NOT NULL REFERENCES requirements(id),
	overall_score      REAL NOT NULL,
	must_have_pass     INTEGER NOT NULL,
	nice_to_have_score REAL NOT NULL,
	rank_position      INTEGER NOT NULL,
	score_breakdown    TEXT NOT NULL,
	approved           INTEGER,
	sent               INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_transcript_id ON runs(transcript_id);
CREATE INDEX IF NOT EXISTS idx_listings_run_id ON listings(run_id);
CREATE INDEX IF NOT EXISTS idx_ranked_results_run_id ON ranked_results(run_id);
CREATE INDEX IF NOT EXISTS idx_ranked_results_run_rank ON ranked_results(run_id, rank_position);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Transcripts ---

func (s *SQLiteStore) CreateTranscript(ctx context.Context, rawText, uploadMethod string) (*model.Transcript, error) {
	t := &model.Transcript{
		ID:           uuid.New().String(),
		RawText:      rawText,
		UploadMethod: uploadMethod,
		Status:       model.TranscriptStatusUploaded,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (id, raw_text, upload_method, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.RawText, t.UploadMethod, string(t.Status), t.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert transcript")
	}
	return t, nil
}

func (s *SQLiteStore) GetTranscript(ctx context.Context, id string) (*model.Transcript, error) {
	var t model.Transcript
	err := s.db.QueryRowContext(ctx,
		`SELECT id, raw_text, upload_method, status, created_at FROM transcripts WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.RawText, &t.UploadMethod, &t.Status, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get transcript %s", id)
	}
	return &t, nil
}

func (s *SQLiteStore) SetTranscriptStatus(ctx context.Context, id string, status model.TranscriptStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transcripts SET status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set transcript status %s", id)
	}
	return checkRowsAffected(res, "transcript", id)
}

// --- Requirements ---

func (s *SQLiteStore) SaveRequirement(ctx context.Context, req *model.Requirement) (*model.Requirement, error) {
	now := time.Now().UTC()
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.CreatedAt = now
	req.UpdatedAt = now

	locations, mustHaves, niceToHaves, err := marshalRequirementLists(req)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO requirements (id, transcript_id, client_name, budget_max, locations, must_haves,
			nice_to_haves, property_type, min_beds, min_baths, min_sqft, school_requirement,
			timeline, financing_type, confidence_score, llm_provider, llm_model,
			raw_llm_response, is_edited, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (transcript_id) DO UPDATE SET
			client_name = excluded.client_name,
			budget_max = excluded.budget_max,
			locations = excluded.locations,
			must_haves = excluded.must_haves,
			nice_to_haves = excluded.nice_to_haves,
			property_type = excluded.property_type,
			min_beds = excluded.min_beds,
			min_baths = excluded.min_baths,
			min_sqft = excluded.min_sqft,
			school_requirement = excluded.school_requirement,
			timeline = excluded.timeline,
			financing_type = excluded.financing_type,
			confidence_score = excluded.confidence_score,
			llm_provider = excluded.llm_provider,
			llm_model = excluded.llm_model,
			raw_llm_response = excluded.raw_llm_response,
			is_edited = 0,
			updated_at = excluded.updated_at
		RETURNING id, created_at`,
		req.ID, req.TranscriptID, req.ClientName, req.BudgetMax, string(locations), string(mustHaves),
		string(niceToHaves), req.PropertyType, req.MinBeds, req.MinBaths, req.MinSqft, req.SchoolRequirement,
		req.Timeline, req.FinancingType, req.ConfidenceScore, req.LLMProvider, req.LLMModel,
		req.RawLLMResponse, req.IsEdited, req.CreatedAt, req.UpdatedAt,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: save requirement")
	}
	return req, nil
}

func (s *SQLiteStore) GetRequirement(ctx context.Context, id string) (*model.Requirement, error) {
	return s.getRequirementWhere(ctx, `id = ?`, id)
}

func (s *SQLiteStore) GetRequirementByTranscript(ctx context.Context, transcriptID string) (*model.Requirement, error) {
	return s.getRequirementWhere(ctx, `transcript_id = ?`, transcriptID)
}

func (s *SQLiteStore) getRequirementWhere(ctx context.Context, where string, arg any) (*model.Requirement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requirementColumns+` FROM requirements WHERE `+where, arg)
	req, err := scanRequirement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get requirement")
	}
	return req, nil
}

func (s *SQLiteStore) UpdateRequirement(ctx context.Context, id string, update model.RequirementUpdate) (*model.Requirement, error) {
	req, err := s.GetRequirement(ctx, id)
	if err != nil {
		return nil, err
	}
	update.Apply(req)
	req.UpdatedAt = time.Now().UTC()

	locations, mustHaves, niceToHaves, err := marshalRequirementLists(req)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE requirements SET client_name = ?, budget_max = ?, locations = ?, must_haves = ?,
			nice_to_haves = ?, property_type = ?, min_beds = ?, min_baths = ?, min_sqft = ?,
			school_requirement = ?, timeline = ?, financing_type = ?, is_edited = 1,
			updated_at = ?
		WHERE id = ?`,
		req.ClientName, req.BudgetMax, string(locations), string(mustHaves),
		string(niceToHaves), req.PropertyType, req.MinBeds, req.MinBaths, req.MinSqft,
		req.SchoolRequirement, req.Timeline, req.FinancingType,
		req.UpdatedAt, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update requirement %s", id)
	}
	if err := checkRowsAffected(res, "requirement", id); err != nil {
		return nil, err
	}
	return req, nil
}

// --- Listings ---

func (s *SQLiteStore) CreateListings(ctx context.Context, listings []model.Listing) ([]model.Listing, error) {
	if len(listings) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin insert listings")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	out := make([]model.Listing, len(listings))
	for i, l := range listings {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.CreatedAt = now

		var runID *string
		if l.RunID != "" {
			runID = &l.RunID
		}
		var rawJSON *string
		if l.RawJSON != "" {
			rawJSON = &l.RawJSON
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO listings (id, external_id, run_id, requirement_id, source, address, price, bedrooms,
				bathrooms, sqft, property_type, description, neighborhood, image_url, listing_url,
				year_built, days_on_market, latitude, longitude, raw_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.ExternalID, runID, l.RequirementID, l.Source, l.Address, l.Price, l.Bedrooms,
			l.Bathrooms, l.Sqft, l.PropertyType, l.Description, l.Neighborhood, l.ImageURL, l.ListingURL,
			l.YearBuilt, l.DaysOnMarket, l.Latitude, l.Longitude, rawJSON, l.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert listing")
		}
		out[i] = l
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit insert listings")
	}
	return out, nil
}

func (s *SQLiteStore) ListListingsByRun(ctx context.Context, runID string) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE run_id = ? ORDER BY created_at, id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list listings")
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan listing")
		}
		listings = append(listings, *l)
	}
	return listings, eris.Wrap(rows.Err(), "sqlite: list listings iterate")
}

func (s *SQLiteStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get listing %s", id)
	}
	return l, nil
}

// --- Runs ---

func (s *SQLiteStore) CreateRun(ctx context.Context, transcriptID string) (*model.Run, error) {
	now := time.Now().UTC()
	r := &model.Run{
		ID:           uuid.New().String(),
		TranscriptID: transcriptID,
		CurrentStage: model.StageIngestion,
		Status:       model.RunStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, transcript_id, current_stage, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.TranscriptID, string(r.CurrentStage), string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return r, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SetRunStage(ctx context.Context, runID string, stage model.Stage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET current_stage = ?, updated_at = ? WHERE id = ?`,
		string(stage), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set run stage %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) SetRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteStage(ctx context.Context, runID string, stage model.Stage) error {
	col, ok := stageColumns[stage]
	if !ok {
		return eris.Errorf("sqlite: unknown stage %s", stage)
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET `+col+` = ?, updated_at = ? WHERE id = ?`,
		now, now, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete stage %s for run %s", stage, runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errorMessage string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), errorMessage, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// --- Rankings ---

func (s *SQLiteStore) CreateRankedResults(ctx context.Context, results []model.RankedResult) ([]model.RankedResult, error) {
	if len(results) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin insert rankings")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	out := make([]model.RankedResult, len(results))
	for i, rr := range results {
		if rr.ID == "" {
			rr.ID = uuid.New().String()
		}
		rr.CreatedAt = now

		breakdown, err := json.Marshal(rr.Breakdown)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal breakdown")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO ranked_results (id, run_id, listing_id, requirement_id, overall_score, must_have_pass,
				nice_to_have_score, rank_position, score_breakdown, approved, sent, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rr.ID, rr.RunID, rr.ListingID, rr.RequirementID, rr.OverallScore, rr.MustHavePass,
			rr.NiceToHaveScore, rr.RankPosition, string(breakdown), rr.Approved, rr.Sent, rr.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert ranked result")
		}
		out[i] = rr
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit insert rankings")
	}
	return out, nil
}

func (s *SQLiteStore) ListRankedResults(ctx context.Context, runID string) ([]model.RankedResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+rankedColumns+` FROM ranked_results WHERE run_id = ? ORDER BY rank_position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ranked results")
	}
	defer rows.Close()

	var results []model.RankedResult
	for rows.Next() {
		rr, err := scanRankedResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ranked result")
		}
		results = append(results, *rr)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list ranked results iterate")
}

func (s *SQLiteStore) GetRankedResult(ctx context.Context, runID, resultID string) (*model.RankedResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+rankedColumns+` FROM ranked_results WHERE run_id = ? AND id = ?`,
		runID, resultID,
	)
	rr, err := scanRankedResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get ranked result %s", resultID)
	}
	return rr, nil
}

func (s *SQLiteStore) SetApprovals(ctx context.Context, runID string, approvedIDs []string) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(approvedIDs)), ",")

	args := make([]any, 0, len(approvedIDs)+1)
	args = append(args, runID)
	for _, id := range approvedIDs {
		args = append(args, id)
	}

	var count int
	countQuery := `SELECT count(*) FROM ranked_results WHERE run_id = ?`
	if len(approvedIDs) > 0 {
		countQuery += ` AND id IN (` + placeholders + `)`
	} else {
		countQuery += ` AND 1=0`
	}
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return eris.Wrap(err, "sqlite: count approvals")
	}
	if count != len(approvedIDs) {
		return ErrNotFound
	}

	updateQuery := `UPDATE ranked_results SET approved = 0 WHERE run_id = ?`
	if _, err := s.db.ExecContext(ctx, updateQuery, runID); err != nil {
		return eris.Wrap(err, "sqlite: reset approvals")
	}
	if len(approvedIDs) > 0 {
		approveQuery := `UPDATE ranked_results SET approved = 1 WHERE run_id = ? AND id IN (` + placeholders + `)`
		if _, err := s.db.ExecContext(ctx, approveQuery, args...); err != nil {
			return eris.Wrap(err, "sqlite: set approvals")
		}
	}
	return nil
}

func (s *SQLiteStore) RejectResult(ctx context.Context, runID, resultID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ranked_results SET approved = 0 WHERE run_id = ? AND id = ?`,
		runID, resultID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: reject result %s", resultID)
	}
	return checkRowsAffected(res, "ranked result", resultID)
}

func (s *SQLiteStore) MarkSent(ctx context.Context, runID string, resultIDs []string) error {
	if len(resultIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(resultIDs)), ",")
	args := make([]any, 0, len(resultIDs)+1)
	args = append(args, runID)
	for _, id := range resultIDs {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE ranked_results SET sent = 1 WHERE run_id = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	return eris.Wrap(err, "sqlite: mark sent")
}
