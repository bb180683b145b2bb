package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/homematch/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS transcripts (
	id            TEXT PRIMARY KEY,
	raw_text      TEXT NOT NULL,
	upload_method TEXT NOT NULL DEFAULT 'upload',
	status        TEXT NOT NULL DEFAULT 'uploaded',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS requirements (
	id                 TEXT PRIMARY KEY,
	transcript_id      TEXT NOT NULL UNIQUE REFERENCES transcripts(id),
	client_name        TEXT NOT NULL DEFAULT '',
	budget_max         DOUBLE PRECISION NOT NULL DEFAULT 0,
	locations          JSONB NOT NULL DEFAULT '[]',
	must_haves         JSONB NOT NULL DEFAULT '[]',
	nice_to_haves      JSONB NOT NULL DEFAULT '[]',
	property_type      TEXT NOT NULL DEFAULT '',
	min_beds           INTEGER NOT NULL DEFAULT 0,
	min_baths          INTEGER NOT NULL DEFAULT 0,
	min_sqft           INTEGER NOT NULL DEFAULT 0,
	school_requirement TEXT NOT NULL DEFAULT '',
	timeline           TEXT NOT NULL DEFAULT '',
	financing_type     TEXT NOT NULL DEFAULT '',
	confidence_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
	llm_provider       TEXT NOT NULL DEFAULT '',
	llm_model          TEXT NOT NULL DEFAULT '',
	raw_llm_response   TEXT NOT NULL DEFAULT '',
	is_edited          BOOLEAN NOT NULL DEFAULT false,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id                      TEXT PRIMARY KEY,
	transcript_id           TEXT NOT NULL REFERENCES transcripts(id),
	current_stage           TEXT NOT NULL DEFAULT 'ingestion',
	status                  TEXT NOT NULL DEFAULT 'pending',
	ingestion_completed_at  TIMESTAMPTZ,
	extraction_completed_at TIMESTAMPTZ,
	search_completed_at     TIMESTAMPTZ,
	ranking_completed_at    TIMESTAMPTZ,
	review_completed_at     TIMESTAMPTZ,
	send_completed_at       TIMESTAMPTZ,
	error_message           TEXT NOT NULL DEFAULT '',
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS listings (
	id             TEXT PRIMARY KEY,
	external_id    TEXT NOT NULL DEFAULT '',
	run_id         TEXT REFERENCES runs(id),
	requirement_id TEXT NOT NULL REFERENCES requirements(id),
	source         TEXT NOT NULL,
	address        TEXT NOT NULL,
	price          DOUBLE PRECISION,
	bedrooms       INTEGER,
	bathrooms      DOUBLE PRECISION,
	sqft           INTEGER,
	property_type  TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	neighborhood   TEXT NOT NULL DEFAULT '',
	image_url      TEXT NOT NULL DEFAULT '',
	listing_url    TEXT NOT NULL DEFAULT '',
	year_built     INTEGER,
	days_on_market INTEGER,
	latitude       DOUBLE PRECISION,
	longitude      DOUBLE PRECISION,
	raw_json       JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ranked_results (
	id                 TEXT PRIMARY KEY,
	run_id             TEXT NOT NULL REFERENCES runs(id),
	listing_id         TEXT NOT NULL REFERENCES listings(id),
	requirement_id     TEXT NOT NULL REFERENCES requirements(id),
	overall_score      DOUBLE PRECISION NOT NULL,
	must_have_pass     BOOLEAN NOT NULL,
	nice_to_have_score DOUBLE PRECISION NOT NULL,
	rank_position      INTEGER NOT NULL,
	score_breakdown    JSONB NOT NULL,
	approved           BOOLEAN,
	sent               BOOLEAN NOT NULL DEFAULT false,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_transcript_id ON runs(transcript_id);
CREATE INDEX IF NOT EXISTS idx_listings_run_id ON listings(run_id);
CREATE INDEX IF NOT EXISTS idx_ranked_results_run_id ON ranked_results(run_id);
CREATE INDEX IF NOT EXISTS idx_ranked_results_run_rank ON ranked_results(run_id, rank_position);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Transcripts ---

func (s *PostgresStore) CreateTranscript(ctx context.Context, rawText, uploadMethod string) (*model.Transcript, error) {
	t := &model.Transcript{
		ID:           uuid.New().String(),
		RawText:      rawText,
		UploadMethod: uploadMethod,
		Status:       model.TranscriptStatusUploaded,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcripts (id, raw_text, upload_method, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.RawText, t.UploadMethod, string(t.Status), t.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert transcript")
	}
	return t, nil
}

func (s *PostgresStore) GetTranscript(ctx context.Context, id string) (*model.Transcript, error) {
	var t model.Transcript
	err := s.pool.QueryRow(ctx,
		`SELECT id, raw_text, upload_method, status, created_at FROM transcripts WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.RawText, &t.UploadMethod, &t.Status, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get transcript %s", id)
	}
	return &t, nil
}

func (s *PostgresStore) SetTranscriptStatus(ctx context.Context, id string, status model.TranscriptStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE transcripts SET status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set transcript status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Requirements ---

const requirementColumns = `id, transcript_id, client_name, budget_max, locations, must_haves,
	nice_to_haves, property_type, min_beds, min_baths, min_sqft, school_requirement,
	timeline, financing_type, confidence_score, llm_provider, llm_model,
	raw_llm_response, is_edited, created_at, updated_at`

func (s *PostgresStore) SaveRequirement(ctx context.Context, req *model.Requirement) (*model.Requirement, error) {
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

	// One requirement per transcript. Re-running extraction replaces the
	// previous result but keeps the original row identity.
	err = s.pool.QueryRow(ctx,
		`INSERT INTO requirements (id, transcript_id, client_name, budget_max, locations, must_haves,
			nice_to_haves, property_type, min_beds, min_baths, min_sqft, school_requirement,
			timeline, financing_type, confidence_score, llm_provider, llm_model,
			raw_llm_response, is_edited, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (transcript_id) DO UPDATE SET
			client_name = EXCLUDED.client_name,
			budget_max = EXCLUDED.budget_max,
			locations = EXCLUDED.locations,
			must_haves = EXCLUDED.must_haves,
			nice_to_haves = EXCLUDED.nice_to_haves,
			property_type = EXCLUDED.property_type,
			min_beds = EXCLUDED.min_beds,
			min_baths = EXCLUDED.min_baths,
			min_sqft = EXCLUDED.min_sqft,
			school_requirement = EXCLUDED.school_requirement,
			timeline = EXCLUDED.timeline,
			financing_type = EXCLUDED.financing_type,
			confidence_score = EXCLUDED.confidence_score,
			llm_provider = EXCLUDED.llm_provider,
			llm_model = EXCLUDED.llm_model,
			raw_llm_response = EXCLUDED.raw_llm_response,
			is_edited = false,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		req.ID, req.TranscriptID, req.ClientName, req.BudgetMax, locations, mustHaves,
		niceToHaves, req.PropertyType, req.MinBeds, req.MinBaths, req.MinSqft, req.SchoolRequirement,
		req.Timeline, req.FinancingType, req.ConfidenceScore, req.LLMProvider, req.LLMModel,
		req.RawLLMResponse, req.IsEdited, req.CreatedAt, req.UpdatedAt,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: save requirement")
	}
	return req, nil
}

func (s *PostgresStore) GetRequirement(ctx context.Context, id string) (*model.Requirement, error) {
	return s.getRequirementWhere(ctx, `id = $1`, id)
}

func (s *PostgresStore) GetRequirementByTranscript(ctx context.Context, transcriptID string) (*model.Requirement, error) {
	return s.getRequirementWhere(ctx, `transcript_id = $1`, transcriptID)
}

func (s *PostgresStore) getRequirementWhere(ctx context.Context, where string, arg any) (*model.Requirement, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+requirementColumns+` FROM requirements WHERE `+where, arg)
	req, err := scanRequirement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get requirement")
	}
	return req, nil
}

func (s *PostgresStore) UpdateRequirement(ctx context.Context, id string, update model.RequirementUpdate) (*model.Requirement, error) {
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

	tag, err := s.pool.Exec(ctx,
		`UPDATE requirements SET client_name = $1, budget_max = $2, locations = $3, must_haves = $4,
			nice_to_haves = $5, property_type = $6, min_beds = $7, min_baths = $8, min_sqft = $9,
			school_requirement = $10, timeline = $11, financing_type = $12, is_edited = true,
			updated_at = $13
		WHERE id = $14`,
		req.ClientName, req.BudgetMax, locations, mustHaves,
		niceToHaves, req.PropertyType, req.MinBeds, req.MinBaths, req.MinSqft,
		req.SchoolRequirement, req.Timeline, req.FinancingType,
		req.UpdatedAt, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update requirement %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return req, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequirement(row rowScanner) (*model.Requirement, error) {
	var req model.Requirement
	var locations, mustHaves, niceToHaves []byte
	err := row.Scan(&req.ID, &req.TranscriptID, &req.ClientName, &req.BudgetMax, &locations, &mustHaves,
		&niceToHaves, &req.PropertyType, &req.MinBeds, &req.MinBaths, &req.MinSqft, &req.SchoolRequirement,
		&req.Timeline, &req.FinancingType, &req.ConfidenceScore, &req.LLMProvider, &req.LLMModel,
		&req.RawLLMResponse, &req.IsEdited, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalStrings(locations, &req.Locations); err != nil {
		return nil, err
	}
	if err := unmarshalStrings(mustHaves, &req.MustHaves); err != nil {
		return nil, err
	}
	if err := unmarshalStrings(niceToHaves, &req.NiceToHaves); err != nil {
		return nil, err
	}
	return &req, nil
}

func marshalRequirementLists(req *model.Requirement) (locations, mustHaves, niceToHaves []byte, err error) {
	if locations, err = marshalStrings(req.Locations); err != nil {
		return nil, nil, nil, err
	}
	if mustHaves, err = marshalStrings(req.MustHaves); err != nil {
		return nil, nil, nil, err
	}
	if niceToHaves, err = marshalStrings(req.NiceToHaves); err != nil {
		return nil, nil, nil, err
	}
	return locations, mustHaves, niceToHaves, nil
}

func marshalStrings(ss []string) ([]byte, error) {
	if ss == nil {
		ss = []string{}
	}
	b, err := json.Marshal(ss)
	return b, eris.Wrap(err, "store: marshal string list")
}

func unmarshalStrings(b []byte, dst *[]string) error {
	if len(b) == 0 {
		return nil
	}
	return eris.Wrap(json.Unmarshal(b, dst), "store: unmarshal string list")
}

// --- Listings ---

const listingColumns = `id, external_id, run_id, requirement_id, source, address, price, bedrooms,
	bathrooms, sqft, property_type, description, neighborhood, image_url, listing_url,
	year_built, days_on_market, latitude, longitude, raw_json, created_at`

func (s *PostgresStore) CreateListings(ctx context.Context, listings []model.Listing) ([]model.Listing, error) {
	if len(listings) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin insert listings")
	}
	defer tx.Rollback(ctx)

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
		var rawJSON []byte
		if l.RawJSON != "" {
			rawJSON = []byte(l.RawJSON)
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO listings (id, external_id, run_id, requirement_id, source, address, price, bedrooms,
				bathrooms, sqft, property_type, description, neighborhood, image_url, listing_url,
				year_built, days_on_market, latitude, longitude, raw_json, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
			l.ID, l.ExternalID, runID, l.RequirementID, l.Source, l.Address, l.Price, l.Bedrooms,
			l.Bathrooms, l.Sqft, l.PropertyType, l.Description, l.Neighborhood, l.ImageURL, l.ListingURL,
			l.YearBuilt, l.DaysOnMarket, l.Latitude, l.Longitude, rawJSON, l.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: insert listing")
		}
		out[i] = l
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit insert listings")
	}
	return out, nil
}

func (s *PostgresStore) ListListingsByRun(ctx context.Context, runID string) ([]model.Listing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE run_id = $1 ORDER BY created_at, id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list listings")
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan listing")
		}
		listings = append(listings, *l)
	}
	return listings, eris.Wrap(rows.Err(), "postgres: list listings iterate")
}

func (s *PostgresStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get listing %s", id)
	}
	return l, nil
}

func scanListing(row rowScanner) (*model.Listing, error) {
	var l model.Listing
	var runID *string
	var rawJSON []byte
	err := row.Scan(&l.ID, &l.ExternalID, &runID, &l.RequirementID, &l.Source, &l.Address, &l.Price, &l.Bedrooms,
		&l.Bathrooms, &l.Sqft, &l.PropertyType, &l.Description, &l.Neighborhood, &l.ImageURL, &l.ListingURL,
		&l.YearBuilt, &l.DaysOnMarket, &l.Latitude, &l.Longitude, &rawJSON, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if runID != nil {
		l.RunID = *runID
	}
	l.RawJSON = string(rawJSON)
	return &l, nil
}

// --- Runs ---

const runColumns = `id, transcript_id, current_stage, status, ingestion_completed_at,
	extraction_completed_at, search_completed_at, ranking_completed_at, review_completed_at,
	send_completed_at, error_message, created_at, updated_at`

func (s *PostgresStore) CreateRun(ctx context.Context, transcriptID string) (*model.Run, error) {
	now := time.Now().UTC()
	r := &model.Run{
		ID:           uuid.New().String(),
		TranscriptID: transcriptID,
		CurrentStage: model.StageIngestion,
		Status:       model.RunStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, transcript_id, current_stage, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.TranscriptID, string(r.CurrentStage), string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return r, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, runID)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanRun(row rowScanner) (*model.Run, error) {
	var r model.Run
	err := row.Scan(&r.ID, &r.TranscriptID, &r.CurrentStage, &r.Status, &r.IngestionCompletedAt,
		&r.ExtractionCompletedAt, &r.SearchCompletedAt, &r.RankingCompletedAt, &r.ReviewCompletedAt,
		&r.SendCompletedAt, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) SetRunStage(ctx context.Context, runID string, stage model.Stage) error {
	return s.updateRun(ctx, runID,
		`UPDATE runs SET current_stage = $1, updated_at = $2 WHERE id = $3`,
		string(stage), time.Now().UTC(), runID)
}

func (s *PostgresStore) SetRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	return s.updateRun(ctx, runID,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID)
}

func (s *PostgresStore) CompleteStage(ctx context.Context, runID string, stage model.Stage) error {
	col, ok := stageColumns[stage]
	if !ok {
		return eris.Errorf("postgres: unknown stage %s", stage)
	}
	now := time.Now().UTC()
	return s.updateRun(ctx, runID,
		`UPDATE runs SET `+col+` = $1, updated_at = $2 WHERE id = $3`,
		now, now, runID)
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, errorMessage string) error {
	return s.updateRun(ctx, runID,
		`UPDATE runs SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), errorMessage, time.Now().UTC(), runID)
}

func (s *PostgresStore) updateRun(ctx context.Context, runID, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Rankings ---

const rankedColumns = `id, run_id, listing_id, requirement_id, overall_score, must_have_pass,
	nice_to_have_score, rank_position, score_breakdown, approved, sent, created_at`

func (s *PostgresStore) CreateRankedResults(ctx context.Context, results []model.RankedResult) ([]model.RankedResult, error) {
	if len(results) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin insert rankings")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	out := make([]model.RankedResult, len(results))
	for i, rr := range results {
		if rr.ID == "" {
			rr.ID = uuid.New().String()
		}
		rr.CreatedAt = now

		breakdown, err := json.Marshal(rr.Breakdown)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal breakdown")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO ranked_results (id, run_id, listing_id, requirement_id, overall_score, must_have_pass,
				nice_to_have_score, rank_position, score_breakdown, approved, sent, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			rr.ID, rr.RunID, rr.ListingID, rr.RequirementID, rr.OverallScore, rr.MustHavePass,
			rr.NiceToHaveScore, rr.RankPosition, breakdown, rr.Approved, rr.Sent, rr.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: insert ranked result")
		}
		out[i] = rr
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit insert rankings")
	}
	return out, nil
}

func (s *PostgresStore) ListRankedResults(ctx context.Context, runID string) ([]model.RankedResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+rankedColumns+` FROM ranked_results WHERE run_id = $1 ORDER BY rank_position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ranked results")
	}
	defer rows.Close()

	var results []model.RankedResult
	for rows.Next() {
		rr, err := scanRankedResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan ranked result")
		}
		results = append(results, *rr)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list ranked results iterate")
}

func (s *PostgresStore) GetRankedResult(ctx context.Context, runID, resultID string) (*model.RankedResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+rankedColumns+` FROM ranked_results WHERE run_id = $1 AND id = $2`,
		runID, resultID,
	)
	rr, err := scanRankedResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get ranked result %s", resultID)
	}
	return rr, nil
}

func scanRankedResult(row rowScanner) (*model.RankedResult, error) {
	var rr model.RankedResult
	var breakdown []byte
	err := row.Scan(&rr.ID, &rr.RunID, &rr.ListingID, &rr.RequirementID, &rr.OverallScore, &rr.MustHavePass,
		&rr.NiceToHaveScore, &rr.RankPosition, &breakdown, &rr.Approved, &rr.Sent, &rr.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &rr.Breakdown); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal breakdown")
		}
	}
	return &rr, nil
}

// SetApprovals marks the named results approved and every other result in the
// run rejected. All IDs must belong to the run.
func (s *PostgresStore) SetApprovals(ctx context.Context, runID string, approvedIDs []string) error {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM ranked_results WHERE run_id = $1 AND id = ANY($2)`,
		runID, approvedIDs,
	).Scan(&count)
	if err != nil {
		return eris.Wrap(err, "postgres: count approvals")
	}
	if count != len(approvedIDs) {
		return ErrNotFound
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE ranked_results SET approved = (id = ANY($2)) WHERE run_id = $1`,
		runID, approvedIDs,
	)
	return eris.Wrap(err, "postgres: set approvals")
}

func (s *PostgresStore) RejectResult(ctx context.Context, runID, resultID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ranked_results SET approved = false WHERE run_id = $1 AND id = $2`,
		runID, resultID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: reject result %s", resultID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkSent(ctx context.Context, runID string, resultIDs []string) error {
	if len(resultIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE ranked_results SET sent = true WHERE run_id = $1 AND id = ANY($2)`,
		runID, resultIDs,
	)
	return eris.Wrap(err, "postgres: mark sent")
}
