package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/insight"
)

// errDuplicateEntry is MySQL's ER_DUP_ENTRY.
const errDuplicateEntry = 1062

var schema = []string{
	`CREATE TABLE IF NOT EXISTS datasets (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		user_id       VARCHAR(128) NOT NULL,
		original_name VARCHAR(255) NOT NULL,
		size          BIGINT       NOT NULL,
		mime_type     VARCHAR(255) NOT NULL,
		sheet_name    VARCHAR(255) NOT NULL,
		headers       JSON         NOT NULL,
		records       LONGTEXT     NOT NULL,
		row_count     INT          NOT NULL,
		column_count  INT          NOT NULL,
		insight_id    CHAR(36)     NULL,
		created_at    DATETIME(6)  NOT NULL,
		KEY idx_datasets_user (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS charts (
		id          CHAR(36)     NOT NULL PRIMARY KEY,
		user_id     VARCHAR(128) NOT NULL,
		dataset_id  CHAR(36)     NOT NULL,
		kind        VARCHAR(32)  NOT NULL,
		config      JSON         NOT NULL,
		data        LONGTEXT     NOT NULL,
		title       VARCHAR(255) NOT NULL,
		description TEXT         NOT NULL,
		created_at  DATETIME(6)  NOT NULL,
		KEY idx_charts_user (user_id, created_at),
		KEY idx_charts_dataset (dataset_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS insights (
		id              CHAR(36)     NOT NULL PRIMARY KEY,
		user_id         VARCHAR(128) NOT NULL,
		dataset_id      CHAR(36)     NOT NULL,
		summary         TEXT         NOT NULL,
		key_findings    JSON         NOT NULL,
		trends          JSON         NOT NULL,
		recommendations JSON         NOT NULL,
		source_model    VARCHAR(128) NOT NULL,
		generated_at    DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_insight_owner (user_id, dataset_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// MySQL is a Store backed by database/sql and go-sql-driver/mysql.
type MySQL struct {
	db  *sql.DB
	now func() time.Time
}

// OpenMySQL connects with dsn, forcing parseTime and UTC, and creates
// missing tables.
func OpenMySQL(ctx context.Context, dsn string) (*MySQL, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// AttachInsight checks matched rows, not changed rows.
	cfg.ClientFoundRows = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not configure mysql: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not reach mysql at %s: %w", cfg.Addr, err)
	}

	s := &MySQL{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema when it is missing.
func (s *MySQL) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("could not apply schema: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *MySQL) Close() error { return s.db.Close() }

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *MySQL) CreateDataset(ctx context.Context, d *Dataset) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	if d.ChartIDs == nil {
		d.ChartIDs = []string{}
	}
	headers, err := json.Marshal(d.Headers)
	if err != nil {
		return fmt.Errorf("could not encode headers: %w", err)
	}
	records, err := json.Marshal(d.Records)
	if err != nil {
		return fmt.Errorf("could not encode records: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO datasets
		(id, user_id, original_name, size, mime_type, sheet_name, headers, records, row_count, column_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.OriginalName, d.Size, d.MimeType, d.SheetName, headers, records, d.RowCount, d.ColumnCount, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert dataset: %w", err)
	}
	return nil
}

const datasetColumns = `id, user_id, original_name, size, mime_type, sheet_name, headers, row_count, column_count, COALESCE(insight_id, ''), created_at`

func scanDataset(row scanner, extra ...any) (*Dataset, error) {
	var d Dataset
	var headers []byte
	dest := append([]any{&d.ID, &d.UserID, &d.OriginalName, &d.Size, &d.MimeType, &d.SheetName,
		&headers, &d.RowCount, &d.ColumnCount, &d.InsightID, &d.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(headers, &d.Headers); err != nil {
		return nil, fmt.Errorf("could not decode headers of %s: %w", d.ID, err)
	}
	return &d, nil
}

func (s *MySQL) GetDataset(ctx context.Context, userID, id string) (*Dataset, error) {
	var records []byte
	row := s.db.QueryRowContext(ctx, `SELECT `+datasetColumns+`, records FROM datasets WHERE id = ? AND user_id = ?`, id, userID)
	d, err := scanDataset(row, &records)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load dataset: %w", err)
	}
	if err := json.Unmarshal(records, &d.Records); err != nil {
		return nil, fmt.Errorf("could not decode records of %s: %w", d.ID, err)
	}
	if d.ChartIDs, err = s.chartIDs(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *MySQL) chartIDs(ctx context.Context, datasetID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM charts WHERE dataset_id = ? ORDER BY created_at`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("could not list chart ids: %w", err)
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *MySQL) ListDatasets(ctx context.Context, userID string) ([]*Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list datasets: %w", err)
	}
	defer rows.Close()

	out := []*Dataset{}
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan dataset: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, d := range out {
		if d.ChartIDs, err = s.chartIDs(ctx, d.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *MySQL) DeleteDataset(ctx context.Context, userID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("could not delete dataset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM charts WHERE dataset_id = ?`, id); err != nil {
		return fmt.Errorf("could not delete charts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM insights WHERE dataset_id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("could not delete insight: %w", err)
	}
	return tx.Commit()
}

func (s *MySQL) Usage(ctx context.Context, userID string) (*Usage, error) {
	u := &Usage{}
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM datasets WHERE user_id = ?`, userID).
		Scan(&u.TotalFiles, &u.TotalSize)
	if err != nil {
		return nil, fmt.Errorf("could not compute usage: %w", err)
	}
	if u.TotalFiles == 0 {
		return u, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`, userID)
	if u.Recent, err = scanDataset(row); err != nil {
		return nil, fmt.Errorf("could not load recent dataset: %w", err)
	}
	u.Recent.ChartIDs, err = s.chartIDs(ctx, u.Recent.ID)
	return u, err
}

func (s *MySQL) CreateChart(ctx context.Context, c *Chart) error {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM datasets WHERE id = ?`, c.DatasetID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != c.UserID) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("could not check dataset: %w", err)
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	cfg, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("could not encode chart config: %w", err)
	}
	data, err := json.Marshal(c.Data)
	if err != nil {
		return fmt.Errorf("could not encode chart data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO charts
		(id, user_id, dataset_id, kind, config, data, title, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.DatasetID, string(c.Kind), cfg, data, c.Title, c.Description, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert chart: %w", err)
	}
	return nil
}

const chartColumns = `id, user_id, dataset_id, kind, config, data, title, description, created_at`

func scanChart(row scanner) (*Chart, error) {
	var c Chart
	var kind string
	var cfg, data []byte
	if err := row.Scan(&c.ID, &c.UserID, &c.DatasetID, &kind, &cfg, &data, &c.Title, &c.Description, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Kind = chart.Kind(kind)
	if err := json.Unmarshal(cfg, &c.Config); err != nil {
		return nil, fmt.Errorf("could not decode config of chart %s: %w", c.ID, err)
	}
	if string(data) != "null" {
		c.Data = &chart.Result{}
		if err := json.Unmarshal(data, c.Data); err != nil {
			return nil, fmt.Errorf("could not decode data of chart %s: %w", c.ID, err)
		}
	}
	return &c, nil
}

func (s *MySQL) GetChart(ctx context.Context, userID, id string) (*Chart, error) {
	c, err := scanChart(s.db.QueryRowContext(ctx, `SELECT `+chartColumns+` FROM charts WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *MySQL) ListCharts(ctx context.Context, userID, datasetID string) ([]*Chart, error) {
	query := `SELECT ` + chartColumns + ` FROM charts WHERE user_id = ?`
	args := []any{userID}
	if datasetID != "" {
		query += ` AND dataset_id = ?`
		args = append(args, datasetID)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list charts: %w", err)
	}
	defer rows.Close()

	out := []*Chart{}
	for rows.Next() {
		c, err := scanChart(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *MySQL) DeleteChart(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM charts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("could not delete chart: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const insightColumns = `id, user_id, dataset_id, summary, key_findings, trends, recommendations, source_model, generated_at`

func scanInsight(row scanner) (*insight.Record, error) {
	var rec insight.Record
	var findings, trends, recs []byte
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.DatasetID, &rec.Summary, &findings, &trends, &recs, &rec.SourceModel, &rec.GeneratedAt); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{{findings, &rec.KeyFindings}, {trends, &rec.Trends}, {recs, &rec.Recommendations}} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("could not decode insight %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func (s *MySQL) FindInsight(ctx context.Context, userID, datasetID string) (*insight.Record, error) {
	rec, err := scanInsight(s.db.QueryRowContext(ctx,
		`SELECT `+insightColumns+` FROM insights WHERE user_id = ? AND dataset_id = ?`, userID, datasetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, insight.ErrNotFound
	}
	return rec, err
}

// CreateInsight relies on uq_insight_owner to reject a second insight for
// the same user and dataset.
func (s *MySQL) CreateInsight(ctx context.Context, rec *insight.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	findings, err := json.Marshal(rec.KeyFindings)
	if err != nil {
		return err
	}
	trends, err := json.Marshal(rec.Trends)
	if err != nil {
		return err
	}
	recs, err := json.Marshal(rec.Recommendations)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO insights (`+insightColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.DatasetID, rec.Summary, findings, trends, recs, rec.SourceModel, rec.GeneratedAt.UTC())
	if isDuplicate(err) {
		return insight.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("could not insert insight: %w", err)
	}
	return nil
}

func (s *MySQL) AttachInsight(ctx context.Context, datasetID, insightID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE datasets SET insight_id = ? WHERE id = ?`, insightID, datasetID)
	if err != nil {
		return fmt.Errorf("could not attach insight: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MySQL) ListInsights(ctx context.Context, userID string) ([]*insight.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+insightColumns+` FROM insights WHERE user_id = ? ORDER BY generated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list insights: %w", err)
	}
	defer rows.Close()

	out := []*insight.Record{}
	for rows.Next() {
		rec, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ Store = (*MySQL)(nil)
