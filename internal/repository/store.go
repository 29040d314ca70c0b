package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

var ErrNotFound = errors.New("record not found")

// SQLStore persists search results, documents and relevance results. It runs
// on sqlite3 and mysql; parsed results are insert-only.
type SQLStore struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewSQLStore(driver, dsn string, log logger.Logger) (*SQLStore, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == "sqlite3" {
		// a single connection serializes writers and keeps :memory: databases shared
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, logger: log.Named("store")}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) initSchema() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS search_results (
			id VARCHAR(36) PRIMARY KEY,
			query TEXT NOT NULL,
			grade VARCHAR(64) NOT NULL,
			results TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS pdf_stores (
			id VARCHAR(36) PRIMARY KEY,
			document_key VARCHAR(64) NOT NULL UNIQUE,
			query TEXT NOT NULL,
			grade VARCHAR(64) NOT NULL,
			total_pages INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			thumbnail_url TEXT NOT NULL,
			s3_url TEXT NOT NULL,
			pdf_url TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS pdf_parsed (
			id VARCHAR(36) PRIMARY KEY,
			search_result_id VARCHAR(36) NOT NULL,
			pdf_store_id VARCHAR(36) NOT NULL,
			relevance TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (search_result_id, pdf_store_id)
		)`,
	}

	for _, tableSQL := range tables {
		if _, err := s.db.Exec(tableSQL); err != nil {
			s.logger.Error("Failed to execute schema statement", logger.String("sql", tableSQL), logger.Error(err))
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

// CreateSearchResult stores the candidate list of a search.
func (s *SQLStore) CreateSearchResult(ctx context.Context, sr *models.SearchResult) error {
	if sr.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		sr.ID = id
	}
	if sr.CreatedAt.IsZero() {
		sr.CreatedAt = time.Now().UTC()
	}
	if sr.Results == nil {
		sr.Results = make([]models.Candidate, 0)
	}
	raw, err := json.Marshal(sr.Results)
	if err != nil {
		return fmt.Errorf("failed to encode search results: %w", err)
	}
	sr.RawResult = string(raw)

	_, err = s.db.NamedExecContext(ctx,
		`INSERT INTO search_results (id, query, grade, results, created_at)
		 VALUES (:id, :query, :grade, :results, :created_at)`, sr)
	if err != nil {
		return fmt.Errorf("failed to insert search result: %w", err)
	}
	return nil
}

func (s *SQLStore) getSearchResult(ctx context.Context, query string, args ...interface{}) (*models.SearchResult, error) {
	var sr models.SearchResult
	if err := s.db.GetContext(ctx, &sr, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get search result: %w", err)
	}
	if err := json.Unmarshal([]byte(sr.RawResult), &sr.Results); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return &sr, nil
}

// FindSearchResult returns the earliest stored search for (query, grade).
func (s *SQLStore) FindSearchResult(ctx context.Context, query, grade string) (*models.SearchResult, error) {
	return s.getSearchResult(ctx,
		`SELECT id, query, grade, results, created_at FROM search_results
		 WHERE query = ? AND grade = ? ORDER BY created_at LIMIT 1`, query, grade)
}

func (s *SQLStore) GetSearchResult(ctx context.Context, id string) (*models.SearchResult, error) {
	return s.getSearchResult(ctx,
		`SELECT id, query, grade, results, created_at FROM search_results WHERE id = ?`, id)
}

// InsertDocument registers a retrieved document. An empty ID is assigned.
// A document already stored for the same source, query and grade is reused:
// doc takes over its id and creation time.
func (s *SQLStore) InsertDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		doc.ID = id
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.Key = doc.IdentityKey()

	_, insertErr := s.db.NamedExecContext(ctx,
		`INSERT INTO pdf_stores (id, document_key, query, grade, total_pages, title, description, thumbnail_url, s3_url, pdf_url, created_at)
		 VALUES (:id, :document_key, :query, :grade, :total_pages, :title, :description, :thumbnail_url, :s3_url, :pdf_url, :created_at)`, doc)
	if insertErr == nil {
		return nil
	}

	var existing struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := s.db.GetContext(ctx, &existing,
		`SELECT id, created_at FROM pdf_stores WHERE document_key = ?`, doc.Key)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", insertErr)
	}
	doc.ID, doc.CreatedAt = existing.ID, existing.CreatedAt
	return nil
}

// InsertResult writes the relevance of one document for one search. Writing
// the same pair twice returns the first row's id with created set to false.
func (s *SQLStore) InsertResult(ctx context.Context, searchResultID, documentID string, ranges models.PageRanges) (string, bool, error) {
	id, err := newID()
	if err != nil {
		return "", false, err
	}
	if ranges == nil {
		ranges = make(models.PageRanges, 0)
	}

	_, insertErr := s.db.ExecContext(ctx,
		`INSERT INTO pdf_parsed (id, search_result_id, pdf_store_id, relevance, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, searchResultID, documentID, ranges, time.Now().UTC())
	if insertErr == nil {
		return id, true, nil
	}

	var existing string
	err = s.db.GetContext(ctx, &existing,
		`SELECT id FROM pdf_parsed WHERE search_result_id = ? AND pdf_store_id = ?`, searchResultID, documentID)
	if err != nil {
		return "", false, fmt.Errorf("failed to insert result: %w", insertErr)
	}
	return existing, false, nil
}

// ListResults returns the persisted results of a search joined with their
// documents, oldest first.
func (s *SQLStore) ListResults(ctx context.Context, searchResultID string) ([]models.ResultWithDocument, error) {
	results := make([]models.ResultWithDocument, 0)
	err := s.db.SelectContext(ctx, &results,
		"SELECT p.id, p.search_result_id, p.pdf_store_id, p.relevance, p.created_at, "+
			"d.id AS `doc.id`, d.query AS `doc.query`, d.grade AS `doc.grade`, d.total_pages AS `doc.total_pages`, "+
			"d.title AS `doc.title`, d.description AS `doc.description`, d.thumbnail_url AS `doc.thumbnail_url`, "+
			"d.s3_url AS `doc.s3_url`, d.pdf_url AS `doc.pdf_url`, d.created_at AS `doc.created_at` "+
			"FROM pdf_parsed p JOIN pdf_stores d ON d.id = p.pdf_store_id "+
			"WHERE p.search_result_id = ? ORDER BY p.created_at, p.id", searchResultID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

// SearchHistory returns recent searches for grade whose query contains the
// given text, newest first and one entry per distinct query.
func (s *SQLStore) SearchHistory(ctx context.Context, query, grade string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows := make([]models.SearchResult, 0)
	err := s.db.SelectContext(ctx, &rows,
		`SELECT s.id, s.query, s.grade, s.created_at FROM search_results s
		 WHERE s.query LIKE ? ESCAPE '!' AND s.grade = ?
		   AND s.created_at = (
		     SELECT MAX(l.created_at) FROM search_results l
		     WHERE l.query = s.query AND l.grade = s.grade)
		 ORDER BY s.created_at DESC, s.id DESC LIMIT ?`,
		"%"+escapeLike(query)+"%", grade, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}

	// equal timestamps can still yield two rows for one query
	seen := make(map[string]bool, len(rows))
	unique := make([]models.SearchResult, 0, len(rows))
	for _, r := range rows {
		if seen[r.Query] {
			continue
		}
		seen[r.Query] = true
		unique = append(unique, r)
	}
	return unique, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes text match literally inside a LIKE pattern escaped by '!'.
func escapeLike(text string) string {
	return likeEscaper.Replace(text)
}
