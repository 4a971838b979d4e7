package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

const defaultPGVectorTable = "document_chunks"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type PGVectorConfig struct {
	DSN   string `required:"true"`
	Table string `default:"document_chunks"`
}

// PGVector queries a pgvector table with columns
// (id text, namespace text, embedding vector, metadata jsonb).
type PGVector struct {
	pool  *pgxpool.Pool
	query string
}

var _ contractx.VectorIndex = (*PGVector)(nil)

func OpenPGVector(ctx context.Context, cfg PGVectorConfig) (*PGVector, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%w: pgvector dsn is required", contractx.ErrValidation)
	}
	query, err := buildPGVectorQuery(cfg.Table)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PGVector{pool: pool, query: query}, nil
}

func (p *PGVector) Close() {
	p.pool.Close()
}

func (p *PGVector) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]contractx.Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be > 0", contractx.ErrValidation)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", contractx.ErrValidation)
	}

	rows, err := p.pool.Query(ctx, p.query, pgVector(vector), namespace, topK)
	if err != nil {
		return nil, fmt.Errorf("query document chunks: %w", err)
	}
	defer rows.Close()

	var matches []contractx.Match
	for rows.Next() {
		var (
			m   contractx.Match
			raw []byte
		)
		if err := rows.Scan(&m.ID, &m.Score, &raw); err != nil {
			return nil, fmt.Errorf("scan document chunk: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &m.Metadata); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return matches, nil
}

func buildPGVectorQuery(table string) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		table = defaultPGVectorTable
	}
	if !tableNamePattern.MatchString(table) {
		return "", errors.New("invalid pgvector table name: " + table)
	}
	return `
		SELECT id, 1 - (embedding <=> $1::vector) AS score, metadata
		FROM ` + table + `
		WHERE namespace = $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3`, nil
}

// pgVector formats v as a pgvector literal, e.g. "[0.1,0.2,0.3]".
func pgVector(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
