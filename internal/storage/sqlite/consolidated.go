package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/screenmate/internal/core"
)

const consolidatedColumns = `id, content, source_ids, timestamp, topics, access_count, last_accessed`

type ConsolidatedRepo struct {
	db *sql.DB
}

func NewConsolidatedRepo(db *sql.DB) *ConsolidatedRepo {
	return &ConsolidatedRepo{db: db}
}

func (r *ConsolidatedRepo) Insert(ctx context.Context, mem core.ConsolidatedMemory) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO consolidated_memories (content, source_ids, timestamp, topics)
		 VALUES (?, ?, ?, ?)`,
		mem.Content, encodeIDs(mem.SourceIDs), mem.Timestamp, encodeStrings(mem.Topics),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert consolidated memory: %w", err)
	}
	return res.LastInsertId()
}

func (r *ConsolidatedRepo) SearchContent(ctx context.Context, query string, limit int) ([]core.ConsolidatedMemory, error) {
	return r.query(ctx,
		`SELECT `+consolidatedColumns+` FROM consolidated_memories
		 WHERE content LIKE ?
		 ORDER BY last_accessed DESC
		 LIMIT ?`, likePattern(query), limit)
}

func (r *ConsolidatedRepo) RecentlyAccessed(ctx context.Context, limit int) ([]core.ConsolidatedMemory, error) {
	return r.query(ctx,
		`SELECT `+consolidatedColumns+` FROM consolidated_memories
		 ORDER BY last_accessed DESC
		 LIMIT ?`, limit)
}

func (r *ConsolidatedRepo) Touch(ctx context.Context, id int64, when float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE consolidated_memories SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`,
		when, id)
	if err != nil {
		return fmt.Errorf("failed to touch consolidated memory: %w", err)
	}
	return nil
}

// DeleteStale removes consolidated memories that are both old and rarely
// accessed. Conjunctive, like the insight retention gate.
func (r *ConsolidatedRepo) DeleteStale(ctx context.Context, before float64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM consolidated_memories WHERE timestamp < ? AND access_count < 2`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale consolidated memories: %w", err)
	}
	return res.RowsAffected()
}

func (r *ConsolidatedRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM consolidated_memories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count consolidated memories: %w", err)
	}
	return count, nil
}

func (r *ConsolidatedRepo) query(ctx context.Context, q string, args ...any) ([]core.ConsolidatedMemory, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query consolidated memories: %w", err)
	}
	defer rows.Close()

	var memories []core.ConsolidatedMemory
	for rows.Next() {
		var mem core.ConsolidatedMemory
		var sourceIDs, topics sql.NullString
		var lastAccessed sql.NullFloat64

		if err := rows.Scan(&mem.ID, &mem.Content, &sourceIDs, &mem.Timestamp, &topics, &mem.AccessCount, &lastAccessed); err != nil {
			return nil, fmt.Errorf("failed to scan consolidated memory: %w", err)
		}

		mem.SourceIDs = decodeIDs(sourceIDs)
		mem.Topics = decodeStrings(topics)
		mem.LastAccessed = lastAccessed.Float64
		memories = append(memories, mem)
	}
	return memories, rows.Err()
}
