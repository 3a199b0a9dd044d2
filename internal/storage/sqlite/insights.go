package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sandevgo/screenmate/internal/core"
)

const insightColumns = `id, content, source, timestamp, relevance_score, context, app_name, topics, is_consolidated, access_count, last_accessed`

type InsightsRepo struct {
	db *sql.DB
}

func NewInsightsRepo(db *sql.DB) *InsightsRepo {
	return &InsightsRepo{db: db}
}

func (r *InsightsRepo) Insert(ctx context.Context, ins core.Insight) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO memories (content, source, timestamp, relevance_score, context, app_name, topics)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ins.Content,
		nullString(ins.Source),
		ins.Timestamp,
		ins.RelevanceScore,
		nullString(ins.Context),
		nullString(ins.AppName),
		encodeStrings(ins.Topics),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert insight: %w", err)
	}
	return res.LastInsertId()
}

func (r *InsightsRepo) GetByID(ctx context.Context, id int64) (core.Insight, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+insightColumns+` FROM memories WHERE id = ?`, id)
	return scanInsight(row)
}

func (r *InsightsRepo) Recent(ctx context.Context, limit int) ([]core.Insight, error) {
	return r.query(ctx,
		`SELECT `+insightColumns+` FROM memories ORDER BY timestamp DESC LIMIT ?`, limit)
}

func (r *InsightsRepo) SearchContent(ctx context.Context, query string, limit int) ([]core.Insight, error) {
	return r.query(ctx,
		`SELECT `+insightColumns+` FROM memories
		 WHERE content LIKE ?
		 ORDER BY relevance_score DESC
		 LIMIT ?`, likePattern(query), limit)
}

func (r *InsightsRepo) SearchTopics(ctx context.Context, topics []string, limit int) ([]core.Insight, error) {
	if len(topics) == 0 {
		return nil, nil
	}

	conditions := make([]string, 0, len(topics))
	args := make([]any, 0, len(topics)+1)
	for _, topic := range topics {
		conditions = append(conditions, "topics LIKE ?")
		args = append(args, likePattern(topic))
	}
	args = append(args, limit)

	q := `SELECT ` + insightColumns + ` FROM memories
		 WHERE ` + strings.Join(conditions, " OR ") + `
		 ORDER BY relevance_score DESC
		 LIMIT ?`
	return r.query(ctx, q, args...)
}

func (r *InsightsRepo) ByApp(ctx context.Context, appName string, limit int) ([]core.Insight, error) {
	return r.query(ctx,
		`SELECT `+insightColumns+` FROM memories
		 WHERE app_name = ?
		 ORDER BY timestamp DESC
		 LIMIT ?`, appName, limit)
}

func (r *InsightsRepo) TopRelevant(ctx context.Context, limit int) ([]core.Insight, error) {
	return r.query(ctx,
		`SELECT `+insightColumns+` FROM memories
		 ORDER BY relevance_score DESC, timestamp DESC
		 LIMIT ?`, limit)
}

func (r *InsightsRepo) SearchText(ctx context.Context, query string, limit int) ([]core.Insight, error) {
	pattern := likePattern(query)
	return r.query(ctx,
		`SELECT `+insightColumns+` FROM memories
		 WHERE content LIKE ? OR context LIKE ?
		 ORDER BY timestamp DESC
		 LIMIT ?`, pattern, pattern, limit)
}

// Filtered applies optional lower-bound timestamp and category filters. The
// category filter is a substring match against the serialized topics column,
// so category names must not be substrings of each other.
func (r *InsightsRepo) Filtered(ctx context.Context, since float64, category string, limit int) ([]core.Insight, error) {
	q := `SELECT ` + insightColumns + ` FROM memories`
	var clauses []string
	var args []any

	if since > 0 {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, since)
	}
	if category != "" {
		clauses = append(clauses, "topics LIKE ?")
		args = append(args, likePattern(category))
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	return r.query(ctx, q, args...)
}

func (r *InsightsRepo) Unconsolidated(ctx context.Context) ([]core.Insight, error) {
	return r.query(ctx,
		`SELECT `+insightColumns+` FROM memories
		 WHERE is_consolidated = 0
		 ORDER BY timestamp DESC`)
}

func (r *InsightsRepo) CountUnconsolidated(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE is_consolidated = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unconsolidated: %w", err)
	}
	return count, nil
}

func (r *InsightsRepo) MarkConsolidated(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	q := fmt.Sprintf(`UPDATE memories SET is_consolidated = 1 WHERE id IN (%s)`, placeholders(len(ids)))
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("failed to mark consolidated: %w", err)
	}
	return nil
}

func (r *InsightsRepo) Touch(ctx context.Context, id int64, when float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memories SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`,
		when, id)
	if err != nil {
		return fmt.Errorf("failed to touch insight: %w", err)
	}
	return nil
}

func (r *InsightsRepo) MeanTopicEngagement(ctx context.Context, topic string) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(access_count) FROM memories WHERE topics LIKE ?`,
		likePattern(topic)).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to query topic engagement: %w", err)
	}
	return avg.Float64, nil
}

func (r *InsightsRepo) CountByApp(ctx context.Context, appName string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE app_name = ?`, appName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count by app: %w", err)
	}
	return count, nil
}

func (r *InsightsRepo) UpdateContent(ctx context.Context, id int64, content string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE memories SET content = ? WHERE id = ?`, content, id); err != nil {
		return fmt.Errorf("failed to update content: %w", err)
	}
	return nil
}

func (r *InsightsRepo) UpdateTopics(ctx context.Context, id int64, topics []string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE memories SET topics = ? WHERE id = ?`, encodeStrings(topics), id); err != nil {
		return fmt.Errorf("failed to update topics: %w", err)
	}
	return nil
}

func (r *InsightsRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM memories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete insight: %w", err)
	}
	return nil
}

// DeleteStale removes insights that are old AND low-value AND rarely
// accessed. All three gates are conjunctive; age alone never deletes.
func (r *InsightsRepo) DeleteStale(ctx context.Context, before float64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM memories
		 WHERE timestamp < ? AND relevance_score < 0.7 AND access_count < 3`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale insights: %w", err)
	}
	return res.RowsAffected()
}

func (r *InsightsRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count insights: %w", err)
	}
	return count, nil
}

func (r *InsightsRepo) AvgRelevance(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, `SELECT AVG(relevance_score) FROM memories`).Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to query avg relevance: %w", err)
	}
	return avg.Float64, nil
}

func (r *InsightsRepo) AllTopics(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT topics, COUNT(*) FROM memories WHERE topics IS NOT NULL GROUP BY topics`)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var topicsJSON sql.NullString
		var count int
		if err := rows.Scan(&topicsJSON, &count); err != nil {
			return nil, fmt.Errorf("failed to scan topics row: %w", err)
		}
		for _, topic := range decodeStrings(topicsJSON) {
			counts[topic] += count
		}
	}
	return counts, rows.Err()
}

func (r *InsightsRepo) FrequentApps(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT app_name, COUNT(*) as count
		 FROM memories
		 WHERE app_name IS NOT NULL
		 GROUP BY app_name
		 ORDER BY count DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query frequent apps: %w", err)
	}
	defer rows.Close()

	var apps []string
	for rows.Next() {
		var app string
		var count int
		if err := rows.Scan(&app, &count); err != nil {
			return nil, fmt.Errorf("failed to scan app row: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (r *InsightsRepo) query(ctx context.Context, q string, args ...any) ([]core.Insight, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var insights []core.Insight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		insights = append(insights, ins)
	}
	return insights, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInsight(row rowScanner) (core.Insight, error) {
	var ins core.Insight
	var source, context, appName, topics sql.NullString
	var lastAccessed sql.NullFloat64

	err := row.Scan(
		&ins.ID, &ins.Content, &source, &ins.Timestamp, &ins.RelevanceScore,
		&context, &appName, &topics, &ins.IsConsolidated, &ins.AccessCount, &lastAccessed,
	)
	if err != nil {
		return core.Insight{}, fmt.Errorf("failed to scan insight: %w", err)
	}

	ins.Source = source.String
	ins.Context = context.String
	ins.AppName = appName.String
	ins.Topics = decodeStrings(topics)
	ins.LastAccessed = lastAccessed.Float64
	return ins, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
