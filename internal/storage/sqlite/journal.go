package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/screenmate/internal/core"
)

const journalColumns = `id, title, content, mood, tags, timestamp, last_modified`

type JournalRepo struct {
	db *sql.DB
}

func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

func (r *JournalRepo) Add(ctx context.Context, entry core.JournalEntry) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO journal_entries (title, content, mood, tags, timestamp, last_modified)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Title, entry.Content, nullString(entry.Mood), encodeStrings(entry.Tags),
		entry.Timestamp, entry.LastModified,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return res.LastInsertId()
}

func (r *JournalRepo) GetByID(ctx context.Context, id int64) (core.JournalEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+journalColumns+` FROM journal_entries WHERE id = ?`, id)
	return scanJournalEntry(row)
}

func (r *JournalRepo) List(ctx context.Context, limit, offset int, mood, tag string) ([]core.JournalEntry, error) {
	q := `SELECT ` + journalColumns + ` FROM journal_entries`
	var clauses []string
	var args []any

	if mood != "" {
		clauses = append(clauses, "mood = ?")
		args = append(args, mood)
	}
	if tag != "" {
		clauses = append(clauses, "tags LIKE ?")
		args = append(args, likePattern(tag))
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []core.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *JournalRepo) Update(ctx context.Context, id int64, upd core.JournalUpdate) error {
	var sets []string
	var args []any

	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *upd.Content)
	}
	if upd.Mood != nil {
		sets = append(sets, "mood = ?")
		args = append(args, *upd.Mood)
	}
	if upd.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, encodeStrings(*upd.Tags))
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "last_modified = ?")
	args = append(args, core.NowUnix(), id)

	q := fmt.Sprintf(`UPDATE journal_entries SET %s WHERE id = ?`, strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("failed to update journal entry: %w", err)
	}
	return nil
}

func (r *JournalRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	return nil
}

func (r *JournalRepo) Stats(ctx context.Context) (core.JournalStats, error) {
	stats := core.JournalStats{MoodDistribution: make(map[string]int)}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal_entries`).Scan(&stats.TotalEntries); err != nil {
		return stats, fmt.Errorf("failed to count journal entries: %w", err)
	}

	moodRows, err := r.db.QueryContext(ctx,
		`SELECT mood, COUNT(*) FROM journal_entries GROUP BY mood`)
	if err != nil {
		return stats, fmt.Errorf("failed to query mood distribution: %w", err)
	}
	defer moodRows.Close()

	for moodRows.Next() {
		var mood sql.NullString
		var count int
		if err := moodRows.Scan(&mood, &count); err != nil {
			return stats, fmt.Errorf("failed to scan mood row: %w", err)
		}
		stats.MoodDistribution[mood.String] = count
	}
	if err := moodRows.Err(); err != nil {
		return stats, err
	}

	tagRows, err := r.db.QueryContext(ctx, `SELECT tags FROM journal_entries`)
	if err != nil {
		return stats, fmt.Errorf("failed to query tags: %w", err)
	}
	defer tagRows.Close()

	tagCounts := make(map[string]int)
	for tagRows.Next() {
		var tags sql.NullString
		if err := tagRows.Scan(&tags); err != nil {
			return stats, fmt.Errorf("failed to scan tags row: %w", err)
		}
		for _, tag := range decodeStrings(tags) {
			tagCounts[tag]++
		}
	}
	if err := tagRows.Err(); err != nil {
		return stats, err
	}

	stats.TopTags = topTags(tagCounts, 10)
	return stats, nil
}

func topTags(counts map[string]int, limit int) []core.TagCount {
	ranked := make([]core.TagCount, 0, len(counts))
	for tag, count := range counts {
		ranked = append(ranked, core.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Tag < ranked[j].Tag
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func scanJournalEntry(row rowScanner) (core.JournalEntry, error) {
	var entry core.JournalEntry
	var mood, tags sql.NullString

	err := row.Scan(&entry.ID, &entry.Title, &entry.Content, &mood, &tags, &entry.Timestamp, &entry.LastModified)
	if err != nil {
		return core.JournalEntry{}, fmt.Errorf("failed to scan journal entry: %w", err)
	}

	entry.Mood = mood.String
	entry.Tags = decodeStrings(tags)
	return entry, nil
}
