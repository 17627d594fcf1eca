package store

import (
	"context"
	"database/sql"
	"time"

	"fable/pkg/schema"
)

func (s *Store) ListNovels(ctx context.Context, chapterID int64) ([]schema.NovelRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, chapter_id, user_id, title, content, create_time, popularity
FROM novel_records
WHERE chapter_id = ?
ORDER BY create_time DESC, id DESC
`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	novels := make([]schema.NovelRecord, 0)
	for rows.Next() {
		var novel schema.NovelRecord
		var title sql.NullString
		var createTime string
		if err := rows.Scan(&novel.ID, &novel.ChapterID, &novel.UserID, &title, &novel.Content, &createTime, &novel.Popularity); err != nil {
			return nil, err
		}
		if title.Valid {
			novel.Title = &title.String
		}
		novel.CreateTime = parseTime(createTime)
		novels = append(novels, novel)
	}
	return novels, rows.Err()
}

func (s *Store) CreateNovel(ctx context.Context, novel *schema.NovelRecord) error {
	if novel.CreateTime.IsZero() {
		novel.CreateTime = time.Now().UTC()
	}
	var title any
	if novel.Title != nil {
		title = *novel.Title
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO novel_records (chapter_id, user_id, title, content, create_time, popularity)
VALUES (?, ?, ?, ?, ?, ?)
`, novel.ChapterID, novel.UserID, title, novel.Content, formatTime(novel.CreateTime), novel.Popularity)
	if err != nil {
		return err
	}
	novel.ID, err = res.LastInsertId()
	return err
}
