package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fable/pkg/schema"
)

// ChapterDeletion reports what a chapter delete cascade removed.
type ChapterDeletion struct {
	Messages int64 `json:"deleted_messages"`
	Novels   int64 `json:"deleted_novels"`
}

// ListChapters returns the chapters of a world, optionally filtered by the
// creating user.
func (s *Store) ListChapters(ctx context.Context, worldID int64, creatorUserID *int64) ([]schema.Chapter, error) {
	query := `
SELECT id, world_id, creator_user_id, name, opening, background, is_default, origin_chapter_id, create_time
FROM chapters
WHERE world_id = ?`
	args := []any{worldID}
	if creatorUserID != nil {
		query += ` AND creator_user_id = ?`
		args = append(args, *creatorUserID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chapters := make([]schema.Chapter, 0)
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, chapter)
	}
	return chapters, rows.Err()
}

func (s *Store) GetChapter(ctx context.Context, id int64) (*schema.Chapter, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, world_id, creator_user_id, name, opening, background, is_default, origin_chapter_id, create_time
FROM chapters
WHERE id = ?
`, id)
	chapter, err := scanChapter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &chapter, nil
}

// GetChapterDetail joins the chapter with the context fields of its world.
func (s *Store) GetChapterDetail(ctx context.Context, id int64) (*schema.ChapterDetail, error) {
	chapter, err := s.GetChapter(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &schema.ChapterDetail{Chapter: *chapter, MainCharacters: []schema.WorldCharacter{}}

	world, err := s.GetWorld(ctx, chapter.WorldID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return detail, nil
		}
		return nil, err
	}
	detail.Worldview = world.Worldview
	detail.MasterSitting = world.MasterSetting
	detail.MainCharacters = world.MainCharacters
	return detail, nil
}

func (s *Store) CreateChapter(ctx context.Context, chapter *schema.Chapter) error {
	if chapter.CreateTime.IsZero() {
		chapter.CreateTime = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO chapters (world_id, creator_user_id, name, opening, background, is_default, origin_chapter_id, create_time)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, chapter.WorldID, chapter.CreatorUserID, chapter.Name, nullIfEmpty(chapter.Opening),
		nullIfEmpty(chapter.Background), chapter.IsDefault, nullableID(chapter.OriginChapterID), formatTime(chapter.CreateTime))
	if err != nil {
		return err
	}
	chapter.ID, err = res.LastInsertId()
	return err
}

// DeleteChapter removes the chapter together with its messages and novels.
func (s *Store) DeleteChapter(ctx context.Context, id int64) (*ChapterDeletion, error) {
	if _, err := s.GetChapter(ctx, id); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var del ChapterDeletion
	res, err := tx.ExecContext(ctx, `DELETE FROM conversation_messages WHERE chapter_id = ?`, id)
	if err != nil {
		return nil, err
	}
	del.Messages, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM novel_records WHERE chapter_id = ?`, id)
	if err != nil {
		return nil, err
	}
	del.Novels, _ = res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &del, nil
}

func scanChapter(row rowScanner) (schema.Chapter, error) {
	var chapter schema.Chapter
	var opening, background sql.NullString
	var originChapterID sql.NullInt64
	var createTime string
	if err := row.Scan(&chapter.ID, &chapter.WorldID, &chapter.CreatorUserID, &chapter.Name,
		&opening, &background, &chapter.IsDefault, &originChapterID, &createTime); err != nil {
		return schema.Chapter{}, err
	}
	chapter.Opening = opening.String
	chapter.Background = background.String
	if originChapterID.Valid {
		chapter.OriginChapterID = &originChapterID.Int64
	}
	chapter.CreateTime = parseTime(createTime)
	return chapter, nil
}
