package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"fable/pkg/schema"
)

// WorldDeletion reports how many rows each cascade step removed.
type WorldDeletion struct {
	Chapters   int64 `json:"deleted_chapters"`
	Messages   int64 `json:"deleted_messages"`
	Novels     int64 `json:"deleted_novels"`
	UserWorlds int64 `json:"deleted_user_worlds"`
	Characters int64 `json:"deleted_characters"`
}

func (s *Store) ListWorlds(ctx context.Context) ([]schema.World, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, name, tags, is_public, worldview, master_setting, origin_world_id, create_time, popularity
FROM worlds
ORDER BY id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var worlds []schema.World
	for rows.Next() {
		world, err := scanWorld(rows)
		if err != nil {
			return nil, err
		}
		worlds = append(worlds, world)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range worlds {
		chars, err := s.charactersByWorld(ctx, worlds[i].ID)
		if err != nil {
			return nil, err
		}
		worlds[i].MainCharacters = chars
	}
	return worlds, nil
}

func (s *Store) GetWorld(ctx context.Context, id int64) (*schema.World, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, name, tags, is_public, worldview, master_setting, origin_world_id, create_time, popularity
FROM worlds
WHERE id = ?
`, id)
	world, err := scanWorld(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	chars, err := s.charactersByWorld(ctx, world.ID)
	if err != nil {
		return nil, err
	}
	world.MainCharacters = chars
	return &world, nil
}

// CreateWorld inserts the world and its characters in one transaction.
func (s *Store) CreateWorld(ctx context.Context, world *schema.World) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if world.CreateTime.IsZero() {
		world.CreateTime = time.Now().UTC()
	}
	tags, err := json.Marshal(world.Tags)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO worlds (user_id, name, tags, is_public, worldview, master_setting, origin_world_id, create_time, popularity)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, world.UserID, world.Name, string(tags), world.IsPublic, nullIfEmpty(world.Worldview),
		nullIfEmpty(world.MasterSetting), nullableID(world.OriginWorldID), formatTime(world.CreateTime), world.Popularity)
	if err != nil {
		return err
	}
	world.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	for _, ch := range world.MainCharacters {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO world_characters (world_id, name, background) VALUES (?, ?, ?)
`, world.ID, ch.Name, nullIfEmpty(ch.Background)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteWorld removes the world and everything hanging off it. Messages and
// novels go first, then chapters, memberships, characters, and finally the
// world row itself, all within one transaction.
func (s *Store) DeleteWorld(ctx context.Context, id int64) (*WorldDeletion, error) {
	if _, err := s.GetWorld(ctx, id); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var del WorldDeletion
	steps := []struct {
		dst   *int64
		query string
	}{
		{&del.Messages, `DELETE FROM conversation_messages WHERE chapter_id IN (SELECT id FROM chapters WHERE world_id = ?)`},
		{&del.Novels, `DELETE FROM novel_records WHERE chapter_id IN (SELECT id FROM chapters WHERE world_id = ?)`},
		{&del.Chapters, `DELETE FROM chapters WHERE world_id = ?`},
		{&del.UserWorlds, `DELETE FROM user_worlds WHERE world_id = ?`},
		{&del.Characters, `DELETE FROM world_characters WHERE world_id = ?`},
	}
	for _, step := range steps {
		res, err := tx.ExecContext(ctx, step.query, id)
		if err != nil {
			return nil, err
		}
		*step.dst, _ = res.RowsAffected()
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM worlds WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &del, nil
}

func (s *Store) charactersByWorld(ctx context.Context, worldID int64) ([]schema.WorldCharacter, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, background FROM world_characters WHERE world_id = ? ORDER BY id
`, worldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chars := make([]schema.WorldCharacter, 0)
	for rows.Next() {
		var ch schema.WorldCharacter
		var background sql.NullString
		if err := rows.Scan(&ch.Name, &background); err != nil {
			return nil, err
		}
		ch.Background = background.String
		chars = append(chars, ch)
	}
	return chars, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorld(row rowScanner) (schema.World, error) {
	var world schema.World
	var tags, worldview, masterSetting sql.NullString
	var originWorldID sql.NullInt64
	var createTime string
	if err := row.Scan(&world.ID, &world.UserID, &world.Name, &tags, &world.IsPublic,
		&worldview, &masterSetting, &originWorldID, &createTime, &world.Popularity); err != nil {
		return schema.World{}, err
	}
	if tags.Valid && tags.String != "" {
		_ = json.Unmarshal([]byte(tags.String), &world.Tags)
	}
	world.Worldview = worldview.String
	world.MasterSetting = masterSetting.String
	if originWorldID.Valid {
		world.OriginWorldID = &originWorldID.Int64
	}
	world.CreateTime = parseTime(createTime)
	return world, nil
}
