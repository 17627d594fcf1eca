package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fable/pkg/schema"
)

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*schema.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, password, create_time FROM users WHERE username = ?
`, username)
	var user schema.User
	var createTime string
	if err := row.Scan(&user.ID, &user.Username, &user.Password, &createTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.CreateTime = parseTime(createTime)
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *schema.User) error {
	if user.CreateTime.IsZero() {
		user.CreateTime = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO users (username, password, create_time) VALUES (?, ?, ?)
`, user.Username, user.Password, formatTime(user.CreateTime))
	if err != nil {
		return err
	}
	user.ID, err = res.LastInsertId()
	return err
}

// ListUserWorlds returns a user's world memberships for one role.
func (s *Store) ListUserWorlds(ctx context.Context, userID int64, role string) ([]schema.UserWorld, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, world_id, role, create_time
FROM user_worlds
WHERE user_id = ? AND role = ?
ORDER BY id
`, userID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]schema.UserWorld, 0)
	for rows.Next() {
		var uw schema.UserWorld
		var createTime string
		if err := rows.Scan(&uw.ID, &uw.UserID, &uw.WorldID, &uw.Role, &createTime); err != nil {
			return nil, err
		}
		uw.CreateTime = parseTime(createTime)
		memberships = append(memberships, uw)
	}
	return memberships, rows.Err()
}

func (s *Store) CreateUserWorld(ctx context.Context, uw *schema.UserWorld) error {
	if uw.CreateTime.IsZero() {
		uw.CreateTime = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO user_worlds (user_id, world_id, role, create_time) VALUES (?, ?, ?, ?)
`, uw.UserID, uw.WorldID, uw.Role, formatTime(uw.CreateTime))
	if err != nil {
		return err
	}
	uw.ID, err = res.LastInsertId()
	return err
}
