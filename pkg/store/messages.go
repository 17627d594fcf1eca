package store

import (
	"context"
	"time"

	"fable/pkg/schema"
)

func (s *Store) ListMessages(ctx context.Context, chapterID int64) ([]schema.ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, chapter_id, user_id, role, content, create_time
FROM conversation_messages
WHERE chapter_id = ?
ORDER BY create_time, id
`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]schema.ConversationMessage, 0)
	for rows.Next() {
		var msg schema.ConversationMessage
		var createTime string
		if err := rows.Scan(&msg.ID, &msg.ChapterID, &msg.UserID, &msg.Role, &msg.Content, &createTime); err != nil {
			return nil, err
		}
		msg.CreateTime = parseTime(createTime)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *Store) CreateMessage(ctx context.Context, msg *schema.ConversationMessage) error {
	if msg.CreateTime.IsZero() {
		msg.CreateTime = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO conversation_messages (chapter_id, user_id, role, content, create_time)
VALUES (?, ?, ?, ?, ?)
`, msg.ChapterID, msg.UserID, msg.Role, msg.Content, formatTime(msg.CreateTime))
	if err != nil {
		return err
	}
	msg.ID, err = res.LastInsertId()
	return err
}

// DeleteMessagesFrom removes every message of the chapter with id >= fromID
// and reports how many rows went away. Used to rewind a conversation.
func (s *Store) DeleteMessagesFrom(ctx context.Context, chapterID, fromID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM conversation_messages WHERE chapter_id = ? AND id >= ?
`, chapterID, fromID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
