package schema

import "time"

// Message roles stored in conversation_messages.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// World membership roles stored in user_worlds.
const (
	WorldRoleCreator     = "creator"
	WorldRoleParticipant = "participant"
	WorldRoleViewer      = "viewer"
)

func ValidMessageRole(role string) bool {
	return role == RoleUser || role == RoleAI
}

func ValidWorldRole(role string) bool {
	return role == WorldRoleCreator || role == WorldRoleParticipant || role == WorldRoleViewer
}

type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Password   string    `json:"-"`
	CreateTime time.Time `json:"create_time"`
}

type World struct {
	ID             int64            `json:"id"`
	UserID         int64            `json:"user_id"`
	Name           string           `json:"name"`
	Tags           []string         `json:"tags"`
	IsPublic       bool             `json:"is_public"`
	Worldview      string           `json:"worldview"`
	MasterSetting  string           `json:"master_setting"`
	OriginWorldID  *int64           `json:"origin_world_id"`
	CreateTime     time.Time        `json:"create_time"`
	Popularity     int64            `json:"popularity"`
	MainCharacters []WorldCharacter `json:"main_characters"`
}

type WorldCharacter struct {
	Name       string `json:"name"`
	Background string `json:"background"`
}

type Chapter struct {
	ID              int64     `json:"id"`
	WorldID         int64     `json:"world_id"`
	CreatorUserID   int64     `json:"creator_user_id"`
	Name            string    `json:"name"`
	Opening         string    `json:"opening"`
	Background      string    `json:"background"`
	IsDefault       bool      `json:"is_default"`
	OriginChapterID *int64    `json:"origin_chapter_id"`
	CreateTime      time.Time `json:"create_time"`
}

// ChapterDetail is the chapter row joined with the context fields of its
// owning world, as the front end pulls them in one request. The master
// setting is exposed as "master_sitting" for historical client reasons.
type ChapterDetail struct {
	Chapter
	Worldview      string           `json:"worldview"`
	MasterSitting  string           `json:"master_sitting"`
	MainCharacters []WorldCharacter `json:"main_characters"`
}

type ConversationMessage struct {
	ID         int64     `json:"id"`
	ChapterID  int64     `json:"chapter_id"`
	UserID     int64     `json:"user_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	CreateTime time.Time `json:"create_time"`
}

type NovelRecord struct {
	ID         int64     `json:"id"`
	ChapterID  int64     `json:"chapter_id"`
	UserID     int64     `json:"user_id"`
	Title      *string   `json:"title"`
	Content    string    `json:"content"`
	CreateTime time.Time `json:"create_time"`
	Popularity int64     `json:"popularity"`
}

type UserWorld struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	WorldID    int64     `json:"world_id"`
	Role       string    `json:"role"`
	CreateTime time.Time `json:"create_time"`
}
