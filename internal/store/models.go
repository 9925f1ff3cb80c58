package store

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// VideoNote is one entry in the notes array attached to a video.
type VideoNote struct {
	Text      string `json:"text"`
	Timestamp *int   `json:"timestamp,omitempty"`
}

// SessionVideo is embedded in a session's videos JSON column, not a row of
// its own. Note and NoteTimestamp are the legacy single-note fields; Notes is
// the current representation. See notes.go for the migration rules.
type SessionVideo struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Note          string      `json:"note,omitempty"`
	NoteTimestamp *int        `json:"noteTimestamp,omitempty"`
	Notes         []VideoNote `json:"notes,omitempty"`
}

type Session struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Videos    []SessionVideo `json:"videos"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
}

type Comment struct {
	ID               string    `json:"id"`
	SessionID        *string   `json:"session_id"`
	VideoID          string    `json:"video_id"`
	VideoTitle       string    `json:"video_title"`
	AuthorName       string    `json:"author_name"`
	TimestampSeconds *int      `json:"timestamp_seconds"`
	CommentText      string    `json:"comment_text"`
	SendToCaptain    bool      `json:"send_to_captain"`
	CreatedAt        time.Time `json:"created_at"`
}

// CommentFilter narrows a comment listing. CaptainOnly additionally restricts
// to send_to_captain rows; the handler gates it behind a captain token.
type CommentFilter struct {
	VideoID     string
	SessionID   string
	CaptainOnly bool
}

const (
	VideoTypeDrive   = "drive"
	VideoTypeYouTube = "youtube"
)

type ReferenceVideo struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Type          string      `json:"type"`
	VideoRef      string      `json:"video_ref"`
	Note          string      `json:"note,omitempty"`
	NoteTimestamp *int        `json:"note_timestamp,omitempty"`
	Notes         []VideoNote `json:"notes,omitempty"`
	FolderID      *string     `json:"folder_id"`
	SortOrder     int         `json:"sort_order"`
	CreatedAt     time.Time   `json:"created_at"`
}

type ReferenceFolder struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	ParentID    *string   `json:"parent_id"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	BlockText  = "text"
	BlockVideo = "video"
)

// ArticleBlock is one ordered block of an article. Text blocks carry markdown
// in Content. Video blocks come in two historical shapes: self-contained
// (VideoType + VideoRef) and legacy (ReferenceVideoID), the latter needing a
// join against reference videos at render time.
type ArticleBlock struct {
	Type             string `json:"type"`
	Content          string `json:"content,omitempty"`
	VideoType        string `json:"videoType,omitempty"`
	VideoRef         string `json:"videoRef,omitempty"`
	Title            string `json:"title,omitempty"`
	StartSeconds     *int   `json:"startSeconds,omitempty"`
	Caption          string `json:"caption,omitempty"`
	ReferenceVideoID string `json:"referenceVideoId,omitempty"`

	// Resolved carries the joined reference video for legacy blocks on read
	// paths. Never persisted.
	Resolved *ReferenceVideo `json:"resolved,omitempty"`
}

// SelfContained reports whether a video block carries its own video
// reference rather than pointing at a reference-library row.
func (b ArticleBlock) SelfContained() bool {
	return b.VideoRef != "" && b.VideoType != ""
}

type Article struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	AuthorID    *string        `json:"author_id"`
	AuthorName  string         `json:"author_name"`
	Blocks      []ArticleBlock `json:"blocks"`
	IsPublished bool           `json:"is_published"`
	FolderID    *string        `json:"folder_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ArticleUpdate is a presence-based partial update. Set flags distinguish
// "absent" from "explicitly null" for the nullable folder reference.
type ArticleUpdate struct {
	Title       *string
	Blocks      *[]ArticleBlock
	IsPublished *bool
	FolderID    *string
	FolderIDSet bool
}

type ReferenceVideoUpdate struct {
	Title            *string
	Type             *string
	VideoRef         *string
	Note             *string
	NoteSet          bool
	NoteTimestamp    *int
	NoteTimestampSet bool
	Notes            *[]VideoNote
	FolderID         *string
	FolderIDSet      bool
	SortOrder        *int
}

type ReferenceFolderUpdate struct {
	Name           *string
	Description    *string
	DescriptionSet bool
	ParentID       *string
	ParentIDSet    bool
	SortOrder      *int
}
