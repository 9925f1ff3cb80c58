package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ── Users ──

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, display_name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, user.ID, user.Username, user.DisplayName, user.PasswordHash, user.Role).Scan(&user.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, display_name, password_hash, role, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.DisplayName, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ── Sessions ──

const sessionColumns = `id, label, videos, is_active, created_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var item Session
	var videos []byte
	if err := row.Scan(&item.ID, &item.Label, &videos, &item.IsActive, &item.CreatedAt); err != nil {
		return Session{}, err
	}
	if len(videos) > 0 {
		if err := json.Unmarshal(videos, &item.Videos); err != nil {
			return Session{}, fmt.Errorf("decode session videos: %w", err)
		}
	}
	if item.Videos == nil {
		item.Videos = []SessionVideo{}
	}
	return item, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	items := make([]Session, 0)
	for rows.Next() {
		item, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (Session, error) {
	return scanSession(s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
	`, sessionID))
}

func (s *PostgresStore) GetActiveSession(ctx context.Context) (Session, error) {
	return scanSession(s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT 1
	`))
}

// CreateSessionExclusive deactivates every session and inserts the new one as
// active inside a single transaction, so exactly one session is active once
// it commits.
func (s *PostgresStore) CreateSessionExclusive(ctx context.Context, session Session) (Session, error) {
	videos, err := json.Marshal(session.Videos)
	if err != nil {
		return Session{}, fmt.Errorf("encode session videos: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("begin create session: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET is_active = FALSE WHERE is_active`); err != nil {
		return Session{}, fmt.Errorf("deactivate sessions: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO sessions (id, label, videos, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING created_at
	`, session.ID, session.Label, videos).Scan(&session.CreatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("commit create session: %w", err)
	}
	session.IsActive = true
	return session, nil
}

func (s *PostgresStore) UpdateSessionVideos(ctx context.Context, sessionID string, videos []SessionVideo) (Session, error) {
	encoded, err := json.Marshal(videos)
	if err != nil {
		return Session{}, fmt.Errorf("encode session videos: %w", err)
	}
	return scanSession(s.db.QueryRowContext(ctx, `
		UPDATE sessions
		SET videos = $2
		WHERE id = $1
		RETURNING `+sessionColumns+`
	`, sessionID, encoded))
}

// ── Comments ──

const commentColumns = `id, session_id, video_id, video_title, author_name, timestamp_seconds, comment_text, send_to_captain, created_at`

func scanComment(row interface{ Scan(...any) error }) (Comment, error) {
	var item Comment
	err := row.Scan(
		&item.ID,
		&item.SessionID,
		&item.VideoID,
		&item.VideoTitle,
		&item.AuthorName,
		&item.TimestampSeconds,
		&item.CommentText,
		&item.SendToCaptain,
		&item.CreatedAt,
	)
	if err != nil {
		return Comment{}, err
	}
	return item, nil
}

func (s *PostgresStore) ListComments(ctx context.Context, filter CommentFilter) ([]Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments`
	var clauses []string
	var args []any
	if filter.VideoID != "" {
		args = append(args, filter.VideoID)
		clauses = append(clauses, fmt.Sprintf("video_id = $%d", len(args)))
	}
	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		clauses = append(clauses, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if filter.CaptainOnly {
		clauses = append(clauses, "send_to_captain")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	items := make([]Comment, 0)
	for rows.Next() {
		item, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertComment(ctx context.Context, item Comment) (Comment, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (id, session_id, video_id, video_title, author_name, timestamp_seconds, comment_text, send_to_captain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, item.ID, item.SessionID, item.VideoID, item.VideoTitle, item.AuthorName, item.TimestampSeconds, item.CommentText, item.SendToCaptain).Scan(&item.CreatedAt)
	if err != nil {
		return Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return item, nil
}

// ── Reference videos ──

const referenceVideoColumns = `id, title, type, video_ref, note, note_timestamp, notes, folder_id, sort_order, created_at`

func scanReferenceVideo(row interface{ Scan(...any) error }) (ReferenceVideo, error) {
	var item ReferenceVideo
	var note sql.NullString
	var notes []byte
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Type,
		&item.VideoRef,
		&note,
		&item.NoteTimestamp,
		&notes,
		&item.FolderID,
		&item.SortOrder,
		&item.CreatedAt,
	)
	if err != nil {
		return ReferenceVideo{}, err
	}
	item.Note = note.String
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &item.Notes); err != nil {
			return ReferenceVideo{}, fmt.Errorf("decode reference video notes: %w", err)
		}
	}
	return item, nil
}

func (s *PostgresStore) ListReferenceVideos(ctx context.Context) ([]ReferenceVideo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+referenceVideoColumns+`
		FROM reference_videos
		ORDER BY sort_order ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list reference videos: %w", err)
	}
	defer rows.Close()

	items := make([]ReferenceVideo, 0)
	for rows.Next() {
		item, err := scanReferenceVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference video: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference videos: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetReferenceVideo(ctx context.Context, videoID string) (ReferenceVideo, error) {
	return scanReferenceVideo(s.db.QueryRowContext(ctx, `
		SELECT `+referenceVideoColumns+`
		FROM reference_videos
		WHERE id = $1
	`, videoID))
}

func (s *PostgresStore) InsertReferenceVideo(ctx context.Context, item ReferenceVideo) (ReferenceVideo, error) {
	notes, err := json.Marshal(item.Notes)
	if err != nil {
		return ReferenceVideo{}, fmt.Errorf("encode reference video notes: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO reference_videos (id, title, type, video_ref, note, note_timestamp, notes, folder_id, sort_order)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
		RETURNING created_at
	`, item.ID, item.Title, item.Type, item.VideoRef, item.Note, item.NoteTimestamp, notes, item.FolderID, item.SortOrder).Scan(&item.CreatedAt)
	if err != nil {
		return ReferenceVideo{}, fmt.Errorf("insert reference video: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateReferenceVideo(ctx context.Context, videoID string, update ReferenceVideoUpdate) (ReferenceVideo, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Type != nil {
		add("type", *update.Type)
	}
	if update.VideoRef != nil {
		add("video_ref", *update.VideoRef)
	}
	if update.NoteSet {
		add("note", update.Note)
	}
	if update.NoteTimestampSet {
		add("note_timestamp", update.NoteTimestamp)
	}
	if update.Notes != nil {
		encoded, err := json.Marshal(*update.Notes)
		if err != nil {
			return ReferenceVideo{}, fmt.Errorf("encode reference video notes: %w", err)
		}
		add("notes", encoded)
	}
	if update.FolderIDSet {
		add("folder_id", update.FolderID)
	}
	if update.SortOrder != nil {
		add("sort_order", *update.SortOrder)
	}
	if len(sets) == 0 {
		return ReferenceVideo{}, errors.New("no fields to update")
	}

	args = append(args, videoID)
	query := fmt.Sprintf(`
		UPDATE reference_videos
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), referenceVideoColumns)
	return scanReferenceVideo(s.db.QueryRowContext(ctx, query, args...))
}

func (s *PostgresStore) DeleteReferenceVideo(ctx context.Context, videoID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reference_videos WHERE id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("delete reference video: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ── Reference folders ──

const referenceFolderColumns = `id, name, description, parent_id, sort_order, created_at`

func scanReferenceFolder(row interface{ Scan(...any) error }) (ReferenceFolder, error) {
	var item ReferenceFolder
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.ParentID, &item.SortOrder, &item.CreatedAt)
	if err != nil {
		return ReferenceFolder{}, err
	}
	return item, nil
}

func (s *PostgresStore) ListReferenceFolders(ctx context.Context) ([]ReferenceFolder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+referenceFolderColumns+`
		FROM reference_folders
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list reference folders: %w", err)
	}
	defer rows.Close()

	items := make([]ReferenceFolder, 0)
	for rows.Next() {
		item, err := scanReferenceFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference folder: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference folders: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertReferenceFolder(ctx context.Context, item ReferenceFolder) (ReferenceFolder, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reference_folders (id, name, description, parent_id, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, item.ID, item.Name, item.Description, item.ParentID, item.SortOrder).Scan(&item.CreatedAt)
	if err != nil {
		return ReferenceFolder{}, fmt.Errorf("insert reference folder: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateReferenceFolder(ctx context.Context, folderID string, update ReferenceFolderUpdate) (ReferenceFolder, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.DescriptionSet {
		add("description", update.Description)
	}
	if update.ParentIDSet {
		add("parent_id", update.ParentID)
	}
	if update.SortOrder != nil {
		add("sort_order", *update.SortOrder)
	}
	if len(sets) == 0 {
		return ReferenceFolder{}, errors.New("no fields to update")
	}

	args = append(args, folderID)
	query := fmt.Sprintf(`
		UPDATE reference_folders
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), referenceFolderColumns)
	return scanReferenceFolder(s.db.QueryRowContext(ctx, query, args...))
}

// DeleteReferenceFolder removes a folder and its immediate child folders in
// one transaction. Videos under any deleted folder are orphaned (folder_id
// set to NULL), and folders nested deeper than one level are re-parented to
// the root so they stay reachable.
func (s *PostgresStore) DeleteReferenceFolder(ctx context.Context, folderID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete folder: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE reference_videos
		SET folder_id = NULL
		WHERE folder_id = $1
			OR folder_id IN (SELECT id FROM reference_folders WHERE parent_id = $1)
	`, folderID); err != nil {
		return fmt.Errorf("orphan folder videos: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE reference_folders
		SET parent_id = NULL
		WHERE parent_id IN (SELECT id FROM reference_folders WHERE parent_id = $1)
	`, folderID); err != nil {
		return fmt.Errorf("reparent grandchild folders: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_folders WHERE parent_id = $1`, folderID); err != nil {
		return fmt.Errorf("delete child folders: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM reference_folders WHERE id = $1`, folderID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete folder: %w", err)
	}
	return nil
}

// ── Articles ──

const articleColumns = `id, title, author_id, author_name, blocks, is_published, folder_id, created_at, updated_at`

func scanArticle(row interface{ Scan(...any) error }) (Article, error) {
	var item Article
	var blocks []byte
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.AuthorID,
		&item.AuthorName,
		&blocks,
		&item.IsPublished,
		&item.FolderID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return Article{}, err
	}
	if len(blocks) > 0 {
		if err := json.Unmarshal(blocks, &item.Blocks); err != nil {
			return Article{}, fmt.Errorf("decode article blocks: %w", err)
		}
	}
	if item.Blocks == nil {
		item.Blocks = []ArticleBlock{}
	}
	return item, nil
}

func (s *PostgresStore) ListArticles(ctx context.Context, publishedOnly bool) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	if publishedOnly {
		query += ` WHERE is_published`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	items := make([]Article, 0)
	for rows.Next() {
		item, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetArticle(ctx context.Context, articleID string) (Article, error) {
	return scanArticle(s.db.QueryRowContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE id = $1
	`, articleID))
}

func (s *PostgresStore) InsertArticle(ctx context.Context, item Article) (Article, error) {
	blocks, err := json.Marshal(item.Blocks)
	if err != nil {
		return Article{}, fmt.Errorf("encode article blocks: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO articles (id, title, author_id, author_name, blocks, is_published, folder_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, item.ID, item.Title, item.AuthorID, item.AuthorName, blocks, item.IsPublished, item.FolderID).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Article{}, fmt.Errorf("insert article: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateArticle(ctx context.Context, articleID string, update ArticleUpdate) (Article, error) {
	sets := []string{"updated_at = NOW()"}
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Blocks != nil {
		encoded, err := json.Marshal(*update.Blocks)
		if err != nil {
			return Article{}, fmt.Errorf("encode article blocks: %w", err)
		}
		add("blocks", encoded)
	}
	if update.IsPublished != nil {
		add("is_published", *update.IsPublished)
	}
	if update.FolderIDSet {
		add("folder_id", update.FolderID)
	}

	args = append(args, articleID)
	query := fmt.Sprintf(`
		UPDATE articles
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), articleColumns)
	return scanArticle(s.db.QueryRowContext(ctx, query, args...))
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, articleID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, articleID)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
