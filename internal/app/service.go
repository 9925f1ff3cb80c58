package app

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tackboard/api/internal/auth"
	"tackboard/api/internal/config"
	"tackboard/api/internal/policy"
	"tackboard/api/internal/ratelimit"
	"tackboard/api/internal/sheet"
	"tackboard/api/internal/store"
	"tackboard/api/internal/util"
)

const bcryptCost = 12

// dataStore is the persistence surface the service depends on. The production
// implementation is store.PostgresStore; tests swap in fakeStore.
type dataStore interface {
	CreateUser(ctx context.Context, user store.User) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)

	ListSessions(ctx context.Context) ([]store.Session, error)
	GetSession(ctx context.Context, sessionID string) (store.Session, error)
	GetActiveSession(ctx context.Context) (store.Session, error)
	CreateSessionExclusive(ctx context.Context, session store.Session) (store.Session, error)
	UpdateSessionVideos(ctx context.Context, sessionID string, videos []store.SessionVideo) (store.Session, error)

	ListComments(ctx context.Context, filter store.CommentFilter) ([]store.Comment, error)
	InsertComment(ctx context.Context, comment store.Comment) (store.Comment, error)

	ListReferenceVideos(ctx context.Context) ([]store.ReferenceVideo, error)
	GetReferenceVideo(ctx context.Context, videoID string) (store.ReferenceVideo, error)
	InsertReferenceVideo(ctx context.Context, video store.ReferenceVideo) (store.ReferenceVideo, error)
	UpdateReferenceVideo(ctx context.Context, videoID string, update store.ReferenceVideoUpdate) (store.ReferenceVideo, error)
	DeleteReferenceVideo(ctx context.Context, videoID string) error

	ListReferenceFolders(ctx context.Context) ([]store.ReferenceFolder, error)
	InsertReferenceFolder(ctx context.Context, folder store.ReferenceFolder) (store.ReferenceFolder, error)
	UpdateReferenceFolder(ctx context.Context, folderID string, update store.ReferenceFolderUpdate) (store.ReferenceFolder, error)
	DeleteReferenceFolder(ctx context.Context, folderID string) error

	ListArticles(ctx context.Context, publishedOnly bool) ([]store.Article, error)
	GetArticle(ctx context.Context, articleID string) (store.Article, error)
	InsertArticle(ctx context.Context, article store.Article) (store.Article, error)
	UpdateArticle(ctx context.Context, articleID string, update store.ArticleUpdate) (store.Article, error)
	DeleteArticle(ctx context.Context, articleID string) error

	Ping(ctx context.Context) error
}

type sheetImporter interface {
	FetchVideos(ctx context.Context, sheetID string) ([]sheet.Video, error)
}

type Service struct {
	cfg     config.Config
	store   dataStore
	sheets  sheetImporter
	limiter *ratelimit.Limiter
}

func NewService(cfg config.Config, dataStore dataStore, sheets sheetImporter, limiter *ratelimit.Limiter) *Service {
	return &Service{cfg: cfg, store: dataStore, sheets: sheets, limiter: limiter}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ActorFromRequest turns the session cookie into an authorization actor.
// Missing or invalid cookies yield nil, i.e. an anonymous caller.
func (s *Service) ActorFromRequest(r *http.Request) *policy.Actor {
	claims := auth.ClaimsFromRequest(r, []byte(s.cfg.AuthSecret))
	if claims == nil {
		return nil
	}
	return &policy.Actor{Role: claims.Role, UserID: claims.UserID, UserName: claims.UserName}
}

// ── Auth ──

type LoginResult struct {
	Token    string
	Role     string
	UserName string
}

// Login authenticates either the shared captain password (no username) or a
// registered contributor (username + password). Usernames are matched
// case-insensitively by lowercasing at both registration and login.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if password == "" {
		return LoginResult{}, errValidation("password is required")
	}

	limiterKey := username
	if limiterKey == "" {
		limiterKey = "captain"
	}
	if !s.limiter.Allow(ctx, limiterKey) {
		return LoginResult{}, errTooManyRequests("Too many login attempts, try again later")
	}

	if username == "" {
		if subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.CaptainPassword)) != 1 {
			return LoginResult{}, errUnauthorized("Invalid password")
		}
		token, err := auth.IssueToken([]byte(s.cfg.AuthSecret), auth.RoleCaptain, "", "Captain")
		if err != nil {
			return LoginResult{}, err
		}
		s.limiter.Reset(ctx, limiterKey)
		return LoginResult{Token: token, Role: auth.RoleCaptain, UserName: "Captain"}, nil
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return LoginResult{}, errUnauthorized("Invalid username or password")
	}
	if err != nil {
		return LoginResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, errUnauthorized("Invalid username or password")
	}

	token, err := auth.IssueToken([]byte(s.cfg.AuthSecret), user.Role, user.ID, user.DisplayName)
	if err != nil {
		return LoginResult{}, err
	}
	s.limiter.Reset(ctx, limiterKey)
	return LoginResult{Token: token, Role: user.Role, UserName: user.DisplayName}, nil
}

type RegisterInput struct {
	InviteCode  string
	Username    string
	DisplayName string
	Password    string
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (store.User, error) {
	if input.InviteCode != s.cfg.InviteCode {
		return store.User{}, errForbidden("Invalid invite code")
	}

	username := strings.ToLower(strings.TrimSpace(input.Username))
	displayName := strings.TrimSpace(input.DisplayName)
	if username == "" || displayName == "" || input.Password == "" {
		return store.User{}, errValidation("username, displayName and password are required")
	}

	_, err := s.store.GetUserByUsername(ctx, username)
	if err == nil {
		return store.User{}, errConflict("Username already taken")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return store.User{}, err
	}

	return s.store.CreateUser(ctx, store.User{
		ID:           util.NewID(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         auth.RoleContributor,
	})
}

// ── Sessions ──

func (s *Service) ListSessions(ctx context.Context, actor *policy.Actor) ([]store.Session, error) {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return nil, err
	}
	return s.store.ListSessions(ctx)
}

// CreateSession makes the new session the only active one: the store runs
// deactivate-all plus insert in one transaction.
func (s *Service) CreateSession(ctx context.Context, actor *policy.Actor, label string, videos []store.SessionVideo) (store.Session, error) {
	if err := policy.Authorize(actor, policy.CaptainOrOwner, ""); err != nil {
		return store.Session{}, err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return store.Session{}, errValidation("label is required")
	}
	if videos == nil {
		videos = []store.SessionVideo{}
	}
	return s.store.CreateSessionExclusive(ctx, store.Session{
		ID:     util.NewID(),
		Label:  label,
		Videos: videos,
	})
}

func (s *Service) ReplaceSessionVideos(ctx context.Context, actor *policy.Actor, sessionID string, videos []store.SessionVideo) (store.Session, error) {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return store.Session{}, err
	}
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return store.Session{}, err
	}
	return s.store.UpdateSessionVideos(ctx, sessionID, videos)
}

// PatchSessionVideoNote is the legacy single-note write. It persists the
// array representation even though the input is the old shape.
func (s *Service) PatchSessionVideoNote(ctx context.Context, actor *policy.Actor, sessionID, videoID, note string) (store.Session, error) {
	if err := policy.Authorize(actor, policy.CaptainOrOwner, ""); err != nil {
		return store.Session{}, err
	}
	return s.mutateSessionVideo(ctx, sessionID, videoID, func(video *store.SessionVideo) {
		if note == "" {
			video.ReplaceNotes(nil)
			return
		}
		video.ReplaceNotes([]store.VideoNote{{Text: note}})
	})
}

func (s *Service) ReplaceVideoNotes(ctx context.Context, actor *policy.Actor, sessionID, videoID string, notes []store.VideoNote) (store.Session, error) {
	if err := policy.Authorize(actor, policy.CaptainOrOwner, ""); err != nil {
		return store.Session{}, err
	}
	return s.mutateSessionVideo(ctx, sessionID, videoID, func(video *store.SessionVideo) {
		video.ReplaceNotes(notes)
	})
}

func (s *Service) AppendVideoNote(ctx context.Context, actor *policy.Actor, sessionID, videoID string, note store.VideoNote) (store.Session, error) {
	if err := policy.Authorize(actor, policy.CaptainOrOwner, ""); err != nil {
		return store.Session{}, err
	}
	if strings.TrimSpace(note.Text) == "" {
		return store.Session{}, errValidation("note text is required")
	}
	return s.mutateSessionVideo(ctx, sessionID, videoID, func(video *store.SessionVideo) {
		video.AppendNote(note)
	})
}

func (s *Service) mutateSessionVideo(ctx context.Context, sessionID, videoID string, mutate func(*store.SessionVideo)) (store.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return store.Session{}, err
	}
	found := false
	for i := range session.Videos {
		if session.Videos[i].ID == videoID {
			mutate(&session.Videos[i])
			found = true
			break
		}
	}
	if !found {
		return store.Session{}, errNotFound("Video not found in session")
	}
	return s.store.UpdateSessionVideos(ctx, sessionID, session.Videos)
}

// ActiveSession returns the active session with notes normalized for display,
// or nil when no session is active.
func (s *Service) ActiveSession(ctx context.Context) (*store.Session, error) {
	session, err := s.store.GetActiveSession(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	normalizeSessionVideos(&session)
	return &session, nil
}

func (s *Service) BrowseSessions(ctx context.Context) ([]store.Session, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		normalizeSessionVideos(&sessions[i])
	}
	return sessions, nil
}

func normalizeSessionVideos(session *store.Session) {
	for i := range session.Videos {
		session.Videos[i].Normalize()
	}
}

// ── Comments ──

func (s *Service) ListComments(ctx context.Context, actor *policy.Actor, filter store.CommentFilter) ([]store.Comment, error) {
	if filter.CaptainOnly {
		if actor == nil || actor.Role != policy.RoleCaptain {
			return nil, errUnauthorized("Captain access required")
		}
	}
	return s.store.ListComments(ctx, filter)
}

type CreateCommentInput struct {
	SessionID        *string
	VideoID          string
	VideoTitle       string
	AuthorName       string
	TimestampSeconds *int
	CommentText      string
	SendToCaptain    bool
}

func (s *Service) CreateComment(ctx context.Context, input CreateCommentInput) (store.Comment, error) {
	authorName := strings.TrimSpace(input.AuthorName)
	commentText := strings.TrimSpace(input.CommentText)
	if input.VideoID == "" || input.VideoTitle == "" || authorName == "" || commentText == "" {
		return store.Comment{}, errValidation("videoId, videoTitle, authorName and commentText are required")
	}
	return s.store.InsertComment(ctx, store.Comment{
		ID:               util.NewID(),
		SessionID:        input.SessionID,
		VideoID:          input.VideoID,
		VideoTitle:       input.VideoTitle,
		AuthorName:       authorName,
		TimestampSeconds: input.TimestampSeconds,
		CommentText:      commentText,
		SendToCaptain:    input.SendToCaptain,
	})
}

// ── Reference videos ──

func (s *Service) ListReferenceVideos(ctx context.Context) ([]store.ReferenceVideo, error) {
	return s.store.ListReferenceVideos(ctx)
}

func (s *Service) CreateReferenceVideo(ctx context.Context, actor *policy.Actor, video store.ReferenceVideo) (store.ReferenceVideo, error) {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return store.ReferenceVideo{}, err
	}
	video.Title = strings.TrimSpace(video.Title)
	if video.Title == "" || video.VideoRef == "" {
		return store.ReferenceVideo{}, errValidation("title and videoRef are required")
	}
	if video.Type != store.VideoTypeDrive && video.Type != store.VideoTypeYouTube {
		return store.ReferenceVideo{}, errValidation("type must be drive or youtube")
	}
	video.ID = util.NewID()
	return s.store.InsertReferenceVideo(ctx, video)
}

func (s *Service) UpdateReferenceVideo(ctx context.Context, actor *policy.Actor, videoID string, update store.ReferenceVideoUpdate) (store.ReferenceVideo, error) {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return store.ReferenceVideo{}, err
	}
	if update.Type != nil && *update.Type != store.VideoTypeDrive && *update.Type != store.VideoTypeYouTube {
		return store.ReferenceVideo{}, errValidation("type must be drive or youtube")
	}
	return s.store.UpdateReferenceVideo(ctx, videoID, update)
}

func (s *Service) DeleteReferenceVideo(ctx context.Context, actor *policy.Actor, videoID string) error {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return err
	}
	return s.store.DeleteReferenceVideo(ctx, videoID)
}

// ── Reference folders ──

func (s *Service) ListReferenceFolders(ctx context.Context) ([]store.ReferenceFolder, error) {
	return s.store.ListReferenceFolders(ctx)
}

func (s *Service) CreateReferenceFolder(ctx context.Context, actor *policy.Actor, folder store.ReferenceFolder) (store.ReferenceFolder, error) {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return store.ReferenceFolder{}, err
	}
	folder.Name = strings.TrimSpace(folder.Name)
	if folder.Name == "" {
		return store.ReferenceFolder{}, errValidation("name is required")
	}
	folder.ID = util.NewID()
	return s.store.InsertReferenceFolder(ctx, folder)
}

func (s *Service) UpdateReferenceFolder(ctx context.Context, actor *policy.Actor, folderID string, update store.ReferenceFolderUpdate) (store.ReferenceFolder, error) {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return store.ReferenceFolder{}, err
	}
	return s.store.UpdateReferenceFolder(ctx, folderID, update)
}

func (s *Service) DeleteReferenceFolder(ctx context.Context, actor *policy.Actor, folderID string) error {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return err
	}
	return s.store.DeleteReferenceFolder(ctx, folderID)
}

// ── Articles ──

func (s *Service) ListArticles(ctx context.Context, actor *policy.Actor, wantDrafts bool) ([]store.Article, error) {
	publishedOnly := true
	if wantDrafts && actor != nil {
		publishedOnly = false
	}
	return s.store.ListArticles(ctx, publishedOnly)
}

// GetArticle hides unpublished articles from anonymous callers with a 404 so
// draft ids are not leaked. Any valid session may read drafts.
func (s *Service) GetArticle(ctx context.Context, actor *policy.Actor, articleID string) (store.Article, error) {
	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return store.Article{}, err
	}
	if !article.IsPublished && actor == nil {
		return store.Article{}, errNotFound("Not found")
	}
	s.resolveBlocks(ctx, &article)
	return article, nil
}

// resolveBlocks joins legacy {referenceVideoId} video blocks against the
// reference library at read time. A missing reference leaves the block
// unresolved rather than failing the whole article.
func (s *Service) resolveBlocks(ctx context.Context, article *store.Article) {
	for i := range article.Blocks {
		block := &article.Blocks[i]
		if block.Type != store.BlockVideo || block.SelfContained() || block.ReferenceVideoID == "" {
			continue
		}
		resolved, err := s.store.GetReferenceVideo(ctx, block.ReferenceVideoID)
		if err != nil {
			continue
		}
		block.Resolved = &resolved
	}
}

// stripResolved drops the read-time resolution joins before a write so the
// denormalized copy never lands in the stored blocks.
func stripResolved(blocks []store.ArticleBlock) {
	for i := range blocks {
		blocks[i].Resolved = nil
	}
}

func (s *Service) CreateArticle(ctx context.Context, actor *policy.Actor, title string, blocks []store.ArticleBlock, folderID *string) (store.Article, error) {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return store.Article{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return store.Article{}, errValidation("title is required")
	}
	if blocks == nil {
		blocks = []store.ArticleBlock{}
	}
	stripResolved(blocks)

	article := store.Article{
		ID:         util.NewID(),
		Title:      title,
		AuthorName: actor.UserName,
		Blocks:     blocks,
		FolderID:   folderID,
	}
	if actor.UserID != "" {
		authorID := actor.UserID
		article.AuthorID = &authorID
	}
	return s.store.InsertArticle(ctx, article)
}

func (s *Service) UpdateArticle(ctx context.Context, actor *policy.Actor, articleID string, update store.ArticleUpdate) (store.Article, error) {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return store.Article{}, err
	}
	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return store.Article{}, err
	}
	if err := policy.Authorize(actor, policy.CaptainOrOwner, articleOwner(article)); err != nil {
		return store.Article{}, err
	}
	if update.Blocks != nil {
		stripResolved(*update.Blocks)
	}
	return s.store.UpdateArticle(ctx, articleID, update)
}

func (s *Service) DeleteArticle(ctx context.Context, actor *policy.Actor, articleID string) error {
	if err := policy.Authorize(actor, policy.Authenticated, ""); err != nil {
		return err
	}
	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.CaptainOrOwner, articleOwner(article)); err != nil {
		return err
	}
	return s.store.DeleteArticle(ctx, articleID)
}

func articleOwner(article store.Article) string {
	if article.AuthorID == nil {
		return ""
	}
	return *article.AuthorID
}

// ── Sheet import ──

func (s *Service) ImportSheet(ctx context.Context, actor *policy.Actor, sheetURL string) ([]sheet.Video, error) {
	if err := policy.Authorize(actor, policy.CaptainOrOwner, ""); err != nil {
		return nil, err
	}
	sheetID, ok := sheet.ExtractSheetID(sheetURL)
	if !ok {
		return nil, errValidation("Invalid Google Sheet URL")
	}
	videos, err := s.sheets.FetchVideos(ctx, sheetID)
	if err != nil {
		return nil, errValidation(err.Error())
	}
	if len(videos) == 0 {
		return nil, errValidation("No videos found in sheet")
	}
	return videos, nil
}
