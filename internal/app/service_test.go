package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"tackboard/api/internal/config"
	"tackboard/api/internal/policy"
	"tackboard/api/internal/sheet"
	"tackboard/api/internal/store"
)

// fakeStore implements dataStore with overridable function fields. Methods
// without an override return "not found" or empty results.
type fakeStore struct {
	createUserFn        func(ctx context.Context, user store.User) (store.User, error)
	getUserByUsernameFn func(ctx context.Context, username string) (store.User, error)

	listSessionsFn           func(ctx context.Context) ([]store.Session, error)
	getSessionFn             func(ctx context.Context, sessionID string) (store.Session, error)
	getActiveSessionFn       func(ctx context.Context) (store.Session, error)
	createSessionExclusiveFn func(ctx context.Context, session store.Session) (store.Session, error)
	updateSessionVideosFn    func(ctx context.Context, sessionID string, videos []store.SessionVideo) (store.Session, error)

	listCommentsFn  func(ctx context.Context, filter store.CommentFilter) ([]store.Comment, error)
	insertCommentFn func(ctx context.Context, comment store.Comment) (store.Comment, error)

	listReferenceVideosFn  func(ctx context.Context) ([]store.ReferenceVideo, error)
	getReferenceVideoFn    func(ctx context.Context, videoID string) (store.ReferenceVideo, error)
	insertReferenceVideoFn func(ctx context.Context, video store.ReferenceVideo) (store.ReferenceVideo, error)
	updateReferenceVideoFn func(ctx context.Context, videoID string, update store.ReferenceVideoUpdate) (store.ReferenceVideo, error)
	deleteReferenceVideoFn func(ctx context.Context, videoID string) error

	listReferenceFoldersFn  func(ctx context.Context) ([]store.ReferenceFolder, error)
	insertReferenceFolderFn func(ctx context.Context, folder store.ReferenceFolder) (store.ReferenceFolder, error)
	updateReferenceFolderFn func(ctx context.Context, folderID string, update store.ReferenceFolderUpdate) (store.ReferenceFolder, error)
	deleteReferenceFolderFn func(ctx context.Context, folderID string) error

	listArticlesFn  func(ctx context.Context, publishedOnly bool) ([]store.Article, error)
	getArticleFn    func(ctx context.Context, articleID string) (store.Article, error)
	insertArticleFn func(ctx context.Context, article store.Article) (store.Article, error)
	updateArticleFn func(ctx context.Context, articleID string, update store.ArticleUpdate) (store.Article, error)
	deleteArticleFn func(ctx context.Context, articleID string) error
}

func (f *fakeStore) CreateUser(ctx context.Context, user store.User) (store.User, error) {
	if f.createUserFn != nil {
		return f.createUserFn(ctx, user)
	}
	return user, nil
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (store.User, error) {
	if f.getUserByUsernameFn != nil {
		return f.getUserByUsernameFn(ctx, username)
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) ListSessions(ctx context.Context) ([]store.Session, error) {
	if f.listSessionsFn != nil {
		return f.listSessionsFn(ctx)
	}
	return []store.Session{}, nil
}

func (f *fakeStore) GetSession(ctx context.Context, sessionID string) (store.Session, error) {
	if f.getSessionFn != nil {
		return f.getSessionFn(ctx, sessionID)
	}
	return store.Session{}, sql.ErrNoRows
}

func (f *fakeStore) GetActiveSession(ctx context.Context) (store.Session, error) {
	if f.getActiveSessionFn != nil {
		return f.getActiveSessionFn(ctx)
	}
	return store.Session{}, sql.ErrNoRows
}

func (f *fakeStore) CreateSessionExclusive(ctx context.Context, session store.Session) (store.Session, error) {
	if f.createSessionExclusiveFn != nil {
		return f.createSessionExclusiveFn(ctx, session)
	}
	session.IsActive = true
	return session, nil
}

func (f *fakeStore) UpdateSessionVideos(ctx context.Context, sessionID string, videos []store.SessionVideo) (store.Session, error) {
	if f.updateSessionVideosFn != nil {
		return f.updateSessionVideosFn(ctx, sessionID, videos)
	}
	return store.Session{ID: sessionID, Videos: videos}, nil
}

func (f *fakeStore) ListComments(ctx context.Context, filter store.CommentFilter) ([]store.Comment, error) {
	if f.listCommentsFn != nil {
		return f.listCommentsFn(ctx, filter)
	}
	return []store.Comment{}, nil
}

func (f *fakeStore) InsertComment(ctx context.Context, comment store.Comment) (store.Comment, error) {
	if f.insertCommentFn != nil {
		return f.insertCommentFn(ctx, comment)
	}
	return comment, nil
}

func (f *fakeStore) ListReferenceVideos(ctx context.Context) ([]store.ReferenceVideo, error) {
	if f.listReferenceVideosFn != nil {
		return f.listReferenceVideosFn(ctx)
	}
	return []store.ReferenceVideo{}, nil
}

func (f *fakeStore) GetReferenceVideo(ctx context.Context, videoID string) (store.ReferenceVideo, error) {
	if f.getReferenceVideoFn != nil {
		return f.getReferenceVideoFn(ctx, videoID)
	}
	return store.ReferenceVideo{}, sql.ErrNoRows
}

func (f *fakeStore) InsertReferenceVideo(ctx context.Context, video store.ReferenceVideo) (store.ReferenceVideo, error) {
	if f.insertReferenceVideoFn != nil {
		return f.insertReferenceVideoFn(ctx, video)
	}
	return video, nil
}

func (f *fakeStore) UpdateReferenceVideo(ctx context.Context, videoID string, update store.ReferenceVideoUpdate) (store.ReferenceVideo, error) {
	if f.updateReferenceVideoFn != nil {
		return f.updateReferenceVideoFn(ctx, videoID, update)
	}
	return store.ReferenceVideo{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteReferenceVideo(ctx context.Context, videoID string) error {
	if f.deleteReferenceVideoFn != nil {
		return f.deleteReferenceVideoFn(ctx, videoID)
	}
	return sql.ErrNoRows
}

func (f *fakeStore) ListReferenceFolders(ctx context.Context) ([]store.ReferenceFolder, error) {
	if f.listReferenceFoldersFn != nil {
		return f.listReferenceFoldersFn(ctx)
	}
	return []store.ReferenceFolder{}, nil
}

func (f *fakeStore) InsertReferenceFolder(ctx context.Context, folder store.ReferenceFolder) (store.ReferenceFolder, error) {
	if f.insertReferenceFolderFn != nil {
		return f.insertReferenceFolderFn(ctx, folder)
	}
	return folder, nil
}

func (f *fakeStore) UpdateReferenceFolder(ctx context.Context, folderID string, update store.ReferenceFolderUpdate) (store.ReferenceFolder, error) {
	if f.updateReferenceFolderFn != nil {
		return f.updateReferenceFolderFn(ctx, folderID, update)
	}
	return store.ReferenceFolder{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteReferenceFolder(ctx context.Context, folderID string) error {
	if f.deleteReferenceFolderFn != nil {
		return f.deleteReferenceFolderFn(ctx, folderID)
	}
	return sql.ErrNoRows
}

func (f *fakeStore) ListArticles(ctx context.Context, publishedOnly bool) ([]store.Article, error) {
	if f.listArticlesFn != nil {
		return f.listArticlesFn(ctx, publishedOnly)
	}
	return []store.Article{}, nil
}

func (f *fakeStore) GetArticle(ctx context.Context, articleID string) (store.Article, error) {
	if f.getArticleFn != nil {
		return f.getArticleFn(ctx, articleID)
	}
	return store.Article{}, sql.ErrNoRows
}

func (f *fakeStore) InsertArticle(ctx context.Context, article store.Article) (store.Article, error) {
	if f.insertArticleFn != nil {
		return f.insertArticleFn(ctx, article)
	}
	return article, nil
}

func (f *fakeStore) UpdateArticle(ctx context.Context, articleID string, update store.ArticleUpdate) (store.Article, error) {
	if f.updateArticleFn != nil {
		return f.updateArticleFn(ctx, articleID, update)
	}
	return store.Article{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteArticle(ctx context.Context, articleID string) error {
	if f.deleteArticleFn != nil {
		return f.deleteArticleFn(ctx, articleID)
	}
	return sql.ErrNoRows
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

type fakeSheets struct {
	fetchVideosFn func(ctx context.Context, sheetID string) ([]sheet.Video, error)
}

func (f *fakeSheets) FetchVideos(ctx context.Context, sheetID string) ([]sheet.Video, error) {
	if f.fetchVideosFn != nil {
		return f.fetchVideosFn(ctx, sheetID)
	}
	return nil, errors.New("no sheet configured")
}

func testConfig() config.Config {
	return config.Config{
		AuthSecret:      "test-secret",
		CaptainPassword: "hoist-the-main",
		InviteCode:      "SAIL2026",
		CORSOrigin:      "*",
	}
}

func newTestService(dataStore dataStore, sheets sheetImporter) *Service {
	if sheets == nil {
		sheets = &fakeSheets{}
	}
	return NewService(testConfig(), dataStore, sheets, nil)
}

func captainActor() *policy.Actor {
	return &policy.Actor{Role: policy.RoleCaptain, UserName: "Captain"}
}

func contributorActor(userID, userName string) *policy.Actor {
	return &policy.Actor{Role: policy.RoleContributor, UserID: userID, UserName: userName}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func domainStatus(t *testing.T, err error) int {
	t.Helper()
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr.Status
}

func TestLoginCaptainSharedPassword(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)

	result, err := svc.Login(context.Background(), "", "hoist-the-main")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Role != "captain" || result.Token == "" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, err := svc.Login(context.Background(), "", "wrong"); domainStatus(t, err) != 401 {
		t.Fatal("wrong captain password should be 401")
	}
}

func TestLoginUserLowercasesUsername(t *testing.T) {
	hash := hashPassword(t, "secret")
	var looked string
	svc := newTestService(&fakeStore{
		getUserByUsernameFn: func(ctx context.Context, username string) (store.User, error) {
			looked = username
			return store.User{ID: "user-1", Username: "ada", DisplayName: "Ada", PasswordHash: hash, Role: "contributor"}, nil
		},
	}, nil)

	result, err := svc.Login(context.Background(), "  Ada ", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if looked != "ada" {
		t.Fatalf("username not lowercased: %q", looked)
	}
	if result.Role != "contributor" || result.UserName != "Ada" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, err := svc.Login(context.Background(), "ada", "not-the-password"); domainStatus(t, err) != 401 {
		t.Fatal("wrong password should be 401")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)
	if _, err := svc.Login(context.Background(), "ghost", "whatever"); domainStatus(t, err) != 401 {
		t.Fatal("unknown user should be 401")
	}
}

func TestRegisterInviteCode(t *testing.T) {
	var created store.User
	svc := newTestService(&fakeStore{
		createUserFn: func(ctx context.Context, user store.User) (store.User, error) {
			created = user
			return user, nil
		},
	}, nil)

	input := RegisterInput{InviteCode: "WRONG", Username: "Ada", DisplayName: "Ada", Password: "pw"}
	if _, err := svc.Register(context.Background(), input); domainStatus(t, err) != 403 {
		t.Fatal("bad invite code should be 403")
	}

	input.InviteCode = "SAIL2026"
	user, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Username != "ada" || user.Role != "contributor" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if created.ID == "" || created.PasswordHash == "" || created.PasswordHash == "pw" {
		t.Fatalf("user not hashed or missing id: %+v", created)
	}
	if bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("pw")) != nil {
		t.Fatal("stored hash does not verify the password")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService(&fakeStore{
		getUserByUsernameFn: func(ctx context.Context, username string) (store.User, error) {
			return store.User{ID: "user-1", Username: username}, nil
		},
	}, nil)

	input := RegisterInput{InviteCode: "SAIL2026", Username: "ada", DisplayName: "Ada", Password: "pw"}
	if _, err := svc.Register(context.Background(), input); domainStatus(t, err) != 409 {
		t.Fatal("duplicate username should be 409")
	}
}

func TestCreateSessionRequiresCaptain(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)

	if _, err := svc.CreateSession(context.Background(), nil, "Tuesday", nil); !errors.Is(err, policy.ErrUnauthenticated) {
		t.Fatalf("anonymous create should be unauthenticated, got %v", err)
	}
	if _, err := svc.CreateSession(context.Background(), contributorActor("user-1", "Ada"), "Tuesday", nil); !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("contributor create should be forbidden, got %v", err)
	}

	session, err := svc.CreateSession(context.Background(), captainActor(), "Tuesday", nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if !session.IsActive || session.Label != "Tuesday" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestAppendVideoNoteMigratesLegacy(t *testing.T) {
	ts := 7
	var saved []store.SessionVideo
	svc := newTestService(&fakeStore{
		getSessionFn: func(ctx context.Context, sessionID string) (store.Session, error) {
			return store.Session{ID: sessionID, Videos: []store.SessionVideo{
				{ID: "v1", Name: "Start", Note: "legacy", NoteTimestamp: &ts},
			}}, nil
		},
		updateSessionVideosFn: func(ctx context.Context, sessionID string, videos []store.SessionVideo) (store.Session, error) {
			saved = videos
			return store.Session{ID: sessionID, Videos: videos}, nil
		},
	}, nil)

	newTS := 30
	_, err := svc.AppendVideoNote(context.Background(), captainActor(), "s1", "v1", store.VideoNote{Text: "trim in", Timestamp: &newTS})
	if err != nil {
		t.Fatalf("AppendVideoNote: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected one video, got %+v", saved)
	}
	video := saved[0]
	if video.Note != "" || video.NoteTimestamp != nil {
		t.Fatalf("legacy fields not cleared: %+v", video)
	}
	if len(video.Notes) != 2 || video.Notes[0].Text != "legacy" || video.Notes[1].Text != "trim in" {
		t.Fatalf("unexpected notes: %+v", video.Notes)
	}
}

func TestAppendVideoNoteUnknownVideo(t *testing.T) {
	svc := newTestService(&fakeStore{
		getSessionFn: func(ctx context.Context, sessionID string) (store.Session, error) {
			return store.Session{ID: sessionID}, nil
		},
	}, nil)

	_, err := svc.AppendVideoNote(context.Background(), captainActor(), "s1", "missing", store.VideoNote{Text: "x"})
	if domainStatus(t, err) != 404 {
		t.Fatal("unknown embedded video should be 404")
	}
}

func TestGetArticleDraftHiddenFromAnonymous(t *testing.T) {
	svc := newTestService(&fakeStore{
		getArticleFn: func(ctx context.Context, articleID string) (store.Article, error) {
			return store.Article{ID: articleID, Title: "Draft", IsPublished: false}, nil
		},
	}, nil)

	if _, err := svc.GetArticle(context.Background(), nil, "a1"); domainStatus(t, err) != 404 {
		t.Fatal("anonymous draft read should be 404")
	}

	article, err := svc.GetArticle(context.Background(), contributorActor("user-1", "Ada"), "a1")
	if err != nil {
		t.Fatalf("authenticated draft read: %v", err)
	}
	if article.Title != "Draft" {
		t.Fatalf("unexpected article: %+v", article)
	}
}

func TestUpdateArticleOwnership(t *testing.T) {
	author := "user-1"
	svc := newTestService(&fakeStore{
		getArticleFn: func(ctx context.Context, articleID string) (store.Article, error) {
			return store.Article{ID: articleID, AuthorID: &author}, nil
		},
		updateArticleFn: func(ctx context.Context, articleID string, update store.ArticleUpdate) (store.Article, error) {
			return store.Article{ID: articleID, AuthorID: &author, Title: *update.Title}, nil
		},
	}, nil)

	title := "Updated"
	update := store.ArticleUpdate{Title: &title}

	if _, err := svc.UpdateArticle(context.Background(), nil, "a1", update); !errors.Is(err, policy.ErrUnauthenticated) {
		t.Fatalf("anonymous update should be unauthenticated, got %v", err)
	}
	if _, err := svc.UpdateArticle(context.Background(), contributorActor("user-2", "Eve"), "a1", update); !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("non-author update should be forbidden, got %v", err)
	}
	if _, err := svc.UpdateArticle(context.Background(), contributorActor("user-1", "Ada"), "a1", update); err != nil {
		t.Fatalf("author update: %v", err)
	}
	if _, err := svc.UpdateArticle(context.Background(), captainActor(), "a1", update); err != nil {
		t.Fatalf("captain update: %v", err)
	}
}

func TestUpdateArticleMissingIs404BeforeOwnership(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)
	title := "x"
	_, err := svc.UpdateArticle(context.Background(), contributorActor("user-2", "Eve"), "missing", store.ArticleUpdate{Title: &title})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("missing article should surface not-found, got %v", err)
	}
}

func TestArticleWritesStripResolvedBlocks(t *testing.T) {
	author := "user-1"
	resolved := &store.ReferenceVideo{ID: "ref-1", Title: "Gybe drill"}
	var inserted store.Article
	var updated store.ArticleUpdate
	svc := newTestService(&fakeStore{
		insertArticleFn: func(ctx context.Context, article store.Article) (store.Article, error) {
			inserted = article
			return article, nil
		},
		getArticleFn: func(ctx context.Context, articleID string) (store.Article, error) {
			return store.Article{ID: articleID, AuthorID: &author}, nil
		},
		updateArticleFn: func(ctx context.Context, articleID string, update store.ArticleUpdate) (store.Article, error) {
			updated = update
			return store.Article{ID: articleID, AuthorID: &author}, nil
		},
	}, nil)

	// A client editing a fetched article echoes the read-time resolution join
	// back; the stored blocks must not carry it.
	blocks := []store.ArticleBlock{
		{Type: store.BlockVideo, ReferenceVideoID: "ref-1", Resolved: resolved},
	}
	if _, err := svc.CreateArticle(context.Background(), contributorActor("user-1", "Ada"), "Starts", blocks, nil); err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}
	if len(inserted.Blocks) != 1 || inserted.Blocks[0].Resolved != nil {
		t.Fatalf("inserted blocks carry resolution join: %+v", inserted.Blocks)
	}

	echoed := []store.ArticleBlock{
		{Type: store.BlockVideo, ReferenceVideoID: "ref-1", Resolved: resolved},
	}
	if _, err := svc.UpdateArticle(context.Background(), contributorActor("user-1", "Ada"), "a1", store.ArticleUpdate{Blocks: &echoed}); err != nil {
		t.Fatalf("UpdateArticle: %v", err)
	}
	if updated.Blocks == nil || len(*updated.Blocks) != 1 || (*updated.Blocks)[0].Resolved != nil {
		t.Fatalf("updated blocks carry resolution join: %+v", updated.Blocks)
	}
}

func TestResolveLegacyArticleBlocks(t *testing.T) {
	svc := newTestService(&fakeStore{
		getArticleFn: func(ctx context.Context, articleID string) (store.Article, error) {
			return store.Article{ID: articleID, IsPublished: true, Blocks: []store.ArticleBlock{
				{Type: store.BlockText, Content: "intro"},
				{Type: store.BlockVideo, ReferenceVideoID: "ref-1"},
				{Type: store.BlockVideo, VideoType: store.VideoTypeYouTube, VideoRef: "yt-1"},
				{Type: store.BlockVideo, ReferenceVideoID: "ref-missing"},
			}}, nil
		},
		getReferenceVideoFn: func(ctx context.Context, videoID string) (store.ReferenceVideo, error) {
			if videoID == "ref-1" {
				return store.ReferenceVideo{ID: "ref-1", Title: "Gybe drill", Type: store.VideoTypeDrive, VideoRef: "drive-1"}, nil
			}
			return store.ReferenceVideo{}, sql.ErrNoRows
		},
	}, nil)

	article, err := svc.GetArticle(context.Background(), nil, "a1")
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if article.Blocks[1].Resolved == nil || article.Blocks[1].Resolved.Title != "Gybe drill" {
		t.Fatalf("legacy block not resolved: %+v", article.Blocks[1])
	}
	if article.Blocks[2].Resolved != nil {
		t.Fatalf("self-contained block should not be resolved: %+v", article.Blocks[2])
	}
	if article.Blocks[3].Resolved != nil {
		t.Fatalf("missing reference should stay unresolved: %+v", article.Blocks[3])
	}
}

func TestListCommentsCaptainOnlyGate(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)
	filter := store.CommentFilter{CaptainOnly: true}

	if _, err := svc.ListComments(context.Background(), nil, filter); domainStatus(t, err) != 401 {
		t.Fatal("anonymous captainOnly should be 401")
	}
	if _, err := svc.ListComments(context.Background(), contributorActor("user-1", "Ada"), filter); domainStatus(t, err) != 401 {
		t.Fatal("contributor captainOnly should be 401")
	}
	if _, err := svc.ListComments(context.Background(), captainActor(), filter); err != nil {
		t.Fatalf("captain captainOnly: %v", err)
	}
}

func TestImportSheet(t *testing.T) {
	sheets := &fakeSheets{
		fetchVideosFn: func(ctx context.Context, sheetID string) ([]sheet.Video, error) {
			if sheetID != "1AbC23" {
				t.Errorf("unexpected sheet id %q", sheetID)
			}
			return []sheet.Video{{Name: "Tack Drill", ID: "drive-1"}}, nil
		},
	}
	svc := newTestService(&fakeStore{}, sheets)

	if _, err := svc.ImportSheet(context.Background(), contributorActor("user-1", "Ada"), "https://docs.google.com/spreadsheets/d/1AbC23/edit"); !errors.Is(err, policy.ErrForbidden) {
		t.Fatalf("contributor import should be forbidden, got %v", err)
	}

	videos, err := svc.ImportSheet(context.Background(), captainActor(), "https://docs.google.com/spreadsheets/d/1AbC23/edit")
	if err != nil {
		t.Fatalf("ImportSheet: %v", err)
	}
	if len(videos) != 1 || videos[0].Name != "Tack Drill" {
		t.Fatalf("unexpected videos: %+v", videos)
	}

	if _, err := svc.ImportSheet(context.Background(), captainActor(), "https://example.com/nope"); domainStatus(t, err) != 400 {
		t.Fatal("bad url should be 400")
	}
}

func TestImportSheetEmpty(t *testing.T) {
	sheets := &fakeSheets{
		fetchVideosFn: func(ctx context.Context, sheetID string) ([]sheet.Video, error) {
			return []sheet.Video{}, nil
		},
	}
	svc := newTestService(&fakeStore{}, sheets)
	if _, err := svc.ImportSheet(context.Background(), captainActor(), "https://docs.google.com/spreadsheets/d/abc/edit"); domainStatus(t, err) != 400 {
		t.Fatal("empty sheet should be 400")
	}
}
