package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"tackboard/api/internal/auth"
	"tackboard/api/internal/policy"
	"tackboard/api/internal/store"
	"tackboard/api/internal/timecode"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	secure     bool
}

func NewHTTPServer(service *Service, corsOrigin string, secure bool) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin, secure: secure}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.service.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/login" {
		s.handleLogin(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/register" {
		s.handleRegister(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout" {
		auth.ClearSessionCookie(w, s.secure)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/auth/me" {
		actor := s.service.ActorFromRequest(r)
		if actor == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"role": actor.Role, "userName": actor.UserName})
		return
	}

	if r.URL.Path == "/api/sessions" {
		switch r.Method {
		case http.MethodGet:
			s.handleListSessions(w, r)
		case http.MethodPost:
			s.handleCreateSession(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/sessions/active" {
		session, err := s.service.ActiveSession(r.Context())
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		if session == nil {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, session)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/sessions/browse" {
		sessions, err := s.service.BrowseSessions(r.Context())
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, sessions)
		return
	}

	if r.URL.Path == "/api/comments" {
		switch r.Method {
		case http.MethodGet:
			s.handleListComments(w, r)
		case http.MethodPost:
			s.handleCreateComment(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if r.URL.Path == "/api/reference-videos" {
		switch r.Method {
		case http.MethodGet:
			s.respond(w, r, func() (any, error) { return s.service.ListReferenceVideos(r.Context()) })
		case http.MethodPost:
			s.handleCreateReferenceVideo(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if r.URL.Path == "/api/reference-folders" {
		switch r.Method {
		case http.MethodGet:
			s.respond(w, r, func() (any, error) { return s.service.ListReferenceFolders(r.Context()) })
		case http.MethodPost:
			s.handleCreateReferenceFolder(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if r.URL.Path == "/api/articles" {
		switch r.Method {
		case http.MethodGet:
			s.handleListArticles(w, r)
		case http.MethodPost:
			s.handleCreateArticle(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/import-sheet" {
		s.handleImportSheet(w, r)
		return
	}

	parts := splitPath(r.URL.Path)

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "sessions" && r.Method == http.MethodPatch {
		s.handlePatchSession(w, r, parts[2])
		return
	}

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "sessions" && parts[3] == "video-note" && r.Method == http.MethodPatch {
		s.handlePatchVideoNote(w, r, parts[2])
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "reference-videos" {
		s.handleReferenceVideo(w, r, parts[2])
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "reference-folders" {
		s.handleReferenceFolder(w, r, parts[2])
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "articles" {
		s.handleArticle(w, r, parts[2])
		return
	}

	writeError(w, http.StatusNotFound, "Not found")
}

// respond runs a read-only service call and writes its payload or error.
func (s *HTTPServer) respond(w http.ResponseWriter, r *http.Request, call func() (any, error)) {
	payload, err := call()
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// ── Auth ──

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	auth.SetSessionCookie(w, result.Token, s.secure)
	writeJSON(w, http.StatusOK, map[string]any{"role": result.Role, "userName": result.UserName})
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InviteCode  string `json:"inviteCode"`
		Username    string `json:"username"`
		DisplayName string `json:"displayName"`
		Password    string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.service.Register(r.Context(), RegisterInput{
		InviteCode:  body.InviteCode,
		Username:    body.Username,
		DisplayName: body.DisplayName,
		Password:    body.Password,
	})
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          user.ID,
		"username":    user.Username,
		"displayName": user.DisplayName,
		"role":        user.Role,
	})
}

// ── Sessions ──

func (s *HTTPServer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	actor := s.service.ActorFromRequest(r)
	sessions, err := s.service.ListSessions(r.Context(), actor)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *HTTPServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	actor := s.service.ActorFromRequest(r)
	var body struct {
		Label  string               `json:"label"`
		Videos []store.SessionVideo `json:"videos"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.service.CreateSession(r.Context(), actor, body.Label, body.Videos)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *HTTPServer) handlePatchSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	actor := s.service.ActorFromRequest(r)
	var body map[string]json.RawMessage
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if raw, ok := body["videos"]; ok {
		var videos []store.SessionVideo
		if err := json.Unmarshal(raw, &videos); err != nil {
			writeError(w, http.StatusBadRequest, "videos must be an array")
			return
		}
		session, err := s.service.ReplaceSessionVideos(r.Context(), actor, sessionID, videos)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, session)
		return
	}

	if rawID, ok := body["videoId"]; ok {
		var videoID, note string
		if err := json.Unmarshal(rawID, &videoID); err != nil || videoID == "" {
			writeError(w, http.StatusBadRequest, "videoId must be a string")
			return
		}
		rawNote, ok := body["note"]
		if !ok {
			writeError(w, http.StatusBadRequest, "videoId and note are required")
			return
		}
		if err := json.Unmarshal(rawNote, &note); err != nil {
			writeError(w, http.StatusBadRequest, "note must be a string")
			return
		}
		session, err := s.service.PatchSessionVideoNote(r.Context(), actor, sessionID, videoID, note)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, session)
		return
	}

	writeError(w, http.StatusBadRequest, "videos or videoId is required")
}

func (s *HTTPServer) handlePatchVideoNote(w http.ResponseWriter, r *http.Request, sessionID string) {
	actor := s.service.ActorFromRequest(r)
	var body struct {
		VideoID       string             `json:"videoId"`
		Notes         *[]store.VideoNote `json:"notes"`
		Note          string             `json:"note"`
		NoteTimestamp json.RawMessage    `json:"noteTimestamp"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.VideoID == "" {
		writeError(w, http.StatusBadRequest, "videoId is required")
		return
	}

	var session store.Session
	var err error
	if body.Notes != nil {
		session, err = s.service.ReplaceVideoNotes(r.Context(), actor, sessionID, body.VideoID, *body.Notes)
	} else {
		timestamp, tsErr := parseFlexibleSeconds(body.NoteTimestamp)
		if tsErr != nil {
			writeError(w, http.StatusBadRequest, tsErr.Error())
			return
		}
		session, err = s.service.AppendVideoNote(r.Context(), actor, sessionID, body.VideoID, store.VideoNote{
			Text:      body.Note,
			Timestamp: timestamp,
		})
	}
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ── Comments ──

func (s *HTTPServer) handleListComments(w http.ResponseWriter, r *http.Request) {
	actor := s.service.ActorFromRequest(r)
	filter := store.CommentFilter{
		VideoID:     strings.TrimSpace(r.URL.Query().Get("videoId")),
		SessionID:   strings.TrimSpace(r.URL.Query().Get("sessionId")),
		CaptainOnly: r.URL.Query().Get("captainOnly") == "true",
	}
	comments, err := s.service.ListComments(r.Context(), actor, filter)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *HTTPServer) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID        *string         `json:"sessionId"`
		VideoID          string          `json:"videoId"`
		VideoTitle       string          `json:"videoTitle"`
		AuthorName       string          `json:"authorName"`
		TimestampSeconds json.RawMessage `json:"timestampSeconds"`
		CommentText      string          `json:"commentText"`
		SendToCaptain    bool            `json:"sendToCaptain"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	timestamp, err := parseFlexibleSeconds(body.TimestampSeconds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	comment, err := s.service.CreateComment(r.Context(), CreateCommentInput{
		SessionID:        body.SessionID,
		VideoID:          body.VideoID,
		VideoTitle:       body.VideoTitle,
		AuthorName:       body.AuthorName,
		TimestampSeconds: timestamp,
		CommentText:      body.CommentText,
		SendToCaptain:    body.SendToCaptain,
	})
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// ── Reference videos ──

func (s *HTTPServer) handleCreateReferenceVideo(w http.ResponseWriter, r *http.Request) {
	actor := s.service.ActorFromRequest(r)
	var body struct {
		Title         string            `json:"title"`
		Type          string            `json:"type"`
		VideoRef      string            `json:"videoRef"`
		Note          string            `json:"note"`
		NoteTimestamp json.RawMessage   `json:"noteTimestamp"`
		Notes         []store.VideoNote `json:"notes"`
		FolderID      *string           `json:"folderId"`
		SortOrder     int               `json:"sortOrder"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	timestamp, err := parseFlexibleSeconds(body.NoteTimestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	video, err := s.service.CreateReferenceVideo(r.Context(), actor, store.ReferenceVideo{
		Title:         body.Title,
		Type:          body.Type,
		VideoRef:      body.VideoRef,
		Note:          body.Note,
		NoteTimestamp: timestamp,
		Notes:         body.Notes,
		FolderID:      body.FolderID,
		SortOrder:     body.SortOrder,
	})
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusCreated, video)
}

func (s *HTTPServer) handleReferenceVideo(w http.ResponseWriter, r *http.Request, videoID string) {
	actor := s.service.ActorFromRequest(r)

	if r.Method == http.MethodPatch {
		var body map[string]json.RawMessage
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		update, err := referenceVideoUpdateFromBody(body)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		video, err := s.service.UpdateReferenceVideo(r.Context(), actor, videoID, update)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, video)
		return
	}

	if r.Method == http.MethodDelete {
		if err := s.service.DeleteReferenceVideo(r.Context(), actor, videoID); err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func referenceVideoUpdateFromBody(body map[string]json.RawMessage) (store.ReferenceVideoUpdate, error) {
	var update store.ReferenceVideoUpdate
	if raw, ok := body["title"]; ok {
		var title string
		if err := json.Unmarshal(raw, &title); err != nil || strings.TrimSpace(title) == "" {
			return update, errValidation("title must be a non-empty string")
		}
		update.Title = &title
	}
	if raw, ok := body["type"]; ok {
		var videoType string
		if err := json.Unmarshal(raw, &videoType); err != nil {
			return update, errValidation("type must be a string")
		}
		update.Type = &videoType
	}
	if raw, ok := body["videoRef"]; ok {
		var videoRef string
		if err := json.Unmarshal(raw, &videoRef); err != nil || videoRef == "" {
			return update, errValidation("videoRef must be a non-empty string")
		}
		update.VideoRef = &videoRef
	}
	if raw, ok := body["note"]; ok {
		update.NoteSet = true
		if !isJSONNull(raw) {
			var note string
			if err := json.Unmarshal(raw, &note); err != nil {
				return update, errValidation("note must be a string or null")
			}
			update.Note = &note
		}
	}
	if raw, ok := body["noteTimestamp"]; ok {
		update.NoteTimestampSet = true
		timestamp, err := parseFlexibleSeconds(raw)
		if err != nil {
			return update, err
		}
		update.NoteTimestamp = timestamp
	}
	if raw, ok := body["notes"]; ok {
		var notes []store.VideoNote
		if err := json.Unmarshal(raw, &notes); err != nil {
			return update, errValidation("notes must be an array")
		}
		update.Notes = &notes
	}
	if raw, ok := body["folderId"]; ok {
		update.FolderIDSet = true
		if !isJSONNull(raw) {
			var folderID string
			if err := json.Unmarshal(raw, &folderID); err != nil {
				return update, errValidation("folderId must be a string or null")
			}
			update.FolderID = &folderID
		}
	}
	if raw, ok := body["sortOrder"]; ok {
		var sortOrder int
		if err := json.Unmarshal(raw, &sortOrder); err != nil {
			return update, errValidation("sortOrder must be an integer")
		}
		update.SortOrder = &sortOrder
	}
	if update == (store.ReferenceVideoUpdate{}) {
		return update, errValidation("no fields to update")
	}
	return update, nil
}

// ── Reference folders ──

func (s *HTTPServer) handleCreateReferenceFolder(w http.ResponseWriter, r *http.Request) {
	actor := s.service.ActorFromRequest(r)
	var body struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		ParentID    *string `json:"parentId"`
		SortOrder   int     `json:"sortOrder"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	folder, err := s.service.CreateReferenceFolder(r.Context(), actor, store.ReferenceFolder{
		Name:        body.Name,
		Description: body.Description,
		ParentID:    body.ParentID,
		SortOrder:   body.SortOrder,
	})
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

func (s *HTTPServer) handleReferenceFolder(w http.ResponseWriter, r *http.Request, folderID string) {
	actor := s.service.ActorFromRequest(r)

	if r.Method == http.MethodPatch {
		var body map[string]json.RawMessage
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		update, err := referenceFolderUpdateFromBody(body)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		folder, err := s.service.UpdateReferenceFolder(r.Context(), actor, folderID, update)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, folder)
		return
	}

	if r.Method == http.MethodDelete {
		if err := s.service.DeleteReferenceFolder(r.Context(), actor, folderID); err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func referenceFolderUpdateFromBody(body map[string]json.RawMessage) (store.ReferenceFolderUpdate, error) {
	var update store.ReferenceFolderUpdate
	if raw, ok := body["name"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil || strings.TrimSpace(name) == "" {
			return update, errValidation("name must be a non-empty string")
		}
		update.Name = &name
	}
	if raw, ok := body["description"]; ok {
		update.DescriptionSet = true
		if !isJSONNull(raw) {
			var description string
			if err := json.Unmarshal(raw, &description); err != nil {
				return update, errValidation("description must be a string or null")
			}
			update.Description = &description
		}
	}
	if raw, ok := body["parentId"]; ok {
		update.ParentIDSet = true
		if !isJSONNull(raw) {
			var parentID string
			if err := json.Unmarshal(raw, &parentID); err != nil {
				return update, errValidation("parentId must be a string or null")
			}
			update.ParentID = &parentID
		}
	}
	if raw, ok := body["sortOrder"]; ok {
		var sortOrder int
		if err := json.Unmarshal(raw, &sortOrder); err != nil {
			return update, errValidation("sortOrder must be an integer")
		}
		update.SortOrder = &sortOrder
	}
	if update == (store.ReferenceFolderUpdate{}) {
		return update, errValidation("no fields to update")
	}
	return update, nil
}

// ── Articles ──

func (s *HTTPServer) handleListArticles(w http.ResponseWriter, r *http.Request) {
	actor := s.service.ActorFromRequest(r)
	wantDrafts := r.URL.Query().Get("drafts") == "true"
	articles, err := s.service.ListArticles(r.Context(), actor, wantDrafts)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *HTTPServer) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	actor := s.service.ActorFromRequest(r)
	var body struct {
		Title    string               `json:"title"`
		Blocks   []store.ArticleBlock `json:"blocks"`
		FolderID *string              `json:"folderId"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	article, err := s.service.CreateArticle(r.Context(), actor, body.Title, body.Blocks, body.FolderID)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

func (s *HTTPServer) handleArticle(w http.ResponseWriter, r *http.Request, articleID string) {
	actor := s.service.ActorFromRequest(r)

	if r.Method == http.MethodGet {
		article, err := s.service.GetArticle(r.Context(), actor, articleID)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, article)
		return
	}

	if r.Method == http.MethodPatch {
		var body map[string]json.RawMessage
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		update, err := articleUpdateFromBody(body)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		article, err := s.service.UpdateArticle(r.Context(), actor, articleID, update)
		if err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, article)
		return
	}

	if r.Method == http.MethodDelete {
		if err := s.service.DeleteArticle(r.Context(), actor, articleID); err != nil {
			status, message := mapError(err)
			writeError(w, status, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func articleUpdateFromBody(body map[string]json.RawMessage) (store.ArticleUpdate, error) {
	var update store.ArticleUpdate
	if raw, ok := body["title"]; ok {
		var title string
		if err := json.Unmarshal(raw, &title); err != nil || strings.TrimSpace(title) == "" {
			return update, errValidation("title must be a non-empty string")
		}
		update.Title = &title
	}
	if raw, ok := body["blocks"]; ok {
		var blocks []store.ArticleBlock
		if err := json.Unmarshal(raw, &blocks); err != nil {
			return update, errValidation("blocks must be an array")
		}
		update.Blocks = &blocks
	}
	if raw, ok := body["isPublished"]; ok {
		var isPublished bool
		if err := json.Unmarshal(raw, &isPublished); err != nil {
			return update, errValidation("isPublished must be a boolean")
		}
		update.IsPublished = &isPublished
	}
	if raw, ok := body["folderId"]; ok {
		update.FolderIDSet = true
		if !isJSONNull(raw) {
			var folderID string
			if err := json.Unmarshal(raw, &folderID); err != nil {
				return update, errValidation("folderId must be a string or null")
			}
			update.FolderID = &folderID
		}
	}
	if update == (store.ArticleUpdate{}) {
		return update, errValidation("no fields to update")
	}
	return update, nil
}

// ── Sheet import ──

func (s *HTTPServer) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	actor := s.service.ActorFromRequest(r)
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	videos, err := s.service.ImportSheet(r.Context(), actor, body.URL)
	if err != nil {
		status, message := mapError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

// ── Plumbing ──

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
	header.Set("Access-Control-Allow-Credentials", "true")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseFlexibleSeconds accepts a JSON number of seconds or a timecode string
// such as "1:23". Null and absent both mean no timestamp.
func parseFlexibleSeconds(raw json.RawMessage) (*int, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var seconds int
	if err := json.Unmarshal(raw, &seconds); err == nil {
		if seconds < 0 {
			return nil, errValidation("timestamp must not be negative")
		}
		return &seconds, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, ok := timecode.Parse(text); ok {
			return &parsed, nil
		}
		return nil, errValidation("invalid timestamp format")
	}
	return nil, errValidation("timestamp must be a number or a timecode string")
}

// mapError translates service errors to an HTTP status and the message the
// response body carries. Unclassified errors surface their text on a 500.
func mapError(err error) (int, string) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Message
	}
	if errors.Is(err, policy.ErrUnauthenticated) {
		return http.StatusUnauthorized, "Authentication required"
	}
	if errors.Is(err, policy.ErrForbidden) {
		return http.StatusForbidden, "Forbidden"
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "Not found"
	}
	if errors.Is(err, auth.ErrInvalidToken) {
		return http.StatusUnauthorized, "Authentication required"
	}
	return http.StatusInternalServerError, err.Error()
}
