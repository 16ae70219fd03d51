package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
	"github.com/sjawhar/transcript-viewer/internal/session"
	"github.com/sjawhar/transcript-viewer/internal/storage"
)

const defaultExportTitle = "Meeting Transcript"

var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ArchiveStore reads completed sessions back out of the archive.
type ArchiveStore interface {
	ListSessions() ([]storage.Session, error)
	GetSession(id string) (storage.Session, error)
	GetTranscript(id string) (meeting.Transcript, error)
}

type api struct {
	intents session.Intents
	archive ArchiveStore
}

type startRequest struct {
	Target string `json:"target"`
}

type tagRequest struct {
	Type string `json:"type"`
}

type linkRequest struct {
	AnswerIDs []string `json:"answer_ids"`
}

func (a *api) RegisterRoutes(r chi.Router) {
	r.Get("/state", a.handleState)
	r.Post("/start", a.handleStart)
	r.Post("/end", a.handleEnd)
	r.Post("/reset", a.handleReset)

	r.Route("/utterances/{id}", func(r chi.Router) {
		r.Post("/tags", a.handleAddTag)
		r.Delete("/tags/{type}", a.handleRemoveTag)
		r.Post("/links", a.handleLink)
	})

	r.Get("/transcript.md", a.handleMarkdown)

	r.Get("/archive", a.handleArchiveList)
	r.Get("/archive/{id}", a.handleArchiveDetail)
}

func (a *api) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.intents.Snapshot())
}

func (a *api) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.intents.Start(req.Target)
	writeJSON(w, http.StatusOK, a.intents.Snapshot())
}

func (a *api) handleEnd(w http.ResponseWriter, r *http.Request) {
	a.intents.End()
	writeJSON(w, http.StatusOK, a.intents.Snapshot())
}

func (a *api) handleReset(w http.ResponseWriter, r *http.Request) {
	a.intents.Reset()
	writeJSON(w, http.StatusOK, a.intents.Snapshot())
}

func (a *api) handleAddTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	tagType, err := meeting.ParseTagType(req.Type)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.intents.AddTag(chi.URLParam(r, "id"), tagType)
	writeJSON(w, http.StatusOK, a.intents.Snapshot())
}

func (a *api) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	tagType, err := meeting.ParseTagType(chi.URLParam(r, "type"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.intents.RemoveTag(chi.URLParam(r, "id"), tagType)
	writeJSON(w, http.StatusOK, a.intents.Snapshot())
}

func (a *api) handleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.intents.LinkQA(chi.URLParam(r, "id"), req.AnswerIDs)
	writeJSON(w, http.StatusOK, a.intents.Snapshot())
}

func (a *api) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	snap := a.intents.Snapshot()
	title := strings.TrimSpace(snap.MeetingTarget)
	if title == "" {
		title = defaultExportTitle
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(snap.Transcript.FormatMarkdown(title)))
}

func (a *api) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		writeJSONError(w, http.StatusNotFound, "archive disabled")
		return
	}
	sessions, err := a.archive.ListSessions()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []storage.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (a *api) handleArchiveDetail(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		writeJSONError(w, http.StatusNotFound, "archive disabled")
		return
	}
	sessionID := chi.URLParam(r, "id")
	if !validSessionID(sessionID) {
		writeJSONError(w, http.StatusForbidden, "invalid session id")
		return
	}

	sessionData, err := a.archive.GetSession(sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSONError(w, status, fmt.Sprintf("get session: %v", err))
		return
	}

	transcript, err := a.archive.GetTranscript(sessionID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get transcript: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session":    sessionData,
		"transcript": transcript,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func validSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Debug("server: write response failed", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
