package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"doc-embeddings/internal/app"
	"doc-embeddings/internal/embeddable"
	"doc-embeddings/internal/embeddings"
	"doc-embeddings/internal/extract"
	"doc-embeddings/internal/httputil"
	"doc-embeddings/internal/nonempty"
	"doc-embeddings/internal/pipeline"
	"doc-embeddings/internal/queue"
	"doc-embeddings/internal/store"
)

type createRequest struct {
	Title   string          `json:"title" validate:"max=200"`
	Content json.RawMessage `json:"content" validate:"required"`
	Chunk   bool            `json:"chunk"`
}

type searchRequest struct {
	Query       string   `json:"query" validate:"required,min=3,max=500"`
	TopK        int      `json:"top_k" validate:"omitempty,min=1,max=50"`
	DocumentIDs []string `json:"document_ids" validate:"omitempty,dive,uuid"`
}

type fragmentView struct {
	Position int    `json:"position"`
	Text     string `json:"text"`
}

type searchHit struct {
	DocumentID string  `json:"document_id"`
	Position   int     `json:"position"`
	Score      float32 `json:"score"`
	Preview    string  `json:"preview"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := newRouter(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)
	r.Post("/api/documents", createHandler(deps))
	r.Post("/api/documents/upload", uploadHandler(deps))
	r.Get("/api/documents/{id}", documentHandler(deps))
	r.Post("/api/search", searchHandler(deps))
	return r
}

func createHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, deps.Config.MaxBodySize)

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		submit(deps, w, r, store.Document{Title: req.Title, Content: req.Content, Chunked: req.Chunk})
	}
}

// uploadHandler accepts a TXT or PDF file and stores its text as a chunked document.
func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize)

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		contentType, err := extract.DetectType(header.Filename, header.Header.Get("Content-Type"))
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}
		raw, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := extract.Text(contentType, raw)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to extract text", err, http.StatusBadRequest)
			return
		}

		content, err := json.Marshal(text)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to encode text", err, http.StatusInternalServerError)
			return
		}
		submit(deps, w, r, store.Document{Title: header.Filename, Content: content, Chunked: true})
	}
}

// submit validates that doc yields fragments, stores it and enqueues embedding.
func submit(deps app.Deps, w http.ResponseWriter, r *http.Request, doc store.Document) {
	ctx := r.Context()

	// Reject content that cannot yield fragments before anything is stored.
	fragments, err := pipeline.Fragments(doc)
	if err != nil {
		httputil.Fail(deps.Log, w, contentErrorMessage(err), err, http.StatusBadRequest)
		return
	}

	doc, err = deps.Store.CreateDocument(ctx, doc)
	if err != nil {
		httputil.Fail(deps.Log, w, "failed to persist document", err, http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(pipeline.TaskPayload{DocumentID: doc.ID})
	if err != nil {
		failAndMark(deps, w, r, "marshal payload failed", err, doc.ID)
		return
	}
	task := queue.Task{Type: queue.TaskTypeEmbed, Payload: body}
	if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
		failAndMark(deps, w, r, "failed to enqueue document; please retry", err, doc.ID)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
		"document_id": doc.ID.String(),
		"status":      doc.Status,
		"fragments":   len(fragments),
	})
}

func documentHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid document id", err, http.StatusBadRequest)
			return
		}

		doc, err := deps.Store.GetDocument(ctx, id)
		if errors.Is(err, store.ErrDocumentNotFound) {
			httputil.Fail(deps.Log, w, "document not found", err, http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load document", err, http.StatusInternalServerError)
			return
		}

		fragments, err := deps.Store.ListFragments(ctx, id)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load fragments", err, http.StatusInternalServerError)
			return
		}
		views := make([]fragmentView, len(fragments))
		for i, f := range fragments {
			views[i] = fragmentView{Position: f.Position, Text: f.Text}
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"document_id": doc.ID.String(),
			"title":       doc.Title,
			"status":      doc.Status,
			"created_at":  doc.CreatedAt,
			"fragments":   views,
		})
	}
}

func searchHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		r.Body = http.MaxBytesReader(w, r.Body, deps.Config.MaxBodySize)

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		if req.TopK == 0 {
			req.TopK = 5
		}

		query, err := embeddings.EmbedDocument(ctx, deps.Embedder, "query", embeddable.String(req.Query))
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to embed query", err, http.StatusInternalServerError)
			return
		}

		results, err := deps.Store.Search(ctx, query.Embeddings.First().Vector, parseDocumentIDs(req.DocumentIDs), req.TopK)
		if err != nil {
			httputil.Fail(deps.Log, w, "search failed", err, http.StatusInternalServerError)
			return
		}

		hits := make([]searchHit, len(results))
		for i, res := range results {
			hits[i] = searchHit{
				DocumentID: res.Fragment.DocumentID.String(),
				Position:   res.Fragment.Position,
				Score:      res.Score,
				Preview:    truncate(res.Fragment.Text, 150),
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": hits})
	}
}

func contentErrorMessage(err error) string {
	switch {
	case errors.Is(err, nonempty.ErrEmptyInput):
		return "content produced no fragments"
	case errors.Is(err, embeddable.ErrSerialization):
		return "content could not be serialized"
	case errors.Is(err, pipeline.ErrChunkedNotText):
		return "chunked content must be a string"
	default:
		return "invalid content"
	}
}

// failAndMark answers 500 and marks the stored document failed so it is not left pending.
func failAndMark(deps app.Deps, w http.ResponseWriter, r *http.Request, message string, err error, docID uuid.UUID) {
	if statusErr := deps.Store.UpdateDocumentStatus(r.Context(), docID, store.StatusFailed); statusErr != nil {
		deps.Log.Error("failed to mark document failed", "document_id", docID, "err", statusErr)
	}
	httputil.Fail(deps.Log, w, message, err, http.StatusInternalServerError)
}

// parseDocumentIDs converts validated string UUIDs to uuid.UUID values.
func parseDocumentIDs(ids []string) []uuid.UUID {
	var result []uuid.UUID
	for _, s := range ids {
		if id, err := uuid.Parse(s); err == nil {
			result = append(result, id)
		}
	}
	return result
}

// truncate limits text to maxLen bytes, cutting at a word boundary when
// possible and never inside a multibyte rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if idx := strings.LastIndex(s[:cut], " "); idx > 0 {
		return s[:idx] + "..."
	}
	return s[:cut] + "..."
}
