package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doc-embeddings/internal/app"
	"doc-embeddings/internal/config"
	"doc-embeddings/internal/embeddings"
	"doc-embeddings/internal/pipeline"
	"doc-embeddings/internal/queue"
	"doc-embeddings/internal/store"
)

func newTestDeps(st store.Store, q queue.Queue, e embeddings.Embedder) app.Deps {
	return app.Deps{
		Store:    st,
		Queue:    q,
		Embedder: e,
		Config: config.Config{
			MaxBodySize:    1 << 20,
			MaxUploadSize:  1 << 20,
			EmbeddingModel: "test-model",
		},
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestCreateHandler(t *testing.T) {
	docID := uuid.New()

	tests := []struct {
		name          string
		body          string
		setup         func(*store.MockStore, *queue.MockQueue)
		wantStatus    int
		checkResponse func(*testing.T, map[string]any)
	}{
		{
			name: "structured content is accepted",
			body: `{"title":"greeting","content":{"a":1}}`,
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("CreateDocument", mock.Anything, mock.MatchedBy(func(d store.Document) bool {
					return d.Title == "greeting" && string(d.Content) == `{"a":1}` && !d.Chunked
				})).Return(store.Document{ID: docID, Status: store.StatusPending}, nil).Once()
				q.On("Enqueue", mock.Anything, mock.MatchedBy(func(task queue.Task) bool {
					var payload pipeline.TaskPayload
					if err := json.Unmarshal(task.Payload, &payload); err != nil {
						return false
					}
					return task.Type == queue.TaskTypeEmbed && payload.DocumentID == docID
				})).Return(nil).Once()
			},
			wantStatus: http.StatusAccepted,
			checkResponse: func(t *testing.T, body map[string]any) {
				if body["document_id"] != docID.String() {
					t.Errorf("expected document_id %s, got %v", docID, body["document_id"])
				}
				if body["fragments"] != float64(1) {
					t.Errorf("expected 1 fragment, got %v", body["fragments"])
				}
			},
		},
		{
			name: "array content counts every fragment",
			body: `{"content":["a1","a2","b1"]}`,
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("CreateDocument", mock.Anything, mock.Anything).
					Return(store.Document{ID: docID, Status: store.StatusPending}, nil).Once()
				q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantStatus: http.StatusAccepted,
			checkResponse: func(t *testing.T, body map[string]any) {
				if body["fragments"] != float64(3) {
					t.Errorf("expected 3 fragments, got %v", body["fragments"])
				}
			},
		},
		{
			name:       "missing content fails validation",
			body:       `{"title":"nothing"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty array produces no fragments",
			body:       `{"content":[]}`,
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, body map[string]any) {
				if body["error"] != "content produced no fragments" {
					t.Errorf("unexpected error %v", body["error"])
				}
			},
		},
		{
			name:       "chunked content must be text",
			body:       `{"content":{"a":1},"chunk":true}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"content":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "store failure",
			body: `{"content":"hello"}`,
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("CreateDocument", mock.Anything, mock.Anything).
					Return(store.Document{}, errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "enqueue failure marks document failed",
			body: `{"content":"hello"}`,
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("CreateDocument", mock.Anything, mock.Anything).
					Return(store.Document{ID: docID, Status: store.StatusPending}, nil).Once()
				q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("nats down"))
				s.On("UpdateDocumentStatus", mock.Anything, docID, store.StatusFailed).Return(nil).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(store.MockStore)
			mockQueue := new(queue.MockQueue)
			if tt.setup != nil {
				tt.setup(mockStore, mockQueue)
			}

			r := newRouter(newTestDeps(mockStore, mockQueue, new(embeddings.MockEmbedder)))
			req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.checkResponse != nil {
				var body map[string]any
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				tt.checkResponse(t, body)
			}

			mockStore.AssertExpectations(t)
			mockQueue.AssertExpectations(t)
		})
	}
}

func TestUploadHandler(t *testing.T) {
	docID := uuid.New()

	tests := []struct {
		name        string
		filename    string
		contentType string
		content     []byte
		setup       func(*store.MockStore, *queue.MockQueue)
		wantStatus  int
	}{
		{
			name:     "text file becomes a chunked document",
			filename: "notes.txt",
			content:  []byte("alpha beta gamma"),
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("CreateDocument", mock.Anything, mock.MatchedBy(func(d store.Document) bool {
					return d.Title == "notes.txt" && d.Chunked && string(d.Content) == `"alpha beta gamma"`
				})).Return(store.Document{ID: docID, Status: store.StatusPending}, nil).Once()
				q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "unsupported type",
			filename:   "image.png",
			content:    []byte{0x89, 0x50},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "broken pdf",
			filename:    "paper.pdf",
			contentType: "application/pdf",
			content:     []byte("not a pdf"),
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:       "blank text has no fragments",
			filename:   "blank.txt",
			content:    []byte("   \n  "),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(store.MockStore)
			mockQueue := new(queue.MockQueue)
			if tt.setup != nil {
				tt.setup(mockStore, mockQueue)
			}

			req, err := createMultipartRequest(tt.filename, tt.contentType, tt.content)
			if err != nil {
				t.Fatalf("Failed to create request: %v", err)
			}
			w := httptest.NewRecorder()
			newRouter(newTestDeps(mockStore, mockQueue, new(embeddings.MockEmbedder))).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			mockStore.AssertExpectations(t)
			mockQueue.AssertExpectations(t)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", nil)
		req.Header.Set("Content-Type", "multipart/form-data")
		w := httptest.NewRecorder()
		newRouter(newTestDeps(new(store.MockStore), new(queue.MockQueue), new(embeddings.MockEmbedder))).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func createMultipartRequest(filename, contentType string, content []byte) (*http.Request, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func TestDocumentHandler(t *testing.T) {
	docID := uuid.New()

	tests := []struct {
		name       string
		docID      string
		setup      func(*store.MockStore)
		wantStatus int
		wantTexts  []string
	}{
		{
			name:  "fragments are listed in order",
			docID: docID.String(),
			setup: func(s *store.MockStore) {
				s.On("GetDocument", mock.Anything, docID).
					Return(store.Document{ID: docID, Status: store.StatusReady, CreatedAt: time.Now()}, nil).Once()
				s.On("ListFragments", mock.Anything, docID).Return([]store.Fragment{
					{DocumentID: docID, Position: 0, Text: "a1"},
					{DocumentID: docID, Position: 1, Text: "a2"},
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantTexts:  []string{"a1", "a2"},
		},
		{
			name:       "invalid UUID",
			docID:      "not-a-uuid",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "unknown document",
			docID: docID.String(),
			setup: func(s *store.MockStore) {
				s.On("GetDocument", mock.Anything, docID).Return(store.Document{}, store.ErrDocumentNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:  "store error",
			docID: docID.String(),
			setup: func(s *store.MockStore) {
				s.On("GetDocument", mock.Anything, docID).Return(store.Document{}, errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(store.MockStore)
			if tt.setup != nil {
				tt.setup(mockStore)
			}

			r := newRouter(newTestDeps(mockStore, new(queue.MockQueue), new(embeddings.MockEmbedder)))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents/"+tt.docID, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantTexts != nil {
				var body struct {
					Fragments []fragmentView `json:"fragments"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				for i, want := range tt.wantTexts {
					if body.Fragments[i].Text != want || body.Fragments[i].Position != i {
						t.Errorf("fragment %d: got %+v, want %q", i, body.Fragments[i], want)
					}
				}
			}
			mockStore.AssertExpectations(t)
		})
	}
}

func TestSearchHandler(t *testing.T) {
	docID := uuid.New()

	tests := []struct {
		name       string
		body       string
		setup      func(*store.MockStore, *embeddings.MockEmbedder)
		wantStatus int
	}{
		{
			name: "query is embedded and searched",
			body: `{"query":"what is a greeting","document_ids":["` + docID.String() + `"]}`,
			setup: func(s *store.MockStore, e *embeddings.MockEmbedder) {
				e.On("EmbedBatch", mock.Anything, []string{"what is a greeting"}).
					Return([]embeddings.Vector{{0.1, 0.2}}, nil).Once()
				s.On("Search", mock.Anything, embeddings.Vector{0.1, 0.2}, []uuid.UUID{docID}, 5).
					Return([]store.SearchResult{{
						Fragment: store.Fragment{DocumentID: docID, Position: 2, Text: "hello"},
						Score:    0.9,
					}}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "short query fails validation",
			body:       `{"query":"hi"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad document id fails validation",
			body:       `{"query":"hello there","document_ids":["nope"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "embedder failure",
			body: `{"query":"hello there","top_k":3}`,
			setup: func(s *store.MockStore, e *embeddings.MockEmbedder) {
				e.On("EmbedBatch", mock.Anything, mock.Anything).Return(nil, errors.New("provider down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(store.MockStore)
			mockEmbedder := new(embeddings.MockEmbedder)
			if tt.setup != nil {
				tt.setup(mockStore, mockEmbedder)
			}

			r := newRouter(newTestDeps(mockStore, new(queue.MockQueue), mockEmbedder))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewBufferString(tt.body)))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			mockStore.AssertExpectations(t)
			mockEmbedder.AssertExpectations(t)
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"hello wonderful world", 12, "hello..."},
		{"abcdefghij", 5, "abcde..."},
		{"héllo", 2, "h..."},
		{"日本語テキスト", 7, "日本..."},
		{"ab €uro", 5, "ab..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8 %q", tt.in, tt.max, got)
		}
	}
}
