package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/datachat-labs/datachat/internal/core"
	"github.com/datachat-labs/datachat/internal/files"
	"github.com/datachat-labs/datachat/internal/store"
)

// APIHandler serves the HTTP surface. The application runs with a single
// default user whose id is resolved once at startup.
type APIHandler struct {
	chatService *core.ChatService
	userID      int64
	log         *zap.SugaredLogger
}

func NewAPIHandler(cs *core.ChatService, userID int64, log *zap.SugaredLogger) *APIHandler {
	return &APIHandler{chatService: cs, userID: userID, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError emits the uniform failure shape: a JSON body with an "error"
// field and a non-2xx status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *APIHandler) serviceError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, files.ErrUnsupportedFileType):
		writeError(w, http.StatusBadRequest, "unsupported file type")
	case errors.Is(err, files.ErrFileTooLarge):
		writeError(w, http.StatusBadRequest, "file exceeds the 200MB limit")
	case errors.Is(err, core.ErrFileNotFound):
		writeError(w, http.StatusNotFound, "file not found")
	case errors.Is(err, core.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, store.ErrVersionConflict):
		writeError(w, http.StatusConflict, "conversation was modified concurrently")
	default:
		h.log.Errorw(context, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// File handlers

// UploadResult is the per-file outcome of a multipart upload. One bad file
// does not fail the batch.
type UploadResult struct {
	Filename string            `json:"filename"`
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
	File     *store.FileRecord `json:"file,omitempty"`
}

func (h *APIHandler) UploadFilesHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, files.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request: "+err.Error())
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	results := make([]UploadResult, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		results = append(results, h.uploadOne(fh.Filename, func() (io.ReadCloser, error) { return fh.Open() }))
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *APIHandler) uploadOne(filename string, open func() (io.ReadCloser, error)) UploadResult {
	// Validate the extension before reading anything.
	if _, err := files.TypeTag(filename); err != nil {
		return UploadResult{Filename: filename, Error: "unsupported file type"}
	}

	f, err := open()
	if err != nil {
		return UploadResult{Filename: filename, Error: "failed to open upload"}
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, files.MaxUploadSize+1))
	if err != nil {
		return UploadResult{Filename: filename, Error: "failed to read upload"}
	}
	if int64(len(content)) > files.MaxUploadSize {
		return UploadResult{Filename: filename, Error: "file exceeds the 200MB limit"}
	}

	rec, err := h.chatService.UploadFile(h.userID, filename, content)
	if err != nil {
		h.log.Errorw("file upload failed", "filename", filename, "error", err)
		return UploadResult{Filename: filename, Error: "failed to store file"}
	}
	return UploadResult{Filename: filename, Success: true, File: rec}
}

func (h *APIHandler) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.chatService.ListFiles(h.userID)
	if err != nil {
		h.serviceError(w, err, "failed to list files")
		return
	}
	if records == nil {
		records = []store.FileRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *APIHandler) GetFileHandler(w http.ResponseWriter, r *http.Request) {
	fileID, err := idParam(r, "fileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	rec, err := h.chatService.GetFile(fileID, h.userID)
	if err != nil {
		h.serviceError(w, err, "failed to get file")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// FilePreviewResponse exposes the processing preview for a stored file.
type FilePreviewResponse struct {
	Kind      string         `json:"kind"`
	Summary   string         `json:"summary"`
	Preview   string         `json:"preview"`
	Columns   []string       `json:"columns,omitempty"`
	Structure map[string]any `json:"structure"`
}

func (h *APIHandler) FilePreviewHandler(w http.ResponseWriter, r *http.Request) {
	fileID, err := idParam(r, "fileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	pf, err := h.chatService.ProcessFile(fileID, h.userID)
	if err != nil {
		h.serviceError(w, err, "failed to process file")
		return
	}
	writeJSON(w, http.StatusOK, FilePreviewResponse{
		Kind:      string(pf.Kind),
		Summary:   pf.Summary(),
		Preview:   pf.PreviewText,
		Columns:   pf.Columns,
		Structure: pf.Structure,
	})
}

func (h *APIHandler) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	fileID, err := idParam(r, "fileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	if err := h.chatService.DeleteFile(fileID, h.userID); err != nil {
		h.serviceError(w, err, "failed to delete file")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Conversation handlers

type CreateConversationRequest struct {
	FileID *int64 `json:"file_id,omitempty"`
	Title  string `json:"title,omitempty"`
}

func (h *APIHandler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	conv, err := h.chatService.CreateConversation(h.userID, req.FileID, req.Title)
	if err != nil {
		h.serviceError(w, err, "failed to create conversation")
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.chatService.ListConversations(h.userID)
	if err != nil {
		h.serviceError(w, err, "failed to list conversations")
		return
	}
	if conversations == nil {
		conversations = []store.Conversation{}
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID, err := idParam(r, "conversationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	conv, err := h.chatService.GetConversation(conversationID, h.userID)
	if err != nil {
		h.serviceError(w, err, "failed to get conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *APIHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID, err := idParam(r, "conversationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	if err := h.chatService.DeleteConversation(conversationID, h.userID); err != nil {
		h.serviceError(w, err, "failed to delete conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Chat turn

type PostMessageRequest struct {
	Message string `json:"message"`
	FileID  *int64 `json:"file_id,omitempty"`
}

type PostMessageResponse struct {
	Message         store.ConversationMessage `json:"message"`
	ConfidenceScore float64                   `json:"confidenceScore"`
	SourceTags      []string                  `json:"sourceTags"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	conversationID, err := idParam(r, "conversationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	msg, resp, err := h.chatService.PostMessage(r.Context(), conversationID, h.userID, req.Message, req.FileID)
	if err != nil {
		h.serviceError(w, err, "failed to post message")
		return
	}
	writeJSON(w, http.StatusOK, PostMessageResponse{
		Message:         *msg,
		ConfidenceScore: resp.ConfidenceScore,
		SourceTags:      resp.SourceTags,
	})
}
