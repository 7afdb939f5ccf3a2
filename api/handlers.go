package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"image_to_pdf/internal/config"
	"image_to_pdf/internal/converter"
	"image_to_pdf/internal/pdfinfo"
)

// APIErrorResponse is the JSON body of every non-2xx response.
type APIErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// RejectedFile describes an upload refused at validation.
type RejectedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// EstimateRequest is the body of POST /api/v1/estimate.
type EstimateRequest struct {
	Sizes   []int64 `json:"sizes"`
	Quality string  `json:"quality"`
}

// EstimateResponse adds display strings to a converter.SizeEstimate.
type EstimateResponse struct {
	converter.SizeEstimate
	OriginalSize  string `json:"original_size"`
	EstimatedSize string `json:"estimated_size"`
}

// Handler serves the conversion endpoints.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	assembler *converter.Assembler
}

// NewHandler returns a Handler using cfg for limits and defaults.
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	assembler := converter.NewAssembler()
	if cfg.Conversion.Creator != "" {
		assembler.Creator = cfg.Conversion.Creator
	}
	return &Handler{cfg: cfg, logger: logger, assembler: assembler}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, details interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	errResponse := APIErrorResponse{
		Error:   message,
		Details: details,
	}
	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		h.logger.Error("Failed to write JSON error response", "error", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to write JSON response", "error", err)
	}
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok", "service": "image_to_pdf"})
}

// HandleConvert accepts a multipart form with "images" files plus optional "quality",
// "title", "author", "creation_date" (RFC 3339) and "order" fields and responds with the PDF.
// "order" lists zero-based upload indices, e.g. "2,0,1"; listed images become the first
// pages in that order and unlisted ones follow in upload order.
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if r.Body != nil {
			io.Copy(io.Discard, r.Body) // Drain any remaining parts of the body
			r.Body.Close()
		}
	}()

	if err := r.ParseMultipartForm(h.cfg.Upload.MaxMemory); err != nil {
		h.logger.Warn("Failed to parse multipart form", "error", err)
		h.writeJSONError(w, "Failed to parse request data", err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	session := converter.NewSession(h.assembler, h.cfg.Upload.MaxFileSize)

	quality := h.cfg.Quality()
	if q := r.FormValue("quality"); q != "" {
		quality = converter.ParseQuality(q)
	}
	session.SetQuality(quality)

	meta, err := h.metadataFromForm(r)
	if err != nil {
		h.writeJSONError(w, "Invalid 'creation_date'", err.Error(), http.StatusBadRequest)
		return
	}
	session.SetMetadata(meta)

	uploadedFiles := r.MultipartForm.File["images"]
	if len(uploadedFiles) > h.cfg.Upload.MaxFiles {
		h.writeJSONError(w, "Too many images", fmt.Sprintf("at most %d images per request", h.cfg.Upload.MaxFiles), http.StatusBadRequest)
		return
	}

	var rejected []RejectedFile
	accepted := make(map[int]string, len(uploadedFiles)) // upload index -> image ID
	for i, fileHeader := range uploadedFiles {
		img, err := h.addUpload(session, fileHeader)
		if err != nil {
			var vErr *converter.ValidationError
			if errors.As(err, &vErr) {
				h.logger.Info("Rejected upload", "filename", vErr.Filename, "reason", vErr.Reason)
				rejected = append(rejected, RejectedFile{Filename: vErr.Filename, Reason: vErr.Reason})
				continue
			}
			h.logger.Error("Failed to read uploaded file", "filename", fileHeader.Filename, "error", err)
			h.writeJSONError(w, fmt.Sprintf("Failed to read uploaded file: %s", fileHeader.Filename), err.Error(), http.StatusInternalServerError)
			return
		}
		accepted[i] = img.ID
	}

	if session.Len() == 0 {
		var details interface{} = "Please upload at least one image"
		if len(rejected) > 0 {
			details = rejected
		}
		h.writeJSONError(w, "No images provided", details, http.StatusBadRequest)
		return
	}

	if order := r.FormValue("order"); order != "" {
		if err := applyOrder(session, order, accepted, len(uploadedFiles)); err != nil {
			h.writeJSONError(w, "Invalid 'order'", err.Error(), http.StatusBadRequest)
			return
		}
	}

	h.logger.Info("Starting PDF conversion", "images", session.Len(), "rejected", len(rejected), "quality", session.Quality())
	started := time.Now()
	result, err := session.Convert(func(percent int) {
		h.logger.Debug("Conversion progress", "percent", percent, "status", converter.StatusMessage(percent))
	})
	if err != nil {
		h.writeConversionError(w, err)
		return
	}

	filename := converter.OutputFilename(result.Metadata.Title)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.PDF)))
	w.Header().Set("X-Page-Count", strconv.Itoa(result.PageCount))
	w.Header().Set("X-Rejected-Files", strconv.Itoa(len(rejected)))

	h.logger.Info("Successfully generated PDF", "filename", filename, "size", len(result.PDF), "pages", result.PageCount, "duration", time.Since(started))
	if _, err := w.Write(result.PDF); err != nil {
		// Headers are already sent.
		h.logger.Error("Failed to write PDF to response", "error", err)
	}
}

func (h *Handler) metadataFromForm(r *http.Request) (converter.DocumentMetadata, error) {
	meta := converter.DocumentMetadata{
		Title:  r.FormValue("title"),
		Author: r.FormValue("author"),
	}
	if meta.Title == "" {
		meta.Title = h.cfg.Conversion.Title
	}
	if meta.Author == "" {
		meta.Author = h.cfg.Conversion.Author
	}
	if v := r.FormValue("creation_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return meta, err
		}
		meta.CreationDate = t
	}
	return meta, nil
}

// addUpload validates a multipart file before reading it fully, then adds it to session.
func (h *Handler) addUpload(session *converter.Session, fileHeader *multipart.FileHeader) (converter.SourceImage, error) {
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		// Fallback to extension if content type is generic or missing
		contentType = converter.ContentTypeFromFilename(fileHeader.Filename)
	}
	if _, err := converter.ValidateUpload(fileHeader.Filename, contentType, fileHeader.Size, h.cfg.Upload.MaxFileSize); err != nil {
		return converter.SourceImage{}, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return converter.SourceImage{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Upload.MaxFileSize+1))
	if err != nil {
		return converter.SourceImage{}, err
	}
	return session.Add(fileHeader.Filename, contentType, data)
}

// applyOrder moves the images named by upload index to the front, in the order listed.
// Indices of rejected uploads are skipped.
func applyOrder(session *converter.Session, order string, accepted map[int]string, uploads int) error {
	seen := make(map[int]bool)
	pos := 0
	for _, field := range strings.Split(order, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		idx, err := strconv.Atoi(field)
		if err != nil {
			return fmt.Errorf("%q is not an upload index", field)
		}
		if idx < 0 || idx >= uploads {
			return fmt.Errorf("upload index %d out of range (0-%d)", idx, uploads-1)
		}
		if seen[idx] {
			return fmt.Errorf("upload index %d listed twice", idx)
		}
		seen[idx] = true

		id, ok := accepted[idx]
		if !ok {
			continue
		}
		if err := session.Move(id, pos); err != nil {
			return err
		}
		pos++
	}
	return nil
}

func (h *Handler) writeConversionError(w http.ResponseWriter, err error) {
	var (
		usageErr  *converter.UsageError
		decodeErr *converter.DecodeError
		serErr    *converter.SerializationError
	)
	switch {
	case errors.As(err, &usageErr):
		h.logger.Warn("Conversion refused", "error", err)
		h.writeJSONError(w, "No images provided", err.Error(), http.StatusBadRequest)
	case errors.As(err, &decodeErr):
		h.logger.Warn("Image could not be decoded", "filename", decodeErr.Filename, "id", decodeErr.ImageID, "error", err)
		h.writeJSONError(w, "Image could not be decoded", map[string]string{
			"filename": decodeErr.Filename,
			"id":       decodeErr.ImageID,
			"error":    decodeErr.Cause.Error(),
		}, http.StatusUnprocessableEntity)
	case errors.As(err, &serErr):
		h.logger.Error("PDF serialization failed", "error", err)
		h.writeJSONError(w, "Failed to create PDF", err.Error(), http.StatusInternalServerError)
	case errors.Is(err, converter.ErrConversionInProgress):
		h.writeJSONError(w, "Conversion already in progress", err.Error(), http.StatusConflict)
	default:
		h.logger.Error("PDF conversion failed", "error", err)
		h.writeJSONError(w, "Failed to convert images to PDF", err.Error(), http.StatusInternalServerError)
	}
}

// HandleEstimate returns the advisory output size for a batch of original sizes.
func (h *Handler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	for _, s := range req.Sizes {
		if s < 0 {
			h.writeJSONError(w, "Invalid request body", "sizes must not be negative", http.StatusBadRequest)
			return
		}
	}
	quality := h.cfg.Quality()
	if strings.TrimSpace(req.Quality) != "" {
		quality = converter.ParseQuality(req.Quality)
	}
	est := converter.EstimateSizes(req.Sizes, quality)
	h.writeJSON(w, EstimateResponse{
		SizeEstimate:  est,
		OriginalSize:  converter.FormatSize(est.OriginalBytes),
		EstimatedSize: converter.FormatSize(est.EstimatedBytes),
	})
}

// HandleInspect reads a PDF from the request body and reports its pages.
func (h *Handler) HandleInspect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxPDFSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeJSONError(w, "PDF too large", fmt.Sprintf("max %s", converter.FormatSize(tooLarge.Limit)), http.StatusRequestEntityTooLarge)
			return
		}
		h.writeJSONError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}
	info, err := pdfinfo.Inspect(data)
	if err != nil {
		h.logger.Info("Rejected PDF for inspection", "size", len(data), "error", err)
		h.writeJSONError(w, "Not a readable PDF", err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.writeJSON(w, info)
}
