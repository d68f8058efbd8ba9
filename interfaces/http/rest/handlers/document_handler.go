package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"docgraph/application/services"
	"docgraph/pkg/common"
	pkgerrors "docgraph/pkg/errors"
	"docgraph/pkg/utils"
)

// uploads are buffered in memory before hitting the blob store
const maxUploadBytes = 32 << 20

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	svc    *services.DocumentService
	logger *zap.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(svc *services.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{svc: svc, logger: logger}
}

// createDocumentForm mirrors the multipart form fields of a create request
type createDocumentForm struct {
	Title       string `validate:"required,min=1,max=500"`
	Authors     string `validate:"omitempty,max=1000"`
	Location    string `validate:"omitempty,max=200"`
	Date        string `validate:"omitempty,max=50"`
	Tags        string `validate:"omitempty,max=2000"`
	Description string `validate:"omitempty,max=10000"`
}

// List handles GET /documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)

	docs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.respondAppError(w, r, err)
		return
	}
	common.RespondJSONWithMeta(w, http.StatusOK, docs, &common.MetaInfo{
		RequestID: chimiddleware.GetReqID(r.Context()),
		Timestamp: utils.NowRFC3339(),
		Count:     len(docs),
	})
}

// Get handles GET /documents/{documentID}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")

	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondAppError(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, doc)
}

// Create handles POST /documents. The request is a multipart form
// carrying the metadata fields plus the document file itself.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_FORM", "expected a multipart form: "+err.Error())
		return
	}

	form := createDocumentForm{
		Title:       r.FormValue("title"),
		Authors:     r.FormValue("author"),
		Location:    r.FormValue("location"),
		Date:        r.FormValue("date"),
		Tags:        r.FormValue("tags"),
		Description: r.FormValue("description"),
	}
	if err := utils.ValidateStruct(form); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	file, err := readUpload(r)
	if err != nil {
		h.respondAppError(w, r, err)
		return
	}

	doc, err := h.svc.Create(r.Context(), services.CreateDocumentInput{
		Title:       form.Title,
		Authors:     form.Authors,
		Location:    form.Location,
		Date:        form.Date,
		Tags:        form.Tags,
		Description: form.Description,
		File:        file,
	})
	if err != nil {
		h.respondAppError(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, doc)
}

// Update handles PUT /documents/{documentID}. Only the form fields that
// are present get applied; an attached file replaces the stored one.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_FORM", "expected a multipart form: "+err.Error())
		return
	}

	input := services.UpdateDocumentInput{
		Title:       formValue(r, "title"),
		Authors:     formValue(r, "author"),
		Location:    formValue(r, "location"),
		Date:        formValue(r, "date"),
		Tags:        formValue(r, "tags"),
		Description: formValue(r, "description"),
	}

	if hasUpload(r) {
		file, err := readUpload(r)
		if err != nil {
			h.respondAppError(w, r, err)
			return
		}
		input.File = file
	}

	doc, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		h.respondAppError(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, doc)
}

// Delete handles DELETE /documents/{documentID}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.respondAppError(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (h *DocumentHandler) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := pkgerrors.AsAppError(err)
	if appErr.HTTPStatus >= 500 {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	common.RespondErrorWithDetails(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message, appErr.Details)
}

// parseListFilter reads the tags and q query parameters
func parseListFilter(r *http.Request) services.ListFilter {
	filter := services.ListFilter{Query: r.URL.Query().Get("q")}

	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}
	return filter
}

// formValue distinguishes an absent form field from an empty one: absent
// fields keep the stored value, empty ones clear it
func formValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func hasUpload(r *http.Request) bool {
	return r.MultipartForm != nil && len(r.MultipartForm.File["file"]) > 0
}

// readUpload pulls the uploaded file out of the multipart form
func readUpload(r *http.Request) (*services.FileUpload, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, pkgerrors.NewValidationError("a document file is required").WithCause(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to read uploaded file").WithCause(err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &services.FileUpload{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
