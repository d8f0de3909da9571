package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/parisxmas/checkindesk/internal/models"
	"github.com/parisxmas/checkindesk/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ViewerHandler serves the stored submissions as an HTML table and as a
// JSON API.
type ViewerHandler struct {
	svc *service.ViewerService
}

func NewViewerHandler(svc *service.ViewerService) *ViewerHandler {
	return &ViewerHandler{svc: svc}
}

type listPage struct {
	Query         string
	Rows          []models.Submission
	Flash         *flash
	NoData        string
	ConfirmDelete string
	ConfirmClear  string
}

func (h *ViewerHandler) renderList(w http.ResponseWriter, r *http.Request, status int, f *flash) {
	q := r.URL.Query().Get("q")
	render(w, status, "submissions.html", listPage{
		Query:         q,
		Rows:          h.svc.List(r.Context(), q),
		Flash:         f,
		NoData:        service.MsgNoData,
		ConfirmDelete: service.MsgConfirmDelete,
		ConfirmClear:  service.MsgConfirmClear,
	})
}

// Page renders the table, latest first, filtered by ?q=.
func (h *ViewerHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, nil)
}

func (h *ViewerHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), submissionID(r))
	switch {
	case err == nil:
		http.Redirect(w, r, "/submissions", http.StatusSeeOther)
	case errors.Is(err, service.ErrNotFound):
		h.renderList(w, r, http.StatusNotFound, &flash{Type: FlashDanger, Message: err.Error()})
	default:
		h.renderList(w, r, http.StatusInternalServerError, &flash{Type: FlashDanger, Message: service.MsgSaveFailed})
	}
}

func (h *ViewerHandler) ClearForm(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearAll(r.Context()); err != nil {
		h.renderList(w, r, http.StatusInternalServerError, &flash{Type: FlashDanger, Message: service.MsgSaveFailed})
		return
	}
	http.Redirect(w, r, "/submissions", http.StatusSeeOther)
}

func (h *ViewerHandler) ImportForm(w http.ResponseWriter, r *http.Request) {
	body, err := uploadedFile(w, r)
	if err != nil {
		h.renderList(w, r, http.StatusBadRequest, &flash{Type: FlashDanger, Message: service.MsgImportFailed + err.Error()})
		return
	}
	defer body.Close()

	if _, err := h.svc.Import(r.Context(), body); err != nil {
		h.renderList(w, r, importStatus(err), &flash{Type: FlashDanger, Message: service.MsgImportFailed + err.Error()})
		return
	}
	h.renderList(w, r, http.StatusOK, &flash{Type: FlashSuccess, Message: service.MsgImportOK})
}

// Export downloads the whole collection as pretty-printed JSON.
func (h *ViewerHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, "json", "application/json", h.svc.Export)
}

// ExportXLSX downloads the whole collection as a spreadsheet.
func (h *ViewerHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, "xlsx", xlsxContentType, h.svc.ExportXLSX)
}

func (h *ViewerHandler) download(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := write(r.Context(), &buf); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": h.svc.ExportFilename(ext),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// List is the JSON view of Page.
func (h *ViewerHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.List(r.Context(), r.URL.Query().Get("q")))
}

func (h *ViewerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), submissionID(r))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, service.MsgSaveFailed)
	}
}

func (h *ViewerHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, service.MsgSaveFailed)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import accepts either a multipart upload in "file" or the raw JSON body.
func (h *ViewerHandler) Import(w http.ResponseWriter, r *http.Request) {
	var body io.ReadCloser = http.MaxBytesReader(w, r.Body, maxBody)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		f, err := uploadedFile(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, service.MsgImportFailed+err.Error())
			return
		}
		body = f
	}
	defer body.Close()

	n, err := h.svc.Import(r.Context(), body)
	if err != nil {
		writeError(w, importStatus(err), service.MsgImportFailed+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": service.MsgImportOK, "imported": n})
}

func uploadedFile(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(maxBody); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("no file selected")
	}
	return f, nil
}

func importStatus(err error) int {
	if errors.Is(err, service.ErrInvalidImport) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// submissionID returns the decoded {id} segment. chi matches on RawPath
// when the request has one, leaving escapes such as %2F in the param.
func submissionID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id
	}
	if s, err := url.PathUnescape(id); err == nil {
		return s
	}
	return id
}
