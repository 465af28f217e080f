package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/showcasekit/showcase-extractor/constants"
	"github.com/showcasekit/showcase-extractor/internal/common"
	"github.com/showcasekit/showcase-extractor/internal/export"
	"github.com/showcasekit/showcase-extractor/internal/ingest"
	"github.com/showcasekit/showcase-extractor/internal/pipeline"
	"github.com/showcasekit/showcase-extractor/internal/queue"
)

type statusResponse struct {
	Items        []queue.Item `json:"items"`
	Progress     int          `json:"progress"`
	Busy         bool         `json:"busy"`
	HasCompleted bool         `json:"hasCompleted"`
}

type batchResponse struct {
	Items []queue.Item `json:"items"`
	Busy  bool         `json:"busy"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleCreateBatch accepts a multipart upload (field "files", repeated) and
// starts a background batch run. A second submission while the pipeline is
// busy gets 409.
func (a *API) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(a.cfg.Server.MaxUploadBytes); err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Sprintf("parse multipart form: %v", err))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		a.writeError(w, http.StatusBadRequest, "no files uploaded (use form field \"files\")")
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fileFromUpload(fh)
		if err != nil {
			a.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		files = append(files, f)
	}

	items, err := a.proc.Start(r.Context(), files)
	if err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			a.writeError(w, http.StatusConflict, "a batch is already being processed")
			return
		}
		a.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.writeJSON(w, http.StatusAccepted, batchResponse{Items: items, Busy: a.proc.Busy()})
}

// fileFromUpload reads one multipart part into memory; the upload stream is
// gone once the request ends, so bytes are captured here rather than lazily.
func fileFromUpload(fh *multipart.FileHeader) (ingest.File, error) {
	name := filepath.Base(fh.Filename)
	mimeType := constants.MIMEForExt(filepath.Ext(name))
	if mimeType == "" {
		return ingest.File{}, fmt.Errorf("unsupported file type: %s", name)
	}

	src, err := fh.Open()
	if err != nil {
		return ingest.File{}, fmt.Errorf("open upload %s: %w", name, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return ingest.File{}, fmt.Errorf("read upload %s: %w", name, err)
	}
	return ingest.FromBytes(name, mimeType, data), nil
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	items := a.queue.Items()
	if items == nil {
		items = []queue.Item{}
	}
	a.writeJSON(w, http.StatusOK, statusResponse{
		Items:        items,
		Progress:     a.queue.Progress(),
		Busy:         a.proc.Busy(),
		HasCompleted: a.queue.HasCompleted(),
	})
}

func (a *API) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	if !a.queue.RemoveByID(id) {
		a.writeError(w, http.StatusNotFound, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleReportDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := a.export.ReportDoc()
	if err != nil {
		a.writeExportError(w, err)
		return
	}
	fileName := a.cfg.Report.FileName
	if fileName == "" {
		fileName = export.ReportFileName
	}
	writeAttachment(w, export.ReportContentType, fileName, doc)
}

func (a *API) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	wb, err := a.export.SummaryXLSX()
	if err != nil {
		a.writeExportError(w, err)
		return
	}
	const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	writeAttachment(w, xlsxContentType, export.SummaryFileName, wb)
}

func (a *API) writeExportError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrNoCompletedItems) {
		a.writeError(w, http.StatusNotFound, "no completed items to export")
		return
	}
	a.writeError(w, http.StatusInternalServerError, err.Error())
}

func writeAttachment(w http.ResponseWriter, contentType, fileName string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	// filename* carries the non-ASCII artifact name per RFC 5987
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="report%s"; filename*=UTF-8''%s`,
			filepath.Ext(fileName), url.PathEscape(fileName)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Warn("http.response.encode_error", "error", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, errorResponse{Error: msg})
}
