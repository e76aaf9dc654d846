package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/report"
	"github.com/klytics/sheetsight/internal/service"
)

type uploadView struct {
	FileID      string           `json:"fileId"`
	Filename    string           `json:"filename"`
	RowCount    int              `json:"rowCount"`
	ColumnCount int              `json:"columnCount"`
	Headers     []string         `json:"headers"`
	Preview     []dataset.Record `json:"preview"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond(w, r, http.StatusRequestEntityTooLarge, envelope{Message: fmt.Sprintf("File exceeds the %d MB limit", s.maxUpload>>20)})
			return
		}
		respond(w, r, http.StatusBadRequest, envelope{Message: "Please upload a file"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond(w, r, http.StatusBadRequest, envelope{Message: "Please upload a file"})
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		respond(w, r, http.StatusRequestEntityTooLarge, envelope{Message: fmt.Sprintf("File exceeds the %d MB limit", s.maxUpload>>20)})
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, err, "", "Error uploading file")
		return
	}

	rows, sheet, err := service.Parse(header.Filename, data)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFormat) {
			s.fail(w, r, err, "", "Error uploading file")
			return
		}
		respond(w, r, http.StatusBadRequest, envelope{Message: "Could not parse file: " + err.Error()})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = service.MimeType(header.Filename)
	}
	res, err := s.svc.Upload(r.Context(), userID(r), service.UploadInput{
		Name:      header.Filename,
		Size:      int64(len(data)),
		MimeType:  contentType,
		SheetName: sheet,
		Rows:      rows,
	})
	if err != nil {
		s.fail(w, r, err, "", "Error uploading file")
		return
	}

	ok(w, r, http.StatusCreated, "File uploaded and parsed successfully", uploadView{
		FileID:      res.Dataset.ID,
		Filename:    res.Dataset.OriginalName,
		RowCount:    res.Dataset.RowCount,
		ColumnCount: res.Dataset.ColumnCount,
		Headers:     res.Dataset.Headers,
		Preview:     res.Preview,
		CreatedAt:   res.Dataset.CreatedAt,
	})
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.svc.Datasets(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "", "Error fetching files")
		return
	}
	list(w, r, files)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dataset(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "File not found", "Error fetching file")
		return
	}
	ok(w, r, http.StatusOK, "", d)
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteDataset(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "File not found", "Error deleting file")
		return
	}
	ok(w, r, http.StatusOK, "File deleted successfully", nil)
}

func (s *Server) fileSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Stats(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "File not found", "Error summarizing file")
		return
	}
	ok(w, r, http.StatusOK, "", sum)
}

func (s *Server) fileReport(w http.ResponseWriter, r *http.Request) {
	in, err := s.svc.Report(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "File not found", "Error building report")
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, in); err != nil {
		s.fail(w, r, err, "", "Error building report")
		return
	}
	w.Header().Set("Content-Type", service.MimeType(".xlsx"))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": service.ReportName(in.Table.Name)}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

type recentView struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	CreatedAt    time.Time `json:"createdAt"`
}

type usageView struct {
	TotalFiles int         `json:"totalFiles"`
	RecentFile *recentView `json:"recentFile"`
	TotalSize  int64       `json:"totalSize"`
}

func (s *Server) fileStats(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Usage(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "", "Error fetching statistics")
		return
	}
	view := usageView{TotalFiles: u.TotalFiles, TotalSize: u.TotalSize}
	if u.Recent != nil {
		view.RecentFile = &recentView{ID: u.Recent.ID, OriginalName: u.Recent.OriginalName, CreatedAt: u.Recent.CreatedAt}
	}
	ok(w, r, http.StatusOK, "", view)
}
