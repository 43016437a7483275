package server

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/nconklindev/freightmap/internal/converter"
	"github.com/nconklindev/freightmap/internal/mapping"
	"github.com/nconklindev/freightmap/internal/workbook"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type fieldView struct {
	Key      string
	Options  []string
	Selected string
}

// previewRows caps the processed rows rendered on the mapping page.
const previewRows = 50

type previewView struct {
	Columns []string
	Rows    [][]string
	Total   int
	Mapped  []string
}

func newPreview(out *converter.Output) *previewView {
	head := out.Table.Head(previewRows)
	return &previewView{
		Columns: head.Columns,
		Rows:    head.Strings(),
		Total:   len(out.Table.Rows),
		Mapped:  out.Result.ColumnsMapped,
	}
}

func (p *previewView) Truncated() bool {
	return p.Total > len(p.Rows)
}

type pageData struct {
	Error       string
	MaxUploadMB int64
	UploadID    string
	FileName    string
	Rows        int
	Columns     []string
	Fields      []fieldView
	Preview     *previewView
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "uploads": s.uploads.Len()})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{MaxUploadMB: s.maxUploadMB})
}

func (s *Server) handleUpload(c *gin.Context) {
	name, data, err := readUpload(c)
	if err != nil {
		s.renderIndexError(c, err)
		return
	}

	src, err := workbook.LoadSource(bytes.NewReader(data), int64(len(data)), name)
	if err != nil {
		s.renderIndexError(c, err)
		return
	}
	if _, err := s.processor.Schema(); err != nil {
		s.renderIndexError(c, err)
		return
	}

	id := s.uploads.Put(&upload{
		name:    name,
		data:    data,
		columns: src.Columns,
		rows:    len(src.Rows),
	})
	logEntry(c).WithFields(logrus.Fields{
		"upload_id": id,
		"file":      name,
		"rows":      len(src.Rows),
	}).Info("upload stored")

	s.renderMapping(c, http.StatusOK, id, "", nil)
}

// handleProcess converts a stored upload with the submitted selections and
// renders the mapping form again with a preview and a download link.
func (s *Server) handleProcess(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		s.renderIndexError(c, &badRequestError{err: errors.Wrap(err, "reading form")})
		return
	}

	id := c.PostForm("upload_id")
	u, ok := s.uploads.Get(id)
	if !ok {
		c.HTML(http.StatusNotFound, "index.html", pageData{
			Error:       "Upload not found or expired, please upload the file again.",
			MaxUploadMB: s.maxUploadMB,
		})
		return
	}

	selected := c.PostFormMap("map")
	s.uploads.Remember(id, selected)

	out, err := s.process(c.Request.Context(), converter.Request{
		Name:       u.name,
		Source:     bytes.NewReader(u.data),
		Size:       int64(len(u.data)),
		Selections: selected,
	})
	if err != nil {
		logEntry(c).WithError(err).WithField("upload_id", id).Warn("processing failed")
		s.renderMapping(c, statusFor(err), id, err.Error(), nil)
		return
	}

	s.uploads.Finish(id, out.Data)
	logEntry(c).WithFields(logrus.Fields{
		"upload_id": id,
		"rows":      out.Result.RowsProcessed,
		"mapped":    len(out.Result.ColumnsMapped),
	}).Info("upload processed")

	s.renderMapping(c, http.StatusOK, id, "", newPreview(out))
}

// handleDownload sends the workbook produced by the last process request
// for an upload. It stays available until the upload expires.
func (s *Server) handleDownload(c *gin.Context) {
	data, ok := s.uploads.Output(c.Param("id"))
	if !ok {
		c.HTML(http.StatusNotFound, "index.html", pageData{
			Error:       "Processed data not found or expired, please upload the file again.",
			MaxUploadMB: s.maxUploadMB,
		})
		return
	}
	sendWorkbook(c, data)
}

// handleAPIProcess runs the pipeline in one request: a multipart "file"
// plus optional map[<field key>] selections.
func (s *Server) handleAPIProcess(c *gin.Context) {
	name, data, err := readUpload(c)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	out, err := s.process(c.Request.Context(), converter.Request{
		Name:       name,
		Source:     bytes.NewReader(data),
		Size:       int64(len(data)),
		Selections: c.PostFormMap("map"),
	})
	if err != nil {
		logEntry(c).WithError(err).WithField("file", name).Warn("processing failed")
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("X-Rows-Processed", fmt.Sprint(out.Result.RowsProcessed))
	sendWorkbook(c, out.Data)
}

func (s *Server) renderIndexError(c *gin.Context, err error) {
	logEntry(c).WithError(err).Warn("upload rejected")
	c.HTML(statusFor(err), "index.html", pageData{
		Error:       err.Error(),
		MaxUploadMB: s.maxUploadMB,
	})
}

func (s *Server) renderMapping(c *gin.Context, status int, id, errMsg string, preview *previewView) {
	u, ok := s.uploads.Get(id)
	if !ok {
		c.HTML(http.StatusNotFound, "index.html", pageData{Error: "Upload not found.", MaxUploadMB: s.maxUploadMB})
		return
	}

	schema, err := s.processor.Schema()
	if err != nil {
		s.renderIndexError(c, err)
		return
	}

	dir := s.processor.Direction
	m := mapping.Build(dir, u.columns, schema.Columns, u.selected)
	offered := mapping.Options(dir, u.columns, schema.Columns)

	fields := make([]fieldView, 0, len(m.Choices))
	for _, choice := range m.Choices {
		fields = append(fields, fieldView{
			Key:      choice.Field.Key,
			Options:  offered,
			Selected: choice.Column,
		})
	}

	c.HTML(status, "mapping.html", pageData{
		Error:    errMsg,
		UploadID: id,
		FileName: u.name,
		Rows:     u.rows,
		Columns:  u.columns,
		Fields:   fields,
		Preview:  preview,
	})
}

func readUpload(c *gin.Context) (string, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, &badRequestError{err: errors.Wrap(err, "missing upload")}
	}
	data, err := readMultipartFile(fh)
	if err != nil {
		return "", nil, err
	}
	return fh.Filename, data, nil
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "reading upload")
	}
	return data, nil
}

func sendWorkbook(c *gin.Context, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", workbook.OutputFileName))
	c.Data(http.StatusOK, workbook.ContentType, data)
}
