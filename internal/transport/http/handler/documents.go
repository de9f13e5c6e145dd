package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"docstack/internal/app"
	"docstack/internal/repository"
	"docstack/internal/transport/http/response"
)

const maxUploadSize = 10 << 20 // 10 MB per file

type DocumentHandler struct {
	ingestService *app.IngestService
	fileRepo      *repository.FileRepository
	chunkRepo     *repository.ChunkRepository
}

func NewDocumentHandler(
	ingestService *app.IngestService,
	fileRepo *repository.FileRepository,
	chunkRepo *repository.ChunkRepository,
) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		fileRepo:      fileRepo,
		chunkRepo:     chunkRepo,
	}
}

// Upload ingests a multipart batch under "files". Each file fails or
// succeeds on its own; the response reports every file.
func (h *DocumentHandler) Upload(c *gin.Context) {
	scope, ok := getScopeFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart payload")
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no files provided")
		return
	}

	reports := make([]app.FileReport, 0, len(fileHeaders))
	uploads := make([]app.FileUpload, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		if fh.Size > maxUploadSize {
			reports = append(reports, app.FileReport{
				FileName: fh.Filename,
				Message:  fmt.Sprintf("file exceeds the %d MB upload limit", maxUploadSize>>20),
			})
			continue
		}
		data, err := readUpload(fh)
		if err != nil {
			reports = append(reports, app.FileReport{
				FileName: fh.Filename,
				Message:  "read upload failed: " + err.Error(),
			})
			continue
		}
		uploads = append(uploads, app.FileUpload{Name: fh.Filename, Data: data})
	}

	reports = append(reports, h.ingestService.IngestAll(c.Request.Context(), scope, uploads)...)
	response.OK(c, gin.H{"files": reports})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *DocumentHandler) List(c *gin.Context) {
	scope, ok := getScopeFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	files, err := h.fileRepo.ListByScope(scope)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, files)
}

type chunkView struct {
	Seq      int    `json:"seq"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding"`
	Preview  string `json:"preview"`
}

// Chunks lists one file's chunks with size and count so a reader can
// always judge completeness of what is shown.
func (h *DocumentHandler) Chunks(c *gin.Context) {
	scope, ok := getScopeFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	fileName := c.Param("name")
	if fileName == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file name")
		return
	}

	chunks, err := h.chunkRepo.ListByScopeAndPath(scope, fileName)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list chunks failed")
		return
	}

	views := make([]chunkView, 0, len(chunks))
	for _, ch := range chunks {
		views = append(views, chunkView{
			Seq:      ch.Seq,
			Size:     ch.Size,
			Encoding: ch.Encoding,
			Preview:  preview(ch.DecodedContent(), 200),
		})
	}
	response.OK(c, gin.H{
		"file_name":   fileName,
		"chunk_count": len(views),
		"chunks":      views,
	})
}

func preview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
