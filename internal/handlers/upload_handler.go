package handlers

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brieflyhq/briefly/internal/storage"
)

// formOverhead covers multipart boundaries and the non-file fields of a form.
const formOverhead = 1 << 20

// limitBody caps the request body at n plus form overhead. Reads past the cap
// fail with *http.MaxBytesError.
func limitBody(c *gin.Context, n int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n+formOverhead)
}

func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// receiveUpload stores the multipart "file" field in bucket. On failure it
// has already written the response.
func (h *Handlers) receiveUpload(c *gin.Context, bucket storage.Bucket) (*storage.Object, bool) {
	// 1. Get the file from the request
	limitBody(c, bucket.MaxBytes)
	header, err := c.FormFile("file")
	if bodyTooLarge(err) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": storage.ErrTooLarge.Error()})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, false
	}
	if header.Size > bucket.MaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": storage.ErrTooLarge.Error()})
		return nil, false
	}

	// 2. Open it
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return nil, false
	}
	defer file.Close()

	// 3. Save the file
	obj, err := h.Storage.Put(c.Request.Context(), bucket, header.Filename, file)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return nil, false
	case errors.Is(err, storage.ErrNotImage):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return nil, false
	case errors.Is(err, storage.ErrEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	case err != nil:
		serverError(c, "Failed to save file", err)
		return nil, false
	}
	return obj, true
}

// ServeObject handles GET /storage/:bucket/*key.
func (h *Handlers) ServeObject(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	rc, err := h.Storage.Open(c.Param("bucket"), key)
	if errors.Is(err, storage.ErrUnknownBucket) || errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if err != nil {
		serverError(c, "Failed to read file", err)
		return
	}
	defer rc.Close()

	contentType, inline := storage.ServingType(key)
	extra := map[string]string{
		"Cache-Control":          "public, max-age=31536000, immutable",
		"X-Content-Type-Options": "nosniff",
	}
	if !inline {
		extra["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": key})
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, extra)
}
