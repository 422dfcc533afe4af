package handlers

import (
	"bufio"
	"errors"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/httpx"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/service"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/storage"
)

type MediaHandler struct {
	s3           *storage.S3Storage
	mediaService *service.MediaService
}

func NewMediaHandler(s3 *storage.S3Storage, mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{s3: s3, mediaService: mediaService}
}

func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, "\"")
	return v
}

// UploadAttachment stores an in-chat image for a room and returns its URL.
// The client then sends a message referencing it.
func (h *MediaHandler) UploadAttachment(c *fiber.Ctx) error {
	if _, err := viewerName(c); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	room := c.Params("room")
	if room == "" {
		return httpx.BadRequest(c, "missing_room", "room is required")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return httpx.BadRequest(c, "missing_image", "image file is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_image", "Invalid image upload")
	}
	defer f.Close()

	url, err := h.mediaService.UploadAttachment(c.Context(), room, f, publicAPIBaseURL(c))
	if err != nil {
		return mediaUploadError(c, err, "image")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}

// GetMedia streams a stored object: profile photos, room covers, attachments.
func (h *MediaHandler) GetMedia(c *fiber.Ctx) error {
	if h.s3 == nil {
		return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
	}

	keyParam := strings.TrimSpace(c.Params("*"))
	key, err := storage.SafeJoinMediaPath("", keyParam)
	if err != nil {
		return httpx.NotFound(c, "not_found", "Not found")
	}

	obj, st, err := h.s3.GetObject(c.Context(), key)
	if err != nil {
		// Hide details.
		var resp minio.ErrorResponse
		if errors.As(err, &resp) {
			if resp.StatusCode == 404 || resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject" {
				return httpx.NotFound(c, "not_found", "Not found")
			}
		}
		log.Printf("level=error msg=\"media fetch failed\" key=%q error=%q", key, err)
		return httpx.Internal(c, "media_fetch_failed")
	}

	etag := st.ETag
	if etag != "" {
		c.Set("ETag", "\""+etag+"\"")
		if inm := normalizeETag(c.Get("If-None-Match")); inm != "" && inm == normalizeETag(etag) {
			_ = obj.Close()
			return c.SendStatus(fiber.StatusNotModified)
		}
	}
	if !st.LastModified.IsZero() {
		c.Set("Last-Modified", st.LastModified.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"))
	}

	c.Set("Cache-Control", "private, max-age=31536000, immutable")
	if st.ContentType != "" {
		c.Type(st.ContentType)
	} else {
		c.Type("image/jpeg")
	}
	if st.Size > 0 {
		c.Set("Content-Length", strconv.FormatInt(st.Size, 10))
	}

	// Stream object while capturing any mid-stream errors.
	// (Fiber versions vary; use underlying fasthttp stream writer.)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			_ = obj.Close()
		}()

		if _, copyErr := io.Copy(w, obj); copyErr != nil {
			log.Printf("level=warn msg=\"media stream interrupted\" key=%q error=%q", key, copyErr)
			return
		}
		if flushErr := w.Flush(); flushErr != nil {
			log.Printf("level=warn msg=\"media stream flush failed\" key=%q error=%q", key, flushErr)
		}
	})
	return nil
}
