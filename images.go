package folio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/folio/content"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	uploadsSubdir = "uploads"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// UploadedImage describes a processed upload. URL is either a path under
// /public/uploads/ or a base64 data: URL.
type UploadedImage struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int    `json:"size"`
}

// processImage decodes an image from src, resizes it to at most maxImageWidth
// wide, and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, int, int, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := max(1, h*maxImageWidth/w)
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// sniffImageType reports the content type of the upload from its first bytes.
func sniffImageType(r io.ReadSeeker) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

// uploadFilename derives a unique, URL-safe name from the original filename.
func uploadFilename(dir, original string) string {
	base := content.GenerateSlug(strings.TrimSuffix(original, filepath.Ext(original)))
	if base == "" {
		base = "image"
	}
	base = fmt.Sprintf("%s-%d", base, time.Now().UnixMilli())
	candidate := base + ".jpg"
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, i)
	}
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > a.Config.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("File too large (max %dMB)", a.Config.MaxUploadBytes>>20))
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	ctype, err := sniffImageType(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable upload").SetInternal(err)
	}
	if !allowedImageTypes[ctype] {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid file type. Only JPEG, PNG, and WebP are allowed.")
	}

	data, w, h, err := processImage(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	out := UploadedImage{Width: w, Height: h, Size: len(data)}

	if a.Config.InlineImages {
		out.URL = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
		return c.JSON(http.StatusCreated, out)
	}

	dir := filepath.Join(a.staticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	out.Filename = uploadFilename(dir, file.Filename)
	if err := os.WriteFile(filepath.Join(dir, out.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	out.URL = "/public/" + uploadsSubdir + "/" + out.Filename

	a.Log.WithField("file", out.Filename).WithField("bytes", out.Size).Info("image uploaded")
	return c.JSON(http.StatusCreated, out)
}
