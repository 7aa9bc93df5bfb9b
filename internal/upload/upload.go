// Package upload validates multipart file fields against a declarative rule table and
// writes accepted files to a storage backend.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/storage"
	"SeniorJunior-backend/internal/utilities"
)

// PathPrefix starts every stored path and is the URL prefix static files are served under
const PathPrefix = "uploads"

const (
	// FieldResume is the multipart field carrying a PDF résumé
	FieldResume = "resume"
	// FieldProfilePicture is the multipart field carrying an avatar image
	FieldProfilePicture = "profilePicture"
)

// Messages shown to clients
const (
	MsgInvalidField    = "Invalid file type!"
	MsgResumeType      = "Resume must be a PDF file!"
	MsgPictureType     = "Profile picture must be a JPG or PNG!"
	MsgMultipleFiles   = "Only one file per field is allowed!"
	msgTooLargePattern = "File too large! Maximum size is %s."
)

// Rule describes one accepted field
type Rule struct {
	Field        string
	Dir          string
	AllowedTypes []string
	MaxBytes     int64
	// TypeMessage is the rejection reason for a MIME type outside AllowedTypes
	TypeMessage string
	// ImageMaxDim > 0 decodes the file as an image and shrinks it to fit a square of that size
	ImageMaxDim int
}

// DefaultRules is the field table the API serves
func DefaultRules(maxBytes int64) []Rule {
	return []Rule{
		{
			Field:        FieldResume,
			Dir:          "resumes",
			AllowedTypes: []string{"application/pdf"},
			MaxBytes:     maxBytes,
			TypeMessage:  MsgResumeType,
		},
		{
			Field:        FieldProfilePicture,
			Dir:          "avatars",
			AllowedTypes: []string{"image/jpeg", "image/jpg", "image/png"},
			MaxBytes:     maxBytes,
			TypeMessage:  MsgPictureType,
			ImageMaxDim:  1024,
		},
	}
}

// RejectedError is returned for a file that breaks its field's rule
type RejectedError struct {
	Field    string
	Reason   string
	TooLarge bool
}

func (e *RejectedError) Error() string {
	return e.Reason
}

// IsRejected reports whether err is a RejectedError
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// Handler applies the rule table
type Handler struct {
	backend storage.Backend
	rules   map[string]Rule
	now     func() time.Time
	log     *zap.Logger
}

// NewHandler validates rules once and returns a handler writing to backend
func NewHandler(backend storage.Backend, rules []Rule, log *zap.Logger) (*Handler, error) {
	if backend == nil {
		return nil, errors.New("upload: nil storage backend")
	}
	if log == nil {
		log = zap.NewNop()
	}
	table := make(map[string]Rule, len(rules))
	for _, r := range rules {
		if r.Field == "" {
			return nil, errors.New("upload: rule without field name")
		}
		if _, dup := table[r.Field]; dup {
			return nil, fmt.Errorf("upload: duplicate rule for field %q", r.Field)
		}
		if _, err := storage.CleanKey(r.Dir); err != nil {
			return nil, fmt.Errorf("upload: field %q: %w", r.Field, err)
		}
		if len(r.AllowedTypes) == 0 {
			return nil, fmt.Errorf("upload: field %q allows no MIME type", r.Field)
		}
		if r.MaxBytes <= 0 {
			return nil, fmt.Errorf("upload: field %q needs a positive size limit", r.Field)
		}
		if r.TypeMessage == "" {
			r.TypeMessage = MsgInvalidField
		}
		table[r.Field] = r
	}
	return &Handler{backend: backend, rules: table, now: time.Now, log: log}, nil
}

// WithClock replaces the filename timestamp source
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Check validates a declared MIME type and size for field without touching storage
func (h *Handler) Check(field, contentType string, size int64) error {
	rule, ok := h.rules[field]
	if !ok {
		return &RejectedError{Field: field, Reason: MsgInvalidField}
	}
	if !allowed(rule.AllowedTypes, contentType) {
		return &RejectedError{Field: field, Reason: rule.TypeMessage}
	}
	if size > rule.MaxBytes {
		return &RejectedError{
			Field:    field,
			Reason:   fmt.Sprintf(msgTooLargePattern, humanSize(rule.MaxBytes)),
			TooLarge: true,
		}
	}
	return nil
}

// Save validates fh against field's rule, stores it and returns the stored path
// ("uploads/<dir>/<unix-millis>-<sanitized name>").
func (h *Handler) Save(ctx context.Context, field string, fh *multipart.FileHeader) (string, error) {
	contentType := fh.Header.Get("Content-Type")
	if err := h.Check(field, contentType, fh.Size); err != nil {
		return "", err
	}
	rule := h.rules[field]

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var body io.Reader = io.LimitReader(f, rule.MaxBytes+1)
	if rule.ImageMaxDim > 0 {
		body, err = normalizeImage(body, rule)
		if err != nil {
			return "", err
		}
	}

	key := path.Join(rule.Dir, fmt.Sprintf("%d-%s", h.now().UnixMilli(), SanitizeFilename(fh.Filename)))
	if err := h.backend.Save(ctx, key, body, mediaType(contentType)); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	h.log.Debug("stored upload", zap.String("field", field), zap.String("key", key), zap.Int64("size", fh.Size))
	return StoredPath(key), nil
}

// SaveForm stores every file of form. Fields outside allowedFields are rejected before
// anything is written. On failure the files already written by this call are removed.
func (h *Handler) SaveForm(ctx context.Context, form *multipart.Form, allowedFields ...string) (map[string]string, error) {
	saved := map[string]string{}
	if form == nil {
		return saved, nil
	}

	for field, files := range form.File {
		if !utilities.Contains(allowedFields, field) {
			return nil, &RejectedError{Field: field, Reason: MsgInvalidField}
		}
		if len(files) > 1 {
			return nil, &RejectedError{Field: field, Reason: MsgMultipleFiles}
		}
		if len(files) == 1 {
			fh := files[0]
			if err := h.Check(field, fh.Header.Get("Content-Type"), fh.Size); err != nil {
				return nil, err
			}
		}
	}

	for field, files := range form.File {
		if len(files) == 0 {
			continue
		}
		p, err := h.Save(ctx, field, files[0])
		if err != nil {
			h.Remove(ctx, mapValues(saved)...)
			return nil, err
		}
		saved[field] = p
	}
	return saved, nil
}

// Open opens a stored path
func (h *Handler) Open(ctx context.Context, storedPath string) (*storage.Object, error) {
	key, err := KeyFromPath(storedPath)
	if err != nil {
		return nil, err
	}
	return h.backend.Open(ctx, key)
}

// Delete removes a stored path. Missing files are not an error.
func (h *Handler) Delete(ctx context.Context, storedPath string) error {
	key, err := KeyFromPath(storedPath)
	if err != nil {
		return err
	}
	return h.backend.Delete(ctx, key)
}

// Remove deletes each stored path, logging failures
func (h *Handler) Remove(ctx context.Context, storedPaths ...string) {
	for _, p := range storedPaths {
		if p == "" {
			continue
		}
		if err := h.Delete(ctx, p); err != nil {
			h.log.Warn("failed to remove upload", zap.String("path", p), zap.Error(err))
		}
	}
}

// StoredPath turns a backend key into the path saved on records
func StoredPath(key string) string {
	return PathPrefix + "/" + key
}

// KeyFromPath turns a stored path back into a backend key
func KeyFromPath(storedPath string) (string, error) {
	rest, ok := strings.CutPrefix(strings.TrimPrefix(storedPath, "/"), PathPrefix+"/")
	if !ok {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, storedPath)
	}
	return storage.CleanKey(rest)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename keeps the base name, replaces spaces and other unsafe characters with "_"
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		return "file"
	}
	if len(name) > 128 {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:128-len(ext)] + ext
	}
	return name
}

func normalizeImage(r io.Reader, rule Rule) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &RejectedError{Field: rule.Field, Reason: rule.TypeMessage}
	}

	b := img.Bounds()
	if b.Dx() <= rule.ImageMaxDim && b.Dy() <= rule.ImageMaxDim {
		return bytes.NewReader(raw), nil
	}

	format, err := imaging.FormatFromExtension(formatExtension(raw))
	if err != nil {
		return nil, &RejectedError{Field: rule.Field, Reason: rule.TypeMessage}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, rule.ImageMaxDim, rule.ImageMaxDim, imaging.Lanczos), format); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return &buf, nil
}

// formatExtension sniffs PNG, everything else that decoded is treated as JPEG
func formatExtension(raw []byte) string {
	if bytes.HasPrefix(raw, []byte("\x89PNG\r\n\x1a\n")) {
		return ".png"
	}
	return ".jpg"
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func allowed(types []string, contentType string) bool {
	return utilities.Contains(types, mediaType(contentType))
}

func mapValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func humanSize(n int64) string {
	const mb = 1 << 20
	if n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
