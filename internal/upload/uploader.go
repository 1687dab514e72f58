// Package upload pushes generated files to the platform's file storage: a
// staged upload slot is requested, the bytes are posted to it, the resource is
// registered as a file and the file is polled until the CDN URL is ready.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quote-service/internal/domain"
	"quote-service/internal/shopify"

	"github.com/rs/zerolog"
)

const (
	DefaultMaxRetries = 10
	DefaultPollDelay  = time.Second

	pdfMimeType = "application/pdf"
)

type platform interface {
	StagedUploadsCreate(ctx context.Context, in []shopify.StagedUploadInput) ([]domain.StagedUpload, []domain.UserError, error)
	FileCreate(ctx context.Context, in []shopify.FileCreateInput) ([]domain.RemoteFile, []domain.UserError, error)
	FileStatus(ctx context.Context, id string) (*domain.RemoteFile, error)
}

// Observer is told how every upload ended.
type Observer func(outcome string, elapsed time.Duration)

type Options struct {
	HTTPClient *http.Client
	MaxRetries int
	PollDelay  time.Duration
	Observer   Observer
}

type Uploader struct {
	platform   platform
	httpClient *http.Client
	maxRetries int
	pollDelay  time.Duration
	observe    Observer
	logger     zerolog.Logger
}

func New(p platform, logger zerolog.Logger, opts Options) *Uploader {
	u := &Uploader{
		platform:   p,
		httpClient: opts.HTTPClient,
		maxRetries: opts.MaxRetries,
		pollDelay:  opts.PollDelay,
		observe:    opts.Observer,
		logger:     logger,
	}
	if u.httpClient == nil {
		u.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if u.maxRetries <= 0 {
		u.maxRetries = DefaultMaxRetries
	}
	if u.pollDelay <= 0 {
		u.pollDelay = DefaultPollDelay
	}
	return u
}

// CreateStagedUpload requests a single-use upload slot for filename.
func (u *Uploader) CreateStagedUpload(ctx context.Context, filename string, size int) (domain.StagedUpload, error) {
	in := shopify.StagedUploadInput{
		Filename:   filename,
		MimeType:   pdfMimeType,
		Resource:   "FILE",
		HTTPMethod: http.MethodPost,
	}
	if size > 0 {
		in.FileSize = strconv.Itoa(size)
	}
	targets, userErrs, err := u.platform.StagedUploadsCreate(ctx, []shopify.StagedUploadInput{in})
	if err != nil {
		return domain.StagedUpload{}, err
	}
	if len(userErrs) > 0 {
		return domain.StagedUpload{}, domain.UserErrorsError(domain.ErrUploadSlot, userErrs)
	}
	if len(targets) == 0 || targets[0].URL == "" {
		return domain.StagedUpload{}, fmt.Errorf("%w: no staged target returned", domain.ErrUploadSlot)
	}
	return targets[0], nil
}

// UploadToStagedURL posts data to the slot as a multipart form. The slot's
// parameters are written first and the file field last.
func (u *Uploader) UploadToStagedURL(ctx context.Context, data []byte, filename string, target domain.StagedUpload) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for _, p := range target.Parameters {
		if err := form.WriteField(p.Name, p.Value); err != nil {
			return fmt.Errorf("write upload field %s: %w", p.Name, err)
		}
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create upload file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write upload file part: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: staged upload: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: staged upload: status %d: %s", domain.ErrTransport, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

// CreateFileRecord registers an uploaded resource as a platform file.
func (u *Uploader) CreateFileRecord(ctx context.Context, resourceURL, filename, alt string) (domain.RemoteFile, error) {
	files, userErrs, err := u.platform.FileCreate(ctx, []shopify.FileCreateInput{{
		OriginalSource: resourceURL,
		ContentType:    "FILE",
		Alt:            alt,
		Filename:       filename,
	}})
	if err != nil {
		return domain.RemoteFile{}, err
	}
	if len(userErrs) > 0 {
		return domain.RemoteFile{}, domain.UserErrorsError(domain.ErrFileRecord, userErrs)
	}
	if len(files) == 0 {
		return domain.RemoteFile{}, fmt.Errorf("%w: no file returned", domain.ErrFileRecord)
	}
	return files[0], nil
}

// WaitForFileURL polls the file every delay until it is READY or FAILED. Every
// non-terminal poll consumes one of maxRetries attempts.
func (u *Uploader) WaitForFileURL(ctx context.Context, fileID string, maxRetries int, delay time.Duration) (string, error) {
	for attempt := 1; attempt <= maxRetries; attempt++ {
		file, err := u.platform.FileStatus(ctx, fileID)
		if err != nil {
			return "", err
		}
		if file == nil {
			return "", fmt.Errorf("%w: file %s", domain.ErrNotFound, fileID)
		}
		switch file.Status {
		case domain.FileStatusReady:
			if file.URL != "" {
				return file.URL, nil
			}
		case domain.FileStatusFailed:
			codes := make([]string, 0, len(file.Errors))
			for _, e := range file.Errors {
				codes = append(codes, e.Code)
			}
			return "", fmt.Errorf("%w: file %s: %s", domain.ErrFileProcessing, fileID, strings.Join(codes, ", "))
		}
		u.logger.Debug().Str("file_id", fileID).Str("status", file.Status).Int("attempt", attempt).Msg("file not ready")
		if attempt == maxRetries {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: file %s not ready after %d attempts (%s)", domain.ErrUploadTimeout, fileID, maxRetries, time.Duration(maxRetries)*delay)
}

// UploadPDF runs the whole upload protocol and returns the file record carrying its ready URL.
func (u *Uploader) UploadPDF(ctx context.Context, data []byte, filename, alt string) (file domain.RemoteFile, err error) {
	start := time.Now()
	defer func() {
		if u.observe != nil {
			u.observe(outcome(err), time.Since(start))
		}
	}()

	target, err := u.CreateStagedUpload(ctx, filename, len(data))
	if err != nil {
		return domain.RemoteFile{}, err
	}
	if err := u.UploadToStagedURL(ctx, data, filename, target); err != nil {
		return domain.RemoteFile{}, err
	}
	file, err = u.CreateFileRecord(ctx, target.ResourceURL, filename, alt)
	if err != nil {
		return domain.RemoteFile{}, err
	}
	url, err := u.WaitForFileURL(ctx, file.ID, u.maxRetries, u.pollDelay)
	if err != nil {
		return domain.RemoteFile{}, err
	}
	file.URL = url
	file.Status = domain.FileStatusReady
	u.logger.Info().Str("file_id", file.ID).Str("filename", filename).Dur("elapsed", time.Since(start)).Msg("file uploaded")
	return file, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ready"
	case errors.Is(err, domain.ErrUploadTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrFileProcessing):
		return "failed"
	default:
		return "error"
	}
}
