package upload

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quote-service/internal/domain"
	"quote-service/internal/shopify"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlatform struct {
	targets      []domain.StagedUpload
	stagedErrs   []domain.UserError
	files        []domain.RemoteFile
	fileErrs     []domain.UserError
	statuses     []domain.RemoteFile
	statusCalls  int
	stagedInputs []shopify.StagedUploadInput
	fileInputs   []shopify.FileCreateInput
}

func (s *stubPlatform) StagedUploadsCreate(_ context.Context, in []shopify.StagedUploadInput) ([]domain.StagedUpload, []domain.UserError, error) {
	s.stagedInputs = append(s.stagedInputs, in...)
	return s.targets, s.stagedErrs, nil
}

func (s *stubPlatform) FileCreate(_ context.Context, in []shopify.FileCreateInput) ([]domain.RemoteFile, []domain.UserError, error) {
	s.fileInputs = append(s.fileInputs, in...)
	return s.files, s.fileErrs, nil
}

func (s *stubPlatform) FileStatus(_ context.Context, id string) (*domain.RemoteFile, error) {
	i := s.statusCalls
	s.statusCalls++
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	f := s.statuses[i]
	f.ID = id
	return &f, nil
}

func processing(n int) []domain.RemoteFile {
	out := make([]domain.RemoteFile, n)
	for i := range out {
		out[i] = domain.RemoteFile{Status: domain.FileStatusProcessing}
	}
	return out
}

func TestWaitForFileURLReadyOnTenthPoll(t *testing.T) {
	p := &stubPlatform{statuses: append(processing(9), domain.RemoteFile{Status: domain.FileStatusReady, URL: "https://cdn.shopify.com/q.pdf"})}
	u := New(p, zerolog.Nop(), Options{})

	url, err := u.WaitForFileURL(context.Background(), "gid://shopify/GenericFile/1", 10, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.shopify.com/q.pdf", url)
	assert.Equal(t, 10, p.statusCalls)
}

func TestWaitForFileURLTimesOutAfterMaxRetries(t *testing.T) {
	p := &stubPlatform{statuses: processing(1)}
	u := New(p, zerolog.Nop(), Options{})

	_, err := u.WaitForFileURL(context.Background(), "f1", 2, time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUploadTimeout))
	assert.Equal(t, 2, p.statusCalls)
	assert.Contains(t, err.Error(), "2ms")
}

func TestWaitForFileURLFailed(t *testing.T) {
	p := &stubPlatform{statuses: []domain.RemoteFile{
		{Status: domain.FileStatusUploaded},
		{Status: domain.FileStatusFailed, Errors: []domain.FileError{{Code: "MEDIA_PROCESSING_ERROR"}}},
	}}
	u := New(p, zerolog.Nop(), Options{})

	_, err := u.WaitForFileURL(context.Background(), "f1", 10, time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFileProcessing))
	assert.Contains(t, err.Error(), "MEDIA_PROCESSING_ERROR")
	assert.Equal(t, 2, p.statusCalls)
}

func TestWaitForFileURLStopsOnCancel(t *testing.T) {
	p := &stubPlatform{statuses: processing(1)}
	u := New(p, zerolog.Nop(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := u.WaitForFileURL(ctx, "f1", 5, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, p.statusCalls)
}

func TestCreateStagedUploadErrors(t *testing.T) {
	u := New(&stubPlatform{stagedErrs: []domain.UserError{{Message: "bad filename"}}}, zerolog.Nop(), Options{})
	_, err := u.CreateStagedUpload(context.Background(), "x.pdf", 10)
	assert.ErrorIs(t, err, domain.ErrUploadSlot)
	assert.ErrorIs(t, err, domain.ErrRemoteAPI)

	u = New(&stubPlatform{}, zerolog.Nop(), Options{})
	_, err = u.CreateStagedUpload(context.Background(), "x.pdf", 10)
	assert.ErrorIs(t, err, domain.ErrUploadSlot)
}

func TestCreateFileRecordEmpty(t *testing.T) {
	u := New(&stubPlatform{}, zerolog.Nop(), Options{})
	_, err := u.CreateFileRecord(context.Background(), "https://staged/x", "x.pdf", "")
	assert.ErrorIs(t, err, domain.ErrFileRecord)
}

func TestUploadToStagedURLNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "<Error>AccessDenied</Error>")
	}))
	defer srv.Close()
	u := New(&stubPlatform{}, zerolog.Nop(), Options{})

	err := u.UploadToStagedURL(context.Background(), []byte("%PDF"), "x.pdf", domain.StagedUpload{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "403")
}

func TestUploadPDF(t *testing.T) {
	var fieldOrder []string
	var fileBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		require.NoError(t, err)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			fieldOrder = append(fieldOrder, part.FormName())
			if part.FormName() == "file" {
				raw, _ := io.ReadAll(part)
				fileBody = string(raw)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := &stubPlatform{
		targets: []domain.StagedUpload{{
			URL:         srv.URL,
			ResourceURL: "https://staged/tmp/q.pdf",
			Parameters:  []domain.StagedUploadParameter{{Name: "key", Value: "tmp/q.pdf"}, {Name: "policy", Value: "abc"}},
		}},
		files:    []domain.RemoteFile{{ID: "gid://shopify/GenericFile/9", Status: domain.FileStatusUploaded}},
		statuses: []domain.RemoteFile{{Status: domain.FileStatusProcessing}, {Status: domain.FileStatusReady, URL: "https://cdn/q.pdf"}},
	}
	var observed string
	u := New(p, zerolog.Nop(), Options{PollDelay: time.Millisecond, Observer: func(o string, _ time.Duration) { observed = o }})

	file, err := u.UploadPDF(context.Background(), []byte("%PDF-1.4"), "vat_invoice_INV-EE-1.pdf", "Invoice INV-EE-1")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/GenericFile/9", file.ID)
	assert.Equal(t, "https://cdn/q.pdf", file.URL)
	assert.Equal(t, domain.FileStatusReady, file.Status)
	assert.Equal(t, []string{"key", "policy", "file"}, fieldOrder)
	assert.Equal(t, "%PDF-1.4", fileBody)
	assert.Equal(t, "ready", observed)

	require.Len(t, p.stagedInputs, 1)
	assert.Equal(t, "application/pdf", p.stagedInputs[0].MimeType)
	assert.Equal(t, "8", p.stagedInputs[0].FileSize)
	require.Len(t, p.fileInputs, 1)
	assert.Equal(t, "https://staged/tmp/q.pdf", p.fileInputs[0].OriginalSource)
}

func TestMultipartFileFieldNaming(t *testing.T) {
	var filename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, params, _ := strings.Cut(r.Header.Get("Content-Type"), "boundary=")
		mr := multipart.NewReader(r.Body, params)
		part, err := mr.NextPart()
		require.NoError(t, err)
		filename = part.FileName()
	}))
	defer srv.Close()
	u := New(&stubPlatform{}, zerolog.Nop(), Options{})

	require.NoError(t, u.UploadToStagedURL(context.Background(), []byte("x"), "a.pdf", domain.StagedUpload{URL: srv.URL}))
	assert.Equal(t, "a.pdf", filename)
}
