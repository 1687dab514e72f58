package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates bad or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration indicates a required remote client was not initialized.
	ErrConfiguration = errors.New("configuration error")
	// ErrRemoteAPI is the parent of every error reported by the commerce platform.
	ErrRemoteAPI = errors.New("remote api error")
	// ErrTransport indicates the platform or an upload target could not be reached.
	ErrTransport = errors.New("transport error")
	// ErrFileProcessing indicates the platform marked an uploaded file FAILED.
	ErrFileProcessing = errors.New("file processing failed")
	// ErrUploadTimeout indicates polling ended before the file reached a terminal state.
	ErrUploadTimeout = errors.New("upload timed out")
	// ErrRender indicates a template or rasterization failure.
	ErrRender = errors.New("render failed")
)

var (
	ErrDraftOrderCreation = fmt.Errorf("draft order creation failed: %w", ErrRemoteAPI)
	ErrInvoiceSend        = fmt.Errorf("invoice send failed: %w", ErrRemoteAPI)
	ErrUploadSlot         = fmt.Errorf("staged upload failed: %w", ErrRemoteAPI)
	ErrFileRecord         = fmt.Errorf("file record creation failed: %w", ErrRemoteAPI)
	ErrMetafieldsSet      = fmt.Errorf("metafields set failed: %w", ErrRemoteAPI)
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = fmt.Errorf("not found: %w", ErrRemoteAPI)

	ErrTemplate = fmt.Errorf("template error: %w", ErrRender)
)

// UserError is a validation message reported by the platform alongside a mutation result.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

func (e UserError) String() string {
	if len(e.Field) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%v: %s", e.Field, e.Message)
}

// UserErrorsError wraps kind with the platform's user errors.
func UserErrorsError(kind error, errs []UserError) error {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += e.String()
	}
	return fmt.Errorf("%w: %s", kind, msg)
}
