package shopify

import (
	"context"

	"quote-service/internal/domain"
)

// StagedUploadInput describes the file a staged target is requested for.
type StagedUploadInput struct {
	Filename   string `json:"filename"`
	MimeType   string `json:"mimeType"`
	Resource   string `json:"resource"`
	HTTPMethod string `json:"httpMethod"`
	FileSize   string `json:"fileSize,omitempty"`
}

// FileCreateInput registers an uploaded resource as a file.
type FileCreateInput struct {
	OriginalSource string `json:"originalSource"`
	ContentType    string `json:"contentType"`
	Alt            string `json:"alt,omitempty"`
	Filename       string `json:"filename,omitempty"`
}

type fileNode struct {
	ID         string             `json:"id"`
	Alt        string             `json:"alt"`
	FileStatus string             `json:"fileStatus"`
	URL        string             `json:"url"`
	FileErrors []domain.FileError `json:"fileErrors"`
}

func (n *fileNode) toDomain() *domain.RemoteFile {
	if n == nil || n.ID == "" {
		return nil
	}
	return &domain.RemoteFile{ID: n.ID, URL: n.URL, Status: n.FileStatus, Alt: n.Alt, Errors: n.FileErrors}
}

// StagedUploadsCreate requests upload targets, one per input.
func (c *Client) StagedUploadsCreate(ctx context.Context, in []StagedUploadInput) ([]domain.StagedUpload, []domain.UserError, error) {
	var data struct {
		StagedUploadsCreate struct {
			StagedTargets []struct {
				URL         string                         `json:"url"`
				ResourceURL string                         `json:"resourceUrl"`
				Parameters  []domain.StagedUploadParameter `json:"parameters"`
			} `json:"stagedTargets"`
			UserErrors []userErrorNode `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}
	if err := c.Do(ctx, "stagedUploadsCreate", stagedUploadsCreateMutation, map[string]interface{}{"input": in}, &data); err != nil {
		return nil, nil, err
	}
	targets := make([]domain.StagedUpload, 0, len(data.StagedUploadsCreate.StagedTargets))
	for _, t := range data.StagedUploadsCreate.StagedTargets {
		targets = append(targets, domain.StagedUpload{URL: t.URL, ResourceURL: t.ResourceURL, Parameters: t.Parameters})
	}
	return targets, toUserErrors(data.StagedUploadsCreate.UserErrors), nil
}

// FileCreate registers uploaded resources and returns the created file records.
func (c *Client) FileCreate(ctx context.Context, in []FileCreateInput) ([]domain.RemoteFile, []domain.UserError, error) {
	var data struct {
		FileCreate struct {
			Files      []fileNode      `json:"files"`
			UserErrors []userErrorNode `json:"userErrors"`
		} `json:"fileCreate"`
	}
	if err := c.Do(ctx, "fileCreate", fileCreateMutation, map[string]interface{}{"files": in}, &data); err != nil {
		return nil, nil, err
	}
	files := make([]domain.RemoteFile, 0, len(data.FileCreate.Files))
	for i := range data.FileCreate.Files {
		if f := data.FileCreate.Files[i].toDomain(); f != nil {
			files = append(files, *f)
		}
	}
	return files, toUserErrors(data.FileCreate.UserErrors), nil
}

// FileStatus reads the processing state of a file. A nil result means the node is unknown.
func (c *Client) FileStatus(ctx context.Context, id string) (*domain.RemoteFile, error) {
	var data struct {
		Node *fileNode `json:"node"`
	}
	if err := c.Do(ctx, "fileStatus", fileStatusQuery, map[string]interface{}{"id": id}, &data); err != nil {
		return nil, err
	}
	return data.Node.toDomain(), nil
}
