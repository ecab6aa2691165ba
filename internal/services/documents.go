package services

import (
	"context"
	"io/fs"
	"os"
	"time"

	"daycare/internal/attachment"
	"daycare/internal/core"
	applog "daycare/internal/log"
	"daycare/internal/storage"
)

type DocumentInput struct {
	Type        string `json:"type" validate:"required,max=200"`
	Description string `json:"description"`
}

func (in DocumentInput) normalized() DocumentInput {
	in.Type = trim(in.Type)
	return in
}

// DocumentService owns document rows and their stored files.
type DocumentService struct {
	store  *storage.Store
	files  *attachment.Manager
	now    func() time.Time
	logger *applog.Logger
}

func (s *DocumentService) List(ctx context.Context) ([]core.Document, error) {
	return s.store.ListDocuments(ctx)
}

func (s *DocumentService) Get(ctx context.Context, id int64) (core.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// Create stores upload and its row. The upload date is today.
func (s *DocumentService) Create(ctx context.Context, in DocumentInput, upload *attachment.Upload) (core.Document, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return core.Document{}, err
	}
	if upload == nil || upload.Content == nil {
		return core.Document{}, core.Validation("no file uploaded", map[string]string{"document": "this field is required"})
	}

	var out core.Document
	_, err := s.files.CreateWith(ctx, *upload, attachment.DocumentPrefix, func(filename string) error {
		var err error
		out, err = s.store.InsertDocument(ctx, core.Document{
			Type:        in.Type,
			Description: optional(in.Description),
			UploadDate:  s.now().Format(core.DateLayout),
			Filename:    filename,
		})
		return err
	})
	if err != nil {
		return core.Document{}, err
	}
	s.logger.InfoContext(ctx, "Document uploaded",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldEntityID, out.ID,
		applog.FieldFilename, out.Filename)
	return out, nil
}

// Update changes type and description only.
func (s *DocumentService) Update(ctx context.Context, id int64, in DocumentInput) (core.Document, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return core.Document{}, err
	}
	out, err := s.store.UpdateDocument(ctx, core.Document{ID: id, Type: in.Type, Description: optional(in.Description)})
	if err != nil {
		return core.Document{}, err
	}
	s.logger.InfoContext(ctx, "Document updated",
		applog.FieldOperation, applog.OpUpdate, applog.FieldEntityID, id)
	return out, nil
}

func (s *DocumentService) Delete(ctx context.Context, id int64) (attachment.DeleteResult, error) {
	res, err := s.files.DeleteWith(ctx, func() (string, error) {
		old, err := s.store.DeleteDocument(ctx, id)
		return old.Filename, err
	})
	if err != nil {
		return attachment.DeleteResult{}, err
	}
	s.logger.InfoContext(ctx, "Document deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldEntityID, id,
		"file_removed", res.FileRemoved)
	return res, nil
}

// Open returns a stored attachment, receipt or document, for streaming.
// The caller closes the file.
func (s *DocumentService) Open(name string) (*os.File, fs.FileInfo, error) {
	return s.files.Open(name)
}
