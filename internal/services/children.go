package services

import (
	"context"

	"daycare/internal/core"
	applog "daycare/internal/log"
	"daycare/internal/storage"
)

// ChildInput is the writable part of a child record.
type ChildInput struct {
	FirstName        string `json:"firstName" validate:"required,max=100"`
	LastName         string `json:"lastName" validate:"required,max=100"`
	DOB              string `json:"dob" validate:"omitempty,date"`
	ParentID         *int64 `json:"parentId" validate:"omitempty,gt=0"`
	EmergencyContact string `json:"emergencyContact"`
	Allergies        string `json:"allergies"`
	Notes            string `json:"notes"`
}

func (in ChildInput) normalized() ChildInput {
	in.FirstName = trim(in.FirstName)
	in.LastName = trim(in.LastName)
	in.DOB = trim(in.DOB)
	return in
}

func (in ChildInput) toChild(id int64) core.Child {
	return core.Child{
		ID:               id,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		DOB:              core.StringPtr(in.DOB),
		ParentID:         in.ParentID,
		EmergencyContact: optional(in.EmergencyContact),
		Allergies:        optional(in.Allergies),
		Notes:            optional(in.Notes),
	}
}

type ChildService struct {
	store  *storage.Store
	logger *applog.Logger
}

func (s *ChildService) List(ctx context.Context) ([]core.Child, error) {
	return s.store.ListChildren(ctx)
}

func (s *ChildService) Get(ctx context.Context, id int64) (core.Child, error) {
	return s.store.GetChild(ctx, id)
}

// Create stores a new active child.
func (s *ChildService) Create(ctx context.Context, in ChildInput) (core.Child, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return core.Child{}, err
	}
	child, err := s.store.InsertChild(ctx, in.toChild(0))
	if err != nil {
		return core.Child{}, err
	}
	s.logger.InfoContext(ctx, "Child created",
		applog.FieldOperation, applog.OpCreate, applog.FieldEntityID, child.ID)
	return child, nil
}

// Update replaces every field except status.
func (s *ChildService) Update(ctx context.Context, id int64, in ChildInput) (core.Child, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return core.Child{}, err
	}
	child, err := s.store.UpdateChild(ctx, in.toChild(id))
	if err != nil {
		return core.Child{}, err
	}
	s.logger.InfoContext(ctx, "Child updated",
		applog.FieldOperation, applog.OpUpdate, applog.FieldEntityID, id)
	return child, nil
}

func (s *ChildService) UpdateStatus(ctx context.Context, id int64, status string) (core.Child, error) {
	status = trim(status)
	if !core.ValidChildStatus(status) {
		return core.Child{}, core.Validation("invalid status",
			map[string]string{"status": "must be one of: active, inactive"})
	}
	child, err := s.store.UpdateChildStatus(ctx, id, status)
	if err != nil {
		return core.Child{}, err
	}
	s.logger.InfoContext(ctx, "Child status changed",
		applog.FieldOperation, applog.OpUpdate, applog.FieldEntityID, id, "status", status)
	return child, nil
}

// Delete removes the child. Its attendance goes with it and income rows
// pointing at it keep their data but lose the reference.
func (s *ChildService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteChild(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Child deleted",
		applog.FieldOperation, applog.OpDelete, applog.FieldEntityID, id)
	return nil
}
