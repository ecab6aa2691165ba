package services

import (
	"context"

	"daycare/internal/core"
	applog "daycare/internal/log"
	"daycare/internal/storage"
)

type ParentInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

func (in ParentInput) normalized() ParentInput {
	in.Name = trim(in.Name)
	in.Email = trim(in.Email)
	return in
}

func (in ParentInput) toParent(id int64) core.Parent {
	return core.Parent{
		ID:      id,
		Name:    in.Name,
		Phone:   optional(in.Phone),
		Email:   core.StringPtr(in.Email),
		Address: optional(in.Address),
	}
}

type ParentService struct {
	store  *storage.Store
	logger *applog.Logger
}

func (s *ParentService) List(ctx context.Context) ([]core.Parent, error) {
	return s.store.ListParents(ctx)
}

func (s *ParentService) Get(ctx context.Context, id int64) (core.Parent, error) {
	return s.store.GetParent(ctx, id)
}

func (s *ParentService) Create(ctx context.Context, in ParentInput) (core.Parent, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return core.Parent{}, err
	}
	p, err := s.store.InsertParent(ctx, in.toParent(0))
	if err != nil {
		return core.Parent{}, err
	}
	s.logger.InfoContext(ctx, "Parent created",
		applog.FieldOperation, applog.OpCreate, applog.FieldEntityID, p.ID)
	return p, nil
}

func (s *ParentService) Update(ctx context.Context, id int64, in ParentInput) (core.Parent, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return core.Parent{}, err
	}
	p, err := s.store.UpdateParent(ctx, in.toParent(id))
	if err != nil {
		return core.Parent{}, err
	}
	s.logger.InfoContext(ctx, "Parent updated",
		applog.FieldOperation, applog.OpUpdate, applog.FieldEntityID, id)
	return p, nil
}

// Delete fails with a Referenced constraint error while any child points at
// the parent.
func (s *ParentService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteParent(ctx, id); err != nil {
		if core.ConstraintOf(err) == core.Referenced {
			s.logger.InfoContext(ctx, "Parent delete refused, children still linked",
				applog.FieldOperation, applog.OpDelete, applog.FieldEntityID, id)
		}
		return err
	}
	s.logger.InfoContext(ctx, "Parent deleted",
		applog.FieldOperation, applog.OpDelete, applog.FieldEntityID, id)
	return nil
}
