package services

import (
	"context"

	"daycare/internal/amqp"
	"daycare/internal/core"
	applog "daycare/internal/log"
	"daycare/internal/storage"
)

// IncomeInput carries the amount as entered; it is parsed by core.ParseAmount.
type IncomeInput struct {
	Date            string `json:"date" validate:"required,date"`
	Source          string `json:"source" validate:"required,max=200"`
	Amount          string `json:"amount" validate:"required"`
	RelatedChildID  *int64 `json:"relatedChildId" validate:"omitempty,gt=0"`
	RelatedParentID *int64 `json:"relatedParentId" validate:"omitempty,gt=0"`
	Description     string `json:"description"`
	BCMonth         string `json:"bcMonth"`
}

func (in IncomeInput) normalized() IncomeInput {
	in.Date = trim(in.Date)
	in.Source = trim(in.Source)
	in.Amount = trim(in.Amount)
	return in
}

func (in IncomeInput) toIncome(id int64) (core.Income, error) {
	if err := validateInput(in); err != nil {
		return core.Income{}, err
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{
		ID:              id,
		Date:            in.Date,
		Source:          in.Source,
		Amount:          amount,
		RelatedChildID:  in.RelatedChildID,
		RelatedParentID: in.RelatedParentID,
		Description:     optional(in.Description),
		BCMonth:         optional(in.BCMonth),
	}, nil
}

type IncomeService struct {
	store  *storage.Store
	events *events
	logger *applog.Logger
}

func (s *IncomeService) List(ctx context.Context, f storage.IncomeFilter) ([]core.Income, error) {
	f.From, f.To, f.Source = trim(f.From), trim(f.To), trim(f.Source)
	if err := checkDateRange(f.From, f.To); err != nil {
		return nil, err
	}
	return s.store.ListIncome(ctx, f)
}

func (s *IncomeService) Get(ctx context.Context, id int64) (core.Income, error) {
	return s.store.GetIncome(ctx, id)
}

func (s *IncomeService) Create(ctx context.Context, in IncomeInput) (core.Income, error) {
	row, err := in.normalized().toIncome(0)
	if err != nil {
		return core.Income{}, err
	}
	out, err := s.store.InsertIncome(ctx, row)
	if err != nil {
		return core.Income{}, err
	}
	s.logger.InfoContext(ctx, "Income recorded",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldEntityID, out.ID,
		applog.FieldAmount, out.Amount)
	s.events.recordChanged(ctx, amqp.EntityIncome, amqp.ActionCreated, out.ID, out)
	return out, nil
}

func (s *IncomeService) Update(ctx context.Context, id int64, in IncomeInput) (core.Income, error) {
	row, err := in.normalized().toIncome(id)
	if err != nil {
		return core.Income{}, err
	}
	out, err := s.store.UpdateIncome(ctx, row)
	if err != nil {
		return core.Income{}, err
	}
	s.logger.InfoContext(ctx, "Income updated",
		applog.FieldOperation, applog.OpUpdate, applog.FieldEntityID, id)
	s.events.recordChanged(ctx, amqp.EntityIncome, amqp.ActionUpdated, out.ID, out)
	return out, nil
}

func (s *IncomeService) Delete(ctx context.Context, id int64) error {
	old, err := s.store.DeleteIncome(ctx, id)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Income deleted",
		applog.FieldOperation, applog.OpDelete, applog.FieldEntityID, id)
	s.events.recordChanged(ctx, amqp.EntityIncome, amqp.ActionDeleted, id, old)
	return nil
}
