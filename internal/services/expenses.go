package services

import (
	"context"

	"daycare/internal/amqp"
	"daycare/internal/attachment"
	"daycare/internal/core"
	applog "daycare/internal/log"
	"daycare/internal/storage"
)

type ExpenseInput struct {
	Date        string `json:"date" validate:"required,date"`
	Category    string `json:"category" validate:"required,max=200"`
	Amount      string `json:"amount" validate:"required"`
	Vendor      string `json:"vendor"`
	Description string `json:"description"`
	IsPersonal  bool   `json:"is_personal"`
}

func (in ExpenseInput) normalized() ExpenseInput {
	in.Date = trim(in.Date)
	in.Category = trim(in.Category)
	in.Amount = trim(in.Amount)
	return in
}

func (in ExpenseInput) toExpense(id int64) (core.Expense, error) {
	if err := validateInput(in); err != nil {
		return core.Expense{}, err
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          id,
		Date:        in.Date,
		Category:    in.Category,
		Amount:      amount,
		Vendor:      optional(in.Vendor),
		Description: optional(in.Description),
		IsPersonal:  in.IsPersonal,
	}, nil
}

// ExpenseService owns expense rows and their receipt files.
type ExpenseService struct {
	store  *storage.Store
	files  *attachment.Manager
	events *events
	logger *applog.Logger
}

func (s *ExpenseService) List(ctx context.Context, f storage.ExpenseFilter) ([]core.Expense, error) {
	f.From, f.To, f.Category = trim(f.From), trim(f.To), trim(f.Category)
	if err := checkDateRange(f.From, f.To); err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, f)
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// Create stores the expense. When receipt is set the file is written first
// and removed again if the row cannot be inserted.
func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput, receipt *attachment.Upload) (core.Expense, error) {
	row, err := in.normalized().toExpense(0)
	if err != nil {
		return core.Expense{}, err
	}

	var out core.Expense
	insert := func(filename string) error {
		row.ReceiptFilename = core.StringPtr(filename)
		var err error
		out, err = s.store.InsertExpense(ctx, row)
		return err
	}
	if receipt != nil {
		if _, err := s.files.CreateWith(ctx, *receipt, "", insert); err != nil {
			return core.Expense{}, err
		}
	} else if err := insert(""); err != nil {
		return core.Expense{}, err
	}

	s.logger.InfoContext(ctx, "Expense recorded",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldEntityID, out.ID,
		applog.FieldAmount, out.Amount,
		"has_receipt", out.ReceiptFilename != nil)
	s.events.recordChanged(ctx, amqp.EntityExpense, amqp.ActionCreated, out.ID, out)
	return out, nil
}

// Update changes the expense fields and leaves its receipt alone.
func (s *ExpenseService) Update(ctx context.Context, id int64, in ExpenseInput) (core.Expense, error) {
	row, err := in.normalized().toExpense(id)
	if err != nil {
		return core.Expense{}, err
	}
	out, err := s.store.UpdateExpense(ctx, row)
	if err != nil {
		return core.Expense{}, err
	}
	s.logger.InfoContext(ctx, "Expense updated",
		applog.FieldOperation, applog.OpUpdate, applog.FieldEntityID, id)
	s.events.recordChanged(ctx, amqp.EntityExpense, amqp.ActionUpdated, out.ID, out)
	return out, nil
}

// Delete removes the row, then its receipt. A receipt that cannot be removed
// is reported in the result's Warning.
func (s *ExpenseService) Delete(ctx context.Context, id int64) (attachment.DeleteResult, error) {
	var old core.Expense
	res, err := s.files.DeleteWith(ctx, func() (string, error) {
		var err error
		old, err = s.store.DeleteExpense(ctx, id)
		if err != nil || old.ReceiptFilename == nil {
			return "", err
		}
		return *old.ReceiptFilename, nil
	})
	if err != nil {
		return attachment.DeleteResult{}, err
	}
	s.logger.InfoContext(ctx, "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldEntityID, id,
		"receipt_removed", res.FileRemoved)
	s.events.recordChanged(ctx, amqp.EntityExpense, amqp.ActionDeleted, id, old)
	return res, nil
}
