package core

import (
	"context"
	"fmt"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/internal/export"
)

// PendingPayments lists open payments, oldest first.
func (c *Core) PendingPayments(ctx context.Context) ([]*entity.PendingPayment, error) {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return doc.OpenPayments(), nil
}

// ApprovedUsers lists confirmed participants.
func (c *Core) ApprovedUsers(ctx context.Context) ([]*entity.User, error) {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return doc.ApprovedUsers(), nil
}

// ExportCSV renders approved users as a CSV table.
func (c *Core) ExportCSV(ctx context.Context) ([]byte, error) {
	users, err := c.ApprovedUsers(ctx)
	if err != nil {
		return nil, err
	}
	data, err := export.UsersCSV(users)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return data, nil
}
