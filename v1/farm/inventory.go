package farm

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

// InventoryRepository stores inventory items and their ledger.
type InventoryRepository struct {
	Repository
	audit *AuditLog
}

// NewInventoryRepository creates the inventory repository. Adjustments are
// recorded in audit.
func NewInventoryRepository(f *store.Facade, audit *AuditLog) *InventoryRepository {
	return &InventoryRepository{Repository: NewRepository(f, TableInventoryItems), audit: audit}
}

// LowStock returns the items of farmID whose quantity is at or below their
// reorder level.
func (r *InventoryRepository) LowStock(ctx context.Context, farmID string) ([]engine.Row, error) {
	res, err := r.query(ctx, store.OpQuery,
		"SELECT * FROM inventory_items WHERE farm_id = ? AND quantity <= reorder_level ORDER BY name ASC LIMIT ?",
		farmID, r.facade.ClampLimit(0))
	if err != nil {
		return nil, err
	}
	return rows(res), nil
}

// Adjust changes the quantity of an item by delta and appends the ledger
// row in one transaction, returning the updated item.
//
// The update only applies while the quantity still has the value read
// before it, and the ledger insert only while it has the new value, so a
// concurrent adjustment fails TRANSACTION_ERROR instead of being lost.
// Adjustments that would make the quantity negative fail INVALID_PARAMETER.
func (r *InventoryRepository) Adjust(ctx context.Context, actorID, itemID string, delta decimal.Decimal, reason string) (engine.Row, error) {
	if delta.IsZero() {
		return nil, invalid("inventory adjustment must not be zero", map[string]any{"item_id": itemID})
	}

	item, err := r.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, store.NewError(store.CodeNotFound, "inventory item not found", map[string]any{
			"table": TableInventoryItems,
			"id":    itemID,
		}, nil)
	}

	read := item["quantity"]
	current, err := toDecimal(read)
	if err != nil {
		return nil, store.NewError(store.CodeDatabaseError, "unexpected inventory quantity", map[string]any{"id": itemID}, err)
	}
	next := current.Add(delta)
	if next.IsNegative() {
		return nil, invalid("insufficient stock", map[string]any{
			"item_id":  itemID,
			"quantity": current.String(),
			"change":   delta.String(),
		})
	}
	nextValue := next.InexactFloat64()

	updateOp := store.Operation{
		Query:     "UPDATE inventory_items SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND quantity = ?",
		Params:    []any{nextValue, itemID, read},
		Operation: store.OpRun,
		Table:     TableInventoryItems,
	}
	ledgerOp := store.Operation{
		Query: "INSERT INTO inventory_transactions (id, inventory_item_id, quantity_change, reason, created_at, updated_at) " +
			"SELECT ?, id, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP FROM inventory_items WHERE id = ? AND quantity = ?",
		Params:    []any{r.facade.NewID(), delta.InexactFloat64(), reason, itemID, nextValue},
		Operation: store.OpRun,
		Table:     TableInventoryTransactions,
	}

	results, err := r.facade.Transaction(ctx, updateOp, ledgerOp)
	if err != nil {
		return nil, err
	}
	if results[0].Changes == 0 {
		return nil, store.NewError(store.CodeTransactionError, "inventory item changed concurrently", map[string]any{
			"item_id": itemID,
		}, nil)
	}

	r.audit.Record(ctx, AuditEntry{
		UserID:   actorID,
		Action:   ActionAdjust,
		Resource: TableInventoryItems,
		RecordID: itemID,
		Details: map[string]any{
			"change":   delta.String(),
			"quantity": next.String(),
			"reason":   reason,
		},
	})

	return r.FindByID(ctx, itemID)
}

// Ledger returns the transactions of an item, newest first.
func (r *InventoryRepository) Ledger(ctx context.Context, itemID string, limit int) ([]engine.Row, error) {
	return r.facade.FindMany(ctx, TableInventoryTransactions, store.Filters{"inventory_item_id": itemID},
		store.FindOptions{OrderBy: "created_at", OrderDir: "DESC", Limit: limit})
}
