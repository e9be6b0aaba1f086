package farm

import (
	"context"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

// Audit actions written by the repositories.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionAdjust = "adjust"
)

// AuditEntry describes one audited change.
type AuditEntry struct {
	UserID   string
	Action   string
	Resource string
	RecordID string
	Details  map[string]any
}

// AuditLog writes audit rows. Writes never fail the caller: errors are
// logged and dropped. Audit writes do not count against the actor's rate
// limit.
type AuditLog struct {
	facade *store.Facade
	logger Logger
}

// NewAuditLog creates an audit log. logger may be nil.
func NewAuditLog(f *store.Facade, logger Logger) *AuditLog {
	if logger == nil {
		logger = nopLogger{}
	}
	return &AuditLog{facade: f, logger: logger}
}

// Record writes e. A nil AuditLog records nothing.
func (a *AuditLog) Record(ctx context.Context, e AuditEntry) {
	if a == nil {
		return
	}

	data := map[string]any{
		"user_id":   e.UserID,
		"action":    e.Action,
		"resource":  e.Resource,
		"record_id": e.RecordID,
	}
	if len(e.Details) > 0 {
		data["details"] = e.Details
	}

	op, _, err := a.facade.InsertOperation(TableAuditLogs, data)
	if err == nil {
		_, err = a.facade.Store().ExecuteQuery(ctx, op.Query, op.Params, store.QueryOptions{
			Operation:     store.OpRun,
			Table:         op.Table,
			SkipRateLimit: true,
		})
	}
	if err != nil {
		a.logger.Warn("audit log write failed", err, map[string]interface{}{
			"action":    e.Action,
			"resource":  e.Resource,
			"record_id": e.RecordID,
		})
	}
}

// History returns the audit rows of one record, newest first.
func (a *AuditLog) History(ctx context.Context, resource, recordID string, limit int) ([]engine.Row, error) {
	return a.facade.FindMany(ctx, TableAuditLogs, store.Filters{
		"resource":  resource,
		"record_id": recordID,
	}, store.FindOptions{OrderBy: "created_at", OrderDir: "DESC", Limit: limit})
}

type nopLogger struct{}

func (nopLogger) Warn(string, error, ...map[string]interface{}) {}
