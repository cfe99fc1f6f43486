package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Writer appends audit events inside the caller's transaction.
type Writer struct {
	Now func() time.Time
}

type EventPayload map[string]any

// Type builds an event name such as "employee.created".
func Type(entity, action string) string {
	return entity + "." + action
}

func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, resource string, entityID int64, requestID string, payload EventPayload) error {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	ts := now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,resource,entity_id,request_id,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, evtType, resource, entityID, nullable(requestID), string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
