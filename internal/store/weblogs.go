package store

import (
	"context"
	"encoding/json"
	"fmt"

	"landsmon/internal/model"
	"landsmon/internal/notify"
)

// WebhookLogStore is the durable notify.LogStore backed by _webhook_logs.
type WebhookLogStore struct {
	s   *Store
	cap int
}

func NewWebhookLogStore(s *Store, size int) *WebhookLogStore {
	if size <= 0 {
		size = notify.DefaultLogSize
	}
	return &WebhookLogStore{s: s, cap: size}
}

var _ notify.LogStore = (*WebhookLogStore)(nil)

func (st *WebhookLogStore) Insert(ctx context.Context, entry model.WebhookLog) error {
	payloadJSON, _ := json.Marshal(entry.Payload)
	pb := st.s.Dialect.NewParamBuilder()
	_, err := Exec(ctx, st.s.DB, fmt.Sprintf(
		`INSERT INTO _webhook_logs (id, channel_id, channel_name, event, payload, success, status_code, response_time_ms, error, created_at)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		pb.Add(entry.ID), pb.Add(entry.ChannelID), pb.Add(entry.ChannelName), pb.Add(entry.Event),
		pb.Add(string(payloadJSON)), pb.Add(entry.Result.Success), pb.Add(entry.Result.StatusCode),
		pb.Add(entry.Result.ResponseTime), pb.Add(entry.Result.Error), pb.Add(entry.CreatedAt)),
		pb.Params()...)
	if err != nil {
		return st.s.Dialect.MapError(err)
	}

	pb = st.s.Dialect.NewParamBuilder()
	_, err = Exec(ctx, st.s.DB, fmt.Sprintf(
		`DELETE FROM _webhook_logs WHERE id NOT IN (
		   SELECT id FROM _webhook_logs ORDER BY created_at DESC, id DESC LIMIT %s
		 )`, pb.Add(st.cap)),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("prune webhook logs: %w", err)
	}
	return nil
}

func (st *WebhookLogStore) List(ctx context.Context) ([]model.WebhookLog, error) {
	rows, err := QueryRows(ctx, st.s.DB,
		`SELECT id, channel_id, channel_name, event, payload, success, status_code, response_time_ms, error, created_at
		 FROM _webhook_logs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list webhook logs: %w", err)
	}
	out := make([]model.WebhookLog, 0, len(rows))
	for _, row := range rows {
		entry := model.WebhookLog{
			ID:          toStr(row, "id"),
			ChannelID:   toStr(row, "channel_id"),
			ChannelName: toStr(row, "channel_name"),
			Event:       toStr(row, "event"),
			Result: model.WebhookResult{
				Success:      toBool(row, "success"),
				StatusCode:   toInt(row, "status_code"),
				ResponseTime: int64(toInt(row, "response_time_ms")),
				Error:        toStr(row, "error"),
			},
			CreatedAt: toTime(row, "created_at"),
		}
		if s := toStr(row, "payload"); s != "" {
			json.Unmarshal([]byte(s), &entry.Payload)
		}
		out = append(out, entry)
	}
	return out, nil
}
