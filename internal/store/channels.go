package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"landsmon/internal/model"
	"landsmon/internal/notify"
)

// ChannelStore is the durable notify.ChannelStore backed by _webhook_configs.
type ChannelStore struct {
	s *Store
}

func NewChannelStore(s *Store) *ChannelStore {
	return &ChannelStore{s: s}
}

var _ notify.ChannelStore = (*ChannelStore)(nil)

const channelCols = "id, name, url, secret, events, is_active, retry_count, retry_delay, headers, format, last_triggered, last_status, created_at"

func (st *ChannelStore) List(ctx context.Context) ([]model.WebhookConfig, error) {
	rows, err := QueryRows(ctx, st.s.DB,
		fmt.Sprintf("SELECT %s FROM _webhook_configs ORDER BY position", channelCols))
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	out := make([]model.WebhookConfig, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowChannel(row))
	}
	return out, nil
}

func (st *ChannelStore) Get(ctx context.Context, id string) (model.WebhookConfig, error) {
	pb := st.s.Dialect.NewParamBuilder()
	row, err := QueryRow(ctx, st.s.DB,
		fmt.Sprintf("SELECT %s FROM _webhook_configs WHERE id = %s", channelCols, pb.Add(id)),
		pb.Params()...)
	if err == ErrNotFound {
		return model.WebhookConfig{}, notify.ErrChannelNotFound
	}
	if err != nil {
		return model.WebhookConfig{}, fmt.Errorf("get channel %s: %w", id, err)
	}
	return rowChannel(row), nil
}

func (st *ChannelStore) Insert(ctx context.Context, ch model.WebhookConfig) error {
	eventsJSON, _ := json.Marshal(ch.Events)
	headersJSON, _ := json.Marshal(ch.Headers)
	pb := st.s.Dialect.NewParamBuilder()
	_, err := Exec(ctx, st.s.DB, fmt.Sprintf(
		`INSERT INTO _webhook_configs (id, name, url, secret, events, is_active, retry_count, retry_delay, headers, format, position, last_triggered, last_status, created_at)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, (SELECT COALESCE(MAX(position), 0) + 1 FROM _webhook_configs c2), %s, %s, %s)`,
		pb.Add(ch.ID), pb.Add(ch.Name), pb.Add(ch.URL), pb.Add(ch.Secret), pb.Add(string(eventsJSON)),
		pb.Add(ch.IsActive), pb.Add(ch.RetryCount), pb.Add(ch.RetryDelay), pb.Add(string(headersJSON)),
		pb.Add(ch.Format), pb.Add(ch.LastTriggered), pb.Add(ch.LastStatus), pb.Add(ch.CreatedAt)),
		pb.Params()...)
	if err != nil {
		return st.s.Dialect.MapError(err)
	}
	return nil
}

func (st *ChannelStore) Update(ctx context.Context, ch model.WebhookConfig) error {
	eventsJSON, _ := json.Marshal(ch.Events)
	headersJSON, _ := json.Marshal(ch.Headers)
	pb := st.s.Dialect.NewParamBuilder()
	n, err := Exec(ctx, st.s.DB, fmt.Sprintf(
		`UPDATE _webhook_configs
		 SET name = %s, url = %s, secret = %s, events = %s, is_active = %s,
		     retry_count = %s, retry_delay = %s, headers = %s, format = %s
		 WHERE id = %s`,
		pb.Add(ch.Name), pb.Add(ch.URL), pb.Add(ch.Secret), pb.Add(string(eventsJSON)),
		pb.Add(ch.IsActive), pb.Add(ch.RetryCount), pb.Add(ch.RetryDelay),
		pb.Add(string(headersJSON)), pb.Add(ch.Format), pb.Add(ch.ID)),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("update channel %s: %w", ch.ID, err)
	}
	if n == 0 {
		return notify.ErrChannelNotFound
	}
	return nil
}

func (st *ChannelStore) Delete(ctx context.Context, id string) (bool, error) {
	pb := st.s.Dialect.NewParamBuilder()
	n, err := Exec(ctx, st.s.DB,
		fmt.Sprintf("DELETE FROM _webhook_configs WHERE id = %s", pb.Add(id)),
		pb.Params()...)
	if err != nil {
		return false, fmt.Errorf("delete channel %s: %w", id, err)
	}
	return n > 0, nil
}

func (st *ChannelStore) RecordResult(ctx context.Context, id string, at time.Time, status string) error {
	pb := st.s.Dialect.NewParamBuilder()
	n, err := Exec(ctx, st.s.DB,
		fmt.Sprintf("UPDATE _webhook_configs SET last_triggered = %s, last_status = %s WHERE id = %s",
			pb.Add(at), pb.Add(status), pb.Add(id)),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("record result for channel %s: %w", id, err)
	}
	if n == 0 {
		return notify.ErrChannelNotFound
	}
	return nil
}

func rowChannel(row map[string]any) model.WebhookConfig {
	ch := model.WebhookConfig{
		ID:            toStr(row, "id"),
		Name:          toStr(row, "name"),
		URL:           toStr(row, "url"),
		Secret:        toStr(row, "secret"),
		IsActive:      toBool(row, "is_active"),
		RetryCount:    toInt(row, "retry_count"),
		RetryDelay:    toInt(row, "retry_delay"),
		Format:        toStr(row, "format"),
		LastTriggered: toTimePtr(row, "last_triggered"),
		LastStatus:    toStr(row, "last_status"),
		CreatedAt:     toTime(row, "created_at"),
	}
	if s := toStr(row, "events"); s != "" {
		json.Unmarshal([]byte(s), &ch.Events)
	}
	if s := toStr(row, "headers"); s != "" && s != "null" {
		json.Unmarshal([]byte(s), &ch.Headers)
	}
	return ch
}
