package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/leadhub/webhook"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of webhook.Repository
 * Uses Redis Hashes for destination configuration and counters
 * Uses a Sorted Set (scored by creation time) as the destination index
 * Uses Lists for the delivery log, one global and one per destination
 */

const (
	hashPrefix     = "destination"   // Hash naming: destination:{id}
	indexKey       = "destinations"  // Sorted set of destination IDs
	logKey         = "delivery_logs" // List of JSON rows, newest at the head
	logPrefix      = "delivery_logs" // Per destination list: delivery_logs:{destination_id}
	DefaultMaxLogs = 10000           // Lists are trimmed to this length on append
)

// incrementScript bumps a counter only if the destination still exists
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
if ARGV[2] ~= '' then
	redis.call('HSET', KEYS[1], 'last_triggered_at', ARGV[2])
end
return 1
`)

type Repository struct {
	client  *redis.Client
	maxLogs int64
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client:  client,
		maxLogs: DefaultMaxLogs,
	}, nil
}

func (r *Repository) Get(ctx context.Context, id string) (webhook.Destination, error) {
	data, err := r.client.HGetAll(ctx, destinationKey(id)).Result()
	if err != nil {
		return webhook.Destination{}, fmt.Errorf("getting destination: %w", err)
	}
	if len(data) == 0 {
		return webhook.Destination{}, fmt.Errorf("%w: destination %s", webhook.ErrNotFound, id)
	}
	return decodeDestination(data)
}

func (r *Repository) List(ctx context.Context) ([]webhook.Destination, error) {
	return r.list(ctx, false)
}

func (r *Repository) ListActive(ctx context.Context) ([]webhook.Destination, error) {
	return r.list(ctx, true)
}

func (r *Repository) list(ctx context.Context, activeOnly bool) ([]webhook.Destination, error) {
	ids, err := r.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading destination index: %w", err)
	}
	if len(ids) == 0 {
		return []webhook.Destination{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, destinationKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("reading destinations: %w", err)
	}

	out := make([]webhook.Destination, 0, len(ids))
	for _, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			continue // deleted between index read and fetch
		}
		d, err := decodeDestination(data)
		if err != nil {
			return nil, err
		}
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, d webhook.Destination) (webhook.Destination, error) {
	d.ID = uuid.NewString()
	d.SuccessCount = 0
	d.FailureCount = 0
	d.LastTriggeredAt = nil

	fields, err := encodeConfig(d)
	if err != nil {
		return webhook.Destination{}, err
	}
	fields["id"] = d.ID
	fields["success_count"] = 0
	fields["failure_count"] = 0
	fields["created_at"] = formatTime(d.CreatedAt)

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, destinationKey(d.ID), fields)
		pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(d.CreatedAt.UnixNano()), Member: d.ID})
		return nil
	})
	if err != nil {
		return webhook.Destination{}, fmt.Errorf("storing destination: %w", err)
	}
	return d, nil
}

func (r *Repository) Update(ctx context.Context, d webhook.Destination) error {
	exists, err := r.client.Exists(ctx, destinationKey(d.ID)).Result()
	if err != nil {
		return fmt.Errorf("checking destination: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: destination %s", webhook.ErrNotFound, d.ID)
	}

	fields, err := encodeConfig(d)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, destinationKey(d.ID), fields).Err(); err != nil {
		return fmt.Errorf("updating destination: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, destinationKey(id))
		pipe.ZRem(ctx, indexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting destination: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: destination %s", webhook.ErrNotFound, id)
	}
	return nil
}

// IncrementSuccess bumps success_count and sets last_triggered_at in one atomic step
func (r *Repository) IncrementSuccess(ctx context.Context, id string, at time.Time) error {
	err := incrementScript.Run(ctx, r.client, []string{destinationKey(id)}, "success_count", formatTime(at)).Err()
	if err != nil {
		return fmt.Errorf("incrementing success count: %w", err)
	}
	return nil
}

func (r *Repository) IncrementFailure(ctx context.Context, id string) error {
	err := incrementScript.Run(ctx, r.client, []string{destinationKey(id)}, "failure_count", "").Err()
	if err != nil {
		return fmt.Errorf("incrementing failure count: %w", err)
	}
	return nil
}

// Append pushes the row onto the global and per destination lists
func (r *Repository) Append(ctx context.Context, log webhook.DeliveryLog) (string, error) {
	log.ID = uuid.NewString()
	raw, err := json.Marshal(toRecord(log))
	if err != nil {
		return "", fmt.Errorf("marshaling delivery log: %w", err)
	}

	perDestination := fmt.Sprintf("%s:%s", logPrefix, log.DestinationID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, logKey, raw)
		pipe.LTrim(ctx, logKey, 0, r.maxLogs-1)
		pipe.LPush(ctx, perDestination, raw)
		pipe.LTrim(ctx, perDestination, 0, r.maxLogs-1)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("appending delivery log: %w", err)
	}
	return log.ID, nil
}

func (r *Repository) ListRecent(ctx context.Context, q webhook.LogQuery) ([]webhook.DeliveryLog, error) {
	key := logKey
	if q.DestinationID != "" {
		key = fmt.Sprintf("%s:%s", logPrefix, q.DestinationID)
	}
	stop := int64(-1)
	if q.Limit > 0 {
		stop = int64(q.Limit) - 1
	}

	rows, err := r.client.LRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("reading delivery logs: %w", err)
	}

	out := make([]webhook.DeliveryLog, 0, len(rows))
	for _, row := range rows {
		var rec logRecord
		if err := json.Unmarshal([]byte(row), &rec); err != nil {
			return nil, fmt.Errorf("unmarshaling delivery log: %w", err)
		}
		out = append(out, rec.toLog())
	}
	return out, nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

// Helper functions

func destinationKey(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

func encodeConfig(d webhook.Destination) (map[string]interface{}, error) {
	sendFields, err := json.Marshal(d.SendFields)
	if err != nil {
		return nil, fmt.Errorf("marshaling send fields: %w", err)
	}
	customFields, err := json.Marshal(toCustomFieldRecords(d.CustomFields))
	if err != nil {
		return nil, fmt.Errorf("marshaling custom fields: %w", err)
	}
	return map[string]interface{}{
		"name":          d.Name,
		"url":           d.URL,
		"is_active":     strconv.FormatBool(d.IsActive),
		"send_fields":   string(sendFields),
		"custom_fields": string(customFields),
		"updated_at":    formatTime(d.UpdatedAt),
	}, nil
}

func decodeDestination(data map[string]string) (webhook.Destination, error) {
	d := webhook.Destination{
		ID:           data["id"],
		Name:         data["name"],
		URL:          data["url"],
		IsActive:     data["is_active"] == "true",
		SuccessCount: parseInt64(data["success_count"]),
		FailureCount: parseInt64(data["failure_count"]),
		CreatedAt:    parseTime(data["created_at"]),
		UpdatedAt:    parseTime(data["updated_at"]),
	}

	if raw := data["send_fields"]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &d.SendFields); err != nil {
			return webhook.Destination{}, fmt.Errorf("unmarshaling send fields: %w", err)
		}
	}
	if raw := data["custom_fields"]; raw != "" && raw != "null" {
		var records []customFieldRecord
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			return webhook.Destination{}, fmt.Errorf("unmarshaling custom fields: %w", err)
		}
		d.CustomFields = fromCustomFieldRecords(records)
	}
	if raw := data["last_triggered_at"]; raw != "" {
		at := parseTime(raw)
		d.LastTriggeredAt = &at
	}
	return d, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

var _ webhook.Repository = (*Repository)(nil)
