package services

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"daycare/internal/core"
	applog "daycare/internal/log"
	"daycare/internal/storage"
)

// SettingsResult lists which keys were written and which were refused.
type SettingsResult struct {
	Updated  []string `json:"updated"`
	Rejected []string `json:"rejected"`
}

type SettingsService struct {
	store  *storage.Store
	logger *applog.Logger
}

func (s *SettingsService) Get(ctx context.Context) (map[string]string, error) {
	rows, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// Update upserts every valid key in one transaction. Keys that are not made
// of letters, digits and underscores, and values that are objects or lists,
// are skipped and reported.
func (s *SettingsService) Update(ctx context.Context, values map[string]any) (SettingsResult, error) {
	if len(values) == 0 {
		return SettingsResult{}, core.Validation("no settings provided", nil)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := SettingsResult{Updated: []string{}, Rejected: []string{}}
	settings := make([]core.Setting, 0, len(keys))
	for _, key := range keys {
		if !core.ValidSettingKey(key) {
			s.logger.WarnContext(ctx, "Setting key rejected", "key", key, "reason", "invalid key")
			result.Rejected = append(result.Rejected, key)
			continue
		}
		value, ok := settingValue(values[key])
		if !ok {
			s.logger.WarnContext(ctx, "Setting key rejected", "key", key, "reason", "unsupported value")
			result.Rejected = append(result.Rejected, key)
			continue
		}
		settings = append(settings, core.Setting{Key: key, Value: value})
		result.Updated = append(result.Updated, key)
	}

	if len(settings) > 0 {
		if err := s.store.UpsertSettings(ctx, settings); err != nil {
			return SettingsResult{}, err
		}
	}
	s.logger.InfoContext(ctx, "Settings saved",
		applog.FieldOperation, applog.OpSave,
		"updated", len(result.Updated),
		"rejected", len(result.Rejected))
	return result, nil
}

// settingValue renders a decoded JSON scalar as it is stored.
func settingValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}
