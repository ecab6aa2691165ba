package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daycare/internal/core"
)

func TestSettingsDefaults(t *testing.T) {
	env := newTestEnv(t)
	got, err := env.svc.Settings.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, len(core.DefaultSettings))
	assert.Equal(t, "rsge", got["daycare_type"])
	assert.Equal(t, "80", got["home_usage"])
}

func TestSettingsUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var values map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"daycare_name": "Les Petits Pas",
		"home_usage": 65,
		"car_usage": 12.5,
		"accepts_subsidy": true,
		"neq_number": null,
		"bad key!": "x",
		"nested": {"a": 1}
	}`), &values))

	res, err := env.svc.Settings.Update(ctx, values)
	require.NoError(t, err)
	assert.Equal(t, []string{"accepts_subsidy", "car_usage", "daycare_name", "home_usage", "neq_number"}, res.Updated)
	assert.Equal(t, []string{"bad key!", "nested"}, res.Rejected)

	got, err := env.svc.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Les Petits Pas", got["daycare_name"])
	assert.Equal(t, "65", got["home_usage"])
	assert.Equal(t, "12.5", got["car_usage"])
	assert.Equal(t, "true", got["accepts_subsidy"])
	assert.Equal(t, "", got["neq_number"])
	assert.NotContains(t, got, "bad key!")
	assert.Len(t, got, len(core.DefaultSettings)+1)
}

func TestSettingsUpdateEmpty(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Settings.Update(context.Background(), map[string]any{})
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestSettingValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{nil, "", true},
		{"x", "x", true},
		{false, "false", true},
		{float64(80), "80", true},
		{0.1, "0.1", true},
		{json.Number("3.50"), "3.5", true},
		{[]any{1}, "", false},
	}
	for _, tt := range tests {
		got, ok := settingValue(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
