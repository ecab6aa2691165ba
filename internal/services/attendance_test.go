package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daycare/internal/core"
)

func createChildren(t *testing.T, env *testEnv, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		c, err := env.svc.Children.Create(context.Background(), ChildInput{FirstName: "Kid", LastName: itoa(int64(i))})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	return ids
}

func TestAttendanceSaveIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := createChildren(t, env, 1)
	key := itoa(ids[0])

	_, err := env.svc.Attendance.Save(ctx, "2024-02-12", map[string]EntryInput{key: {Status: "present"}})
	require.NoError(t, err)
	res, err := env.svc.Attendance.Save(ctx, "2024-02-12", map[string]EntryInput{key: {Status: "sick", Notes: "fever"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)

	got, err := env.svc.Attendance.Get(ctx, "2024-02-12")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.AttendanceSick, got[ids[0]].Status)
	require.NotNil(t, got[ids[0]].Notes)
	assert.Equal(t, "fever", *got[ids[0]].Notes)
}

func TestAttendanceBatchSkipsBadEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := createChildren(t, env, 4)

	entries := map[string]EntryInput{
		"abc": {Status: "present"},
	}
	for _, id := range ids {
		entries[itoa(id)] = EntryInput{Status: "present"}
	}

	res, err := env.svc.Attendance.Save(ctx, "2024-02-12", entries)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Saved)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "abc", res.Skipped[0].ChildID)

	got, err := env.svc.Attendance.Get(ctx, "2024-02-12")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestAttendanceSkipReasons(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := createChildren(t, env, 2)

	res, err := env.svc.Attendance.Save(ctx, "2024-02-13", map[string]EntryInput{
		itoa(ids[0]): {Status: "late"},
		itoa(ids[1]): {Status: ""},
		"-3":         {Status: "present"},
		"9999":       {Status: "present"},
		"42":         {Status: "on_the_moon"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)

	reasons := map[string]string{}
	for _, s := range res.Skipped {
		reasons[s.ChildID] = s.Reason
	}
	assert.Len(t, reasons, 3, "empty status is ignored without a report")
	assert.Contains(t, reasons["-3"], "positive integer")
	assert.Equal(t, "child does not exist", reasons["9999"])
	assert.Contains(t, reasons["42"], "unknown status")

	got, err := env.svc.Attendance.Get(ctx, "2024-02-13")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, core.AttendanceLate, got[ids[0]].Status)
}

func TestAttendanceDateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, date := range []string{"", "2024-13-01", "12/02/2024", "2023-02-29"} {
		_, err := env.svc.Attendance.Get(ctx, date)
		assert.ErrorIs(t, err, core.ErrValidation, date)
		_, err = env.svc.Attendance.Save(ctx, date, map[string]EntryInput{"1": {Status: "present"}})
		assert.ErrorIs(t, err, core.ErrValidation, date)
	}

	res, err := env.svc.Attendance.Save(ctx, "2024-02-29", nil)
	require.NoError(t, err)
	assert.Zero(t, res.Saved)
	assert.Empty(t, res.Skipped)
}
