package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotnotify/lotbridge/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_AppendAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Append(ctx, model.HistoryEntry{
		LotID:   "81234567",
		Source:  "botA",
		Stage:   model.StageTG,
		Status:  model.StatusSent,
		Title:   "2019 DODGE CHARGER",
		State:   "MI",
		Price:   9500,
		Payload: []byte(`{"lot_id":"81234567"}`),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := s.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "81234567", e.LotID)
	assert.Equal(t, model.StageTG, e.Stage)
	assert.Equal(t, model.StatusSent, e.Status)
	assert.Equal(t, "2019 DODGE CHARGER", e.Title)
	assert.Equal(t, 9500.0, e.Price)
	assert.JSONEq(t, `{"lot_id":"81234567"}`, string(e.Payload))
	assert.False(t, e.TS.IsZero())
}

func TestSQLite_HistoryOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, model.HistoryEntry{
			LotID:  "lot",
			Stage:  model.StageRaw,
			Status: model.StatusReceived,
			Reason: string(rune('a' + i)),
			TS:     base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	entries, err := s.History(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e", entries[0].Reason)
	assert.Equal(t, "d", entries[1].Reason)
}

func TestSQLite_RawEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, model.HistoryEntry{
		LotID: "1", Stage: model.StageRaw, Status: model.StatusReceived,
		Payload: []byte(`{"lot_id":"1"}`),
	})
	require.NoError(t, err)
	_, err = s.Append(ctx, model.HistoryEntry{
		LotID: "1", Stage: model.StageTG, Status: model.StatusSent,
	})
	require.NoError(t, err)

	raw, err := s.RawEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, model.StageRaw, raw[0].Stage)
}

func TestSQLite_Catalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, e := range []model.HistoryEntry{
		{LotID: "1", Stage: model.StageRaw, Status: model.StatusReceived, Seller: "Progressive", State: "MI", Source: "botA", MileageStatus: "ACTUAL"},
		{LotID: "2", Stage: model.StageRaw, Status: model.StatusReceived, Seller: "Geico", State: "TX", Source: "botB"},
		{LotID: "3", Stage: model.StageRaw, Status: model.StatusReceived, Seller: "Progressive", State: "MI"},
	} {
		_, err := s.Append(ctx, e)
		require.NoError(t, err)
	}

	cat, err := s.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Geico", "Progressive"}, cat.Sellers)
	assert.Equal(t, []string{"MI", "TX"}, cat.States)
	assert.Equal(t, []string{"botA", "botB"}, cat.Sources)
	assert.Equal(t, []string{"ACTUAL"}, cat.MileageStatus)
	assert.Empty(t, cat.TitleTypes)
}

func TestSQLite_Status(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.LastLotTS)
	assert.Zero(t, st.Total)

	_, err = s.Append(ctx, model.HistoryEntry{LotID: "1", Stage: model.StageTG, Status: model.StatusSent})
	require.NoError(t, err)
	_, err = s.Append(ctx, model.HistoryEntry{LotID: "2", Stage: model.StageFilter, Status: model.StatusSkip})
	require.NoError(t, err)

	st, err = s.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.LastLotTS)
	assert.Equal(t, int64(1), st.SentToday)
	assert.Equal(t, int64(1), st.SkippedToday)
	assert.Equal(t, int64(2), st.Total)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), configStore("mysql", ""))
	assert.Error(t, err)
}

func TestNew_SQLiteDefault(t *testing.T) {
	s, err := New(context.Background(), configStore("", filepath.Join(t.TempDir(), "x.db")))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
