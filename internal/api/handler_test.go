package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/macrotrack/internal/api"
	"github.com/2beens/macrotrack/internal/autosync"
	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/persistence"
	"github.com/2beens/macrotrack/internal/targets"
	"github.com/2beens/macrotrack/internal/telemetry/metrics"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-redis/redis_rate/v9"
	"github.com/go-redis/redismock/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

type allowAllLimiter struct {
	calls int
}

func (l *allowAllLimiter) Allow(_ context.Context, _ string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	l.calls++
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: limit.Burst - 1}, nil
}

type testEnv struct {
	router         *mux.Router
	store          *diary.Store
	scheduler      *MocksyncScheduler
	loader         *MocksnapshotLoader
	redisMock      redismock.ClientMock
	limiter        *allowAllLimiter
	metricsManager *metrics.Manager
}

func newTestEnv(t *testing.T, hydrate bool) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	store := diary.NewStore()
	if hydrate {
		require.NoError(t, store.Hydrate(diary.DefaultSnapshot()))
	}

	rdb, redisMock := redismock.NewClientMock()
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	env := &testEnv{
		router:         mux.NewRouter(),
		store:          store,
		scheduler:      NewMocksyncScheduler(ctrl),
		loader:         NewMocksnapshotLoader(ctrl),
		redisMock:      redisMock,
		limiter:        &allowAllLimiter{},
		metricsManager: metrics.NewTestManager(),
	}

	handler := api.NewHandler(api.NewHandlerParams{
		Store:          store,
		Scheduler:      env.scheduler,
		Loader:         env.loader,
		Redis:          rdb,
		MetricsManager: env.metricsManager,
	})
	handler.SetupRoutes(env.router, env.limiter, 10)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequest(method, path, &reqBody)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func ptr[T any](v T) *T {
	return &v
}

func TestHandler_NotReady(t *testing.T) {
	env := newTestEnv(t, false)

	rr := env.do(t, "GET", "/products", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"error":"loading"}`, rr.Body.String())

	env.store.MarkFailed(&persistence.ConnectionError{Op: "load", Err: errors.New("refused")})
	rr = env.do(t, "POST", "/entries", map[string]any{"name": "x", "category": "lunch", "weight": 10})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"error":"connection"}`, rr.Body.String())

	env.store.MarkFailed(errors.New("bad rows"))
	rr = env.do(t, "GET", "/summary/day", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"error":"failed"}`, rr.Body.String())

	// manual save is refused too
	rr = env.do(t, "POST", "/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHandler_Profiles(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.do(t, "GET", "/profiles", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[api.ListProfilesResponse](t, rr)
	require.Len(t, list.Profiles, 1)
	assert.Equal(t, diary.DefaultProfileID, list.ActiveProfileID)

	// missing stats
	rr = env.do(t, "POST", "/profiles", map[string]any{"name": "Ana"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "POST", "/profiles", api.ProfileRequest{
		Name:          "Ana",
		Age:           ptr(28),
		Weight:        ptr(60.0),
		Height:        ptr(165.0),
		Gender:        targets.GenderFemale,
		ActivityLevel: ptr(targets.ActivityModerate),
		Goal:          targets.GoalCut,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	ana := decode[diary.Profile](t, rr)
	assert.NotEmpty(t, ana.ID)
	assert.Equal(t, targets.Calculate(ana.Stats), ana.Targets)

	rr = env.do(t, "PUT", "/profiles/"+ana.ID, map[string]any{"weight": 58.5})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[diary.Profile](t, rr)
	assert.Equal(t, 58.5, updated.Stats.Weight)
	assert.Equal(t, "Ana", updated.Name)
	assert.Equal(t, targets.Calculate(updated.Stats), updated.Targets)

	rr = env.do(t, "PUT", "/profiles/"+ana.ID, map[string]any{"goal": "shred"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = env.do(t, "PUT", "/profiles/"+ana.ID, map[string]any{"unknown": 1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = env.do(t, "PUT", "/profiles/nope", map[string]any{"weight": 50})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, "POST", "/profiles/"+ana.ID+"/targets", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "DELETE", "/profiles/"+ana.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ana.ID, decode[api.IDResponse](t, rr).ID)
	rr = env.do(t, "DELETE", "/profiles/"+ana.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.True(t, env.store.Pending().Collections[diary.CollectionProfiles])
}

func TestHandler_ProductsAndEntries(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.do(t, "POST", "/products", map[string]any{"name": "Oats", "calories": 380, "protein": 13})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"fat missing"}`, rr.Body.String())

	rr = env.do(t, "POST", "/products", api.ProductRequest{
		Name:     "Oats",
		Brand:    gofakeit.Company(),
		Calories: ptr(380.0),
		Protein:  ptr(13.0),
		Fat:      ptr(7.0),
		Carbs:    ptr(60.0),
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	oats := decode[diary.Product](t, rr)

	rr = env.do(t, "GET", "/products/"+oats.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, "GET", "/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// macros derived from the product, per 100g
	rr = env.do(t, "POST", "/entries", api.EntryRequest{
		ProductID: oats.ID,
		Date:      "2024-03-04",
		Category:  diary.CategoryBreakfast,
		Weight:    50,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	entry := decode[diary.MealEntry](t, rr)
	assert.Equal(t, "Oats", entry.Name)
	assert.InDelta(t, 190.0, entry.Calories, 0.001)
	assert.InDelta(t, 30.0, entry.Carbs, 0.001)
	assert.Equal(t, diary.DefaultProfileID, entry.ProfileID)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metricsManager.CounterEntriesLogged))

	// a product with only some macros overridden is rejected, nothing is logged
	rr = env.do(t, "POST", "/entries", api.EntryRequest{
		ProductID: oats.ID,
		Date:      "2024-03-04",
		Category:  diary.CategoryBreakfast,
		Weight:    50,
		Calories:  ptr(150.0),
		Protein:   ptr(5.0),
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"all four macros or none required"}`, rr.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metricsManager.CounterEntriesLogged))

	rr = env.do(t, "POST", "/entries", api.EntryRequest{
		Name:     "Coffee",
		Date:     "2024-03-04",
		Category: "snack",
		Weight:   200,
		Calories: ptr(2.0), Protein: ptr(0.0), Fat: ptr(0.0), Carbs: ptr(0.0),
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = env.do(t, "POST", "/entries", api.EntryRequest{Name: "Coffee", Category: diary.CategoryLunch, Weight: 200})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = env.do(t, "POST", "/entries", api.EntryRequest{ProductID: oats.ID, Category: diary.CategoryLunch, Weight: 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "PUT", "/entries/"+entry.ID, api.UpdateEntryRequest{Weight: 100})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.InDelta(t, 380.0, decode[diary.MealEntry](t, rr).Calories, 0.001)

	rr = env.do(t, "GET", "/entries?date=2024-03-04", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entries := decode[api.ListEntriesResponse](t, rr)
	require.Len(t, entries.Entries, 1)
	assert.Equal(t, diary.DefaultProfileID, entries.ProfileID)

	rr = env.do(t, "GET", "/entries?date=2024-03-05", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[api.ListEntriesResponse](t, rr).Entries)

	// deleting the product keeps the logged entry
	rr = env.do(t, "DELETE", "/products/"+oats.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, "GET", "/entries?date=2024-03-04", nil)
	assert.Len(t, decode[api.ListEntriesResponse](t, rr).Entries, 1)

	rr = env.do(t, "DELETE", "/entries/"+entry.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, "DELETE", "/entries/"+entry.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Sets(t *testing.T) {
	env := newTestEnv(t, true)

	var productIDs []string
	for i := 0; i < 2; i++ {
		id, err := env.store.AddProduct(diary.Product{
			Name:     gofakeit.Fruit(),
			Calories: 100,
			Protein:  10,
			Fat:      5,
			Carbs:    20,
		})
		require.NoError(t, err)
		productIDs = append(productIDs, id)
	}

	rr := env.do(t, "POST", "/sets", api.SetRequest{Name: "Bowl", Items: []diary.SetItem{{ProductID: productIDs[0], Weight: -1}}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "POST", "/sets", api.SetRequest{
		Name: "Bowl",
		Items: []diary.SetItem{
			{ProductID: productIDs[0], Weight: 200},
			{ProductID: productIDs[1], Weight: 50},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	set := decode[diary.ProductSet](t, rr)

	rr = env.do(t, "GET", "/sets/"+set.ID+"/totals", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	totals := decode[diary.Macros](t, rr)
	assert.InDelta(t, 250.0, totals.Calories, 0.001)
	assert.InDelta(t, 50.0, totals.Carbs, 0.001)

	rr = env.do(t, "GET", "/sets", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sets := decode[api.ListSetsResponse](t, rr)
	require.Equal(t, 1, sets.Total)
	assert.InDelta(t, 250.0, sets.Sets[0].Totals.Calories, 0.001)

	rr = env.do(t, "POST", "/sets/"+set.ID+"/log", api.LogSetRequest{Date: "2024-03-04", Category: diary.CategoryDinner})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Len(t, decode[api.LogSetResponse](t, rr).EntryIDs, 2)
	assert.Len(t, env.store.EntriesFor(diary.DefaultProfileID, "2024-03-04"), 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metricsManager.CounterEntriesLogged))

	rr = env.do(t, "POST", "/sets/"+set.ID+"/log", api.LogSetRequest{Category: "brunch"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "PUT", "/sets/"+set.ID, api.SetRequest{Name: "Small bowl", Items: set.Items[:1]})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Small bowl", decode[diary.ProductSet](t, rr).Name)

	rr = env.do(t, "DELETE", "/sets/"+set.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, "GET", "/sets/"+set.ID+"/totals", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_SelectionAndMeasurements(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.do(t, "PUT", "/selection/date", api.SetDateRequest{Date: "04.03.2024"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "PUT", "/selection/date", api.SetDateRequest{Date: "2024-03-04"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2024-03-04", decode[diary.Selection](t, rr).Date)

	rr = env.do(t, "PUT", "/selection/profile", api.SetActiveProfileRequest{ProfileID: "ghost"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, "PUT", "/selection/mode", api.SetSelectionModeRequest{Active: true, Category: diary.CategoryLunch})
	require.Equal(t, http.StatusOK, rr.Code)
	mode := decode[diary.Selection](t, rr).Mode
	assert.True(t, mode.Active)
	assert.Equal(t, diary.CategoryLunch, mode.Category)

	rr = env.do(t, "PUT", "/selection/editing", api.SetEditingRequest{Product: &diary.Product{Name: "draft"}})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, decode[diary.Selection](t, rr).EditingProduct)

	rr = env.do(t, "PUT", "/selection/editing", api.SetEditingRequest{})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode[diary.Selection](t, rr).EditingProduct)

	// selection changes are not persisted
	assert.False(t, env.store.HasPending())

	// measurement date defaults to the selected one
	rr = env.do(t, "POST", "/measurements", api.MeasurementRequest{Weight: 74.2, Waist: ptr(82.0)})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	m := decode[diary.Measurement](t, rr)
	assert.Equal(t, "2024-03-04", m.Date)

	rr = env.do(t, "POST", "/measurements", api.MeasurementRequest{Weight: 74.2, Chest: ptr(-1.0)})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, "PUT", "/measurements/"+m.ID, api.MeasurementRequest{Weight: 73.9})
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[diary.Measurement](t, rr)
	assert.Equal(t, 73.9, updated.Weight)
	assert.Nil(t, updated.Waist)
	assert.Equal(t, "2024-03-04", updated.Date)

	rr = env.do(t, "GET", "/measurements", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[api.ListMeasurementsResponse](t, rr).Measurements, 1)

	rr = env.do(t, "DELETE", "/measurements/"+m.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, "PUT", "/measurements/"+m.ID, api.MeasurementRequest{Weight: 70})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Summaries(t *testing.T) {
	env := newTestEnv(t, true)
	_, err := env.store.AddEntry(diary.MealEntry{
		Name: "Rice", Date: "2024-03-06", Category: diary.CategoryLunch, Weight: 100,
		Calories: 130, Protein: 3, Fat: 0.3, Carbs: 28,
	})
	require.NoError(t, err)

	rr := env.do(t, "GET", "/summary/day?date=2024-03-06", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	day := decode[diary.DaySummary](t, rr)
	assert.InDelta(t, 130.0, day.Total.Calories, 0.001)
	assert.Equal(t, 1, day.EntryCount)

	// served from cache until the next mutation
	cached := env.do(t, "GET", "/summary/day?date=2024-03-06", nil)
	assert.Equal(t, rr.Body.String(), cached.Body.String())

	_, err = env.store.AddEntry(diary.MealEntry{
		Name: "Egg", Date: "2024-03-06", Category: diary.CategoryBreakfast, Weight: 50,
		Calories: 70, Protein: 6, Fat: 5, Carbs: 0,
	})
	require.NoError(t, err)
	rr = env.do(t, "GET", "/summary/day?date=2024-03-06", nil)
	assert.InDelta(t, 200.0, decode[diary.DaySummary](t, rr).Total.Calories, 0.001)

	rr = env.do(t, "GET", "/summary/week?date=2024-03-06", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	week := decode[diary.WeekSummary](t, rr)
	assert.Equal(t, "2024-03-04", week.WeekStart)
	assert.Equal(t, 1, week.DaysLogged)

	rr = env.do(t, "GET", "/summary/day?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = env.do(t, "GET", "/summary/week?date=2024-03-06&profile=ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_SyncNow(t *testing.T) {
	env := newTestEnv(t, true)
	status := autosync.Status{State: "idle", SyncCount: 1}

	env.scheduler.EXPECT().FlushNow(gomock.Any()).Return(nil)
	env.scheduler.EXPECT().Status().Return(status)
	rr := env.do(t, "POST", "/sync", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, decode[api.SyncStatusResponse](t, rr).Scheduler.SyncCount)
	assert.Equal(t, 1, env.limiter.calls)

	env.scheduler.EXPECT().FlushNow(gomock.Any()).Return(autosync.ErrSyncInProgress)
	rr = env.do(t, "POST", "/sync", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	env.scheduler.EXPECT().FlushNow(gomock.Any()).Return(&persistence.ConnectionError{Op: "sync", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}})
	rr = env.do(t, "POST", "/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	env.scheduler.EXPECT().FlushNow(gomock.Any()).Return(&persistence.SyncError{Collection: diary.CollectionEntries, Err: errors.New("constraint")})
	rr = env.do(t, "POST", "/sync", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "sync entries")

	env.scheduler.EXPECT().Status().Return(status)
	rr = env.do(t, "GET", "/sync", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ready", decode[api.SyncStatusResponse](t, rr).StoreStatus)
}

func TestHandler_Reload(t *testing.T) {
	env := newTestEnv(t, false)

	env.loader.EXPECT().LoadAll(gomock.Any()).Return(nil, &persistence.ConnectionError{Op: "load", Err: errors.New("refused")})
	rr := env.do(t, "POST", "/reload", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"error":"connection"}`, rr.Body.String())
	status, _ := env.store.Status()
	assert.Equal(t, diary.StatusFailed, status)

	loaded := diary.DefaultSnapshot()
	loaded.Products = append(loaded.Products, diary.Product{ID: "p1", Name: "Milk", Calories: 64})
	env.loader.EXPECT().LoadAll(gomock.Any()).Return(loaded, nil)
	rr = env.do(t, "POST", "/reload", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	state := decode[api.StateResponse](t, rr)
	assert.Equal(t, "ready", state.Status)
	require.Len(t, state.Data.Products, 1)

	// unsaved changes block a reload
	_, err := env.store.AddProduct(diary.Product{Name: "Bread"})
	require.NoError(t, err)
	rr = env.do(t, "POST", "/reload", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandler_ReloadSeedsProfileAndNotifies(t *testing.T) {
	env := newTestEnv(t, false)
	notified := make(chan struct{}, 1)
	// stands in for the autosync scheduler, subscribed the same way the server does
	env.store.Subscribe(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	env.loader.EXPECT().LoadAll(gomock.Any()).Return(&diary.Snapshot{
		Entries: []diary.MealEntry{{
			ID:        "e1",
			ProfileID: diary.DefaultProfileID,
			Name:      "oats",
			Date:      "2024-03-11",
			Category:  diary.CategoryBreakfast,
			Weight:    60,
			Calories:  228,
		}},
	}, nil)
	rr := env.do(t, "POST", "/reload", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	state := decode[api.StateResponse](t, rr)
	require.Len(t, state.Data.Profiles, 1)
	assert.Equal(t, diary.DefaultProfileID, state.Selection.ActiveProfileID)
	assert.True(t, state.Pending.UnsavedChanges)
	assert.True(t, state.Pending.Collections[diary.CollectionProfiles])

	select {
	case <-notified:
	default:
		t.Fatal("seeded profile did not notify observers")
	}
}

func TestHandler_Health(t *testing.T) {
	env := newTestEnv(t, true)

	env.loader.EXPECT().Ping(gomock.Any()).Return(nil)
	env.redisMock.ExpectPing().SetVal("PONG")
	rr := env.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, api.HealthResponse{Store: "ready", Backend: "ok", Redis: "ok"}, decode[api.HealthResponse](t, rr))

	// redis down is reported but not fatal
	env.loader.EXPECT().Ping(gomock.Any()).Return(nil)
	env.redisMock.ExpectPing().SetErr(errors.New("redis down"))
	rr = env.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "redis down", decode[api.HealthResponse](t, rr).Redis)

	env.loader.EXPECT().Ping(gomock.Any()).Return(fmt.Errorf("ping: %w", context.DeadlineExceeded))
	env.redisMock.ExpectPing().SetVal("PONG")
	rr = env.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	require.NoError(t, env.redisMock.ExpectationsWereMet())
}

func TestHandler_State(t *testing.T) {
	env := newTestEnv(t, true)
	_, err := env.store.AddProduct(diary.Product{Name: "Apple", UpdatedAt: time.Now()})
	require.NoError(t, err)

	rr := env.do(t, "GET", "/state", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	state := decode[api.StateResponse](t, rr)
	assert.Equal(t, "ready", state.Status)
	assert.Len(t, state.Data.Products, 1)
	assert.True(t, state.Pending.UnsavedChanges)
	assert.True(t, state.Pending.Collections[diary.CollectionProducts])
	assert.Equal(t, diary.DefaultProfileID, state.Selection.ActiveProfileID)
}
