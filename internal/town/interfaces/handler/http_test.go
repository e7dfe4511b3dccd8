package handler

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/shared/security"
	"Paddlers/internal/shared/transport"
	shttp "Paddlers/internal/shared/transport/http"
	townactor "Paddlers/internal/town/actor"
	"Paddlers/internal/town/actors"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/internal/town/infra/persistence/memory"
	"Paddlers/internal/town/service"
	"Paddlers/modules/kit/logx"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type apiFixture struct {
	srv     *shttp.Server
	store   *memory.TownRepository
	village int64
	token   string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "handler-test")

	store := memory.NewTownRepository()
	town := service.NewTown(store, &domain.FixedClock{T: t0}, logx.Nop())
	p := store.AddPlayer(domain.Player{})
	pid := p.ID
	v := store.AddVillage(domain.Village{PlayerID: &pid})

	rt := townactor.NewRuntime(town, actors.Config{Shards: 1}, logx.Nop(), time.Second)
	t.Cleanup(rt.Shutdown)

	srv := shttp.NewHttpServer(":0", gin.New(), nil)
	NewHttpHandler(rt, nil).RegisterRoutes(srv.API())

	token, err := security.Award(p.ID, time.Hour)
	require.NoError(t, err)
	return &apiFixture{srv: srv, store: store, village: v.ID, token: token}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, transport.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)

	var resp transport.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func villagePath(id int64, rest string) string {
	return "/api/v1/villages/" + itoa(id) + rest
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestHttp_提交任务(t *testing.T) {
	f := newAPI(t)
	w := f.store.AddWorker(domain.Worker{VillageID: f.village, X: 0, Y: 3, Speed: 1, Level: 1})

	rec, resp := f.do(t, nethttp.MethodPost, villagePath(f.village, "/workers/"+itoa(w.ID)+"/tasks"), map[string]any{
		"tasks": []map[string]any{
			{"task_type": "walk", "x": 2, "y": 3},
			{"task_type": "idle", "x": 2, "y": 3},
		},
	})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, transport.OK, resp.Code)

	tasks, err := f.store.WorkerTasks(context.Background(), w.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, t0.Add(2*time.Second), tasks[1].StartTime)
}

func TestHttp_任务被拒带原因(t *testing.T) {
	f := newAPI(t)
	w := f.store.AddWorker(domain.Worker{VillageID: f.village, X: 0, Y: 3, Speed: 1, Level: 1})

	rec, resp := f.do(t, nethttp.MethodPost, villagePath(f.village, "/workers/"+itoa(w.ID)+"/tasks"), map[string]any{
		"tasks": []map[string]any{{"task_type": "gather_sticks", "x": 0, "y": 3}},
	})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, transport.TaskRejected, resp.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NO_BUILDING", data["reason"])
}

func TestHttp_参数校验(t *testing.T) {
	f := newAPI(t)
	rec, resp := f.do(t, nethttp.MethodPost, villagePath(f.village, "/workers/1/tasks"), map[string]any{"tasks": []any{}})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, transport.InvalidParam, resp.Code)

	rec, _ = f.do(t, nethttp.MethodGet, "/api/v1/villages/abc", nil)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestHttp_购买建筑和查看村庄(t *testing.T) {
	f := newAPI(t)
	rec, resp := f.do(t, nethttp.MethodPost, villagePath(f.village, "/buildings"), map[string]any{
		"building_type": "blue_flowers", "x": 1, "y": 1,
	})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, transport.NotEnoughResource, resp.Code)
	assert.Equal(t, "not enough feathers", resp.Msg)

	f.store.SetResource(f.village, domain.Feathers, 20)
	rec, _ = f.do(t, nethttp.MethodPost, villagePath(f.village, "/buildings"), map[string]any{
		"building_type": "blue_flowers", "x": 1, "y": 1,
	})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	rec, resp = f.do(t, nethttp.MethodGet, villagePath(f.village, ""), nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var view struct {
		Resources map[string]int64 `json:"resources"`
		Buildings []struct {
			Type string `json:"building_type"`
		} `json:"buildings"`
	}
	require.NoError(t, json.Unmarshal(raw, &view))
	require.Len(t, view.Buildings, 1)
	assert.Equal(t, "blue_flowers", view.Buildings[0].Type)
	assert.Less(t, view.Resources["feathers"], int64(20))
}

func TestHttp_别人的村庄(t *testing.T) {
	f := newAPI(t)
	other := f.store.AddPlayer(domain.Player{})
	oid := other.ID
	v := f.store.AddVillage(domain.Village{PlayerID: &oid})

	rec, resp := f.do(t, nethttp.MethodGet, villagePath(v.ID, ""), nil)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)
	assert.Equal(t, transport.Forbidden, resp.Code)

	rec, _ = f.do(t, nethttp.MethodPost, villagePath(9999, "/attacks/resolve"), nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestHttpStatus(t *testing.T) {
	assert.Equal(t, nethttp.StatusInternalServerError, httpStatus(transport.SystemError))
	assert.Equal(t, nethttp.StatusTooManyRequests, httpStatus(transport.TooManyRequests))
	assert.Equal(t, nethttp.StatusOK, httpStatus(transport.OK))
}
