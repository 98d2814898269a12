package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/pacdefender/api/rest"
	"github.com/kasuganosora/pacdefender/cache"
	"github.com/kasuganosora/pacdefender/game/ai"
	"github.com/kasuganosora/pacdefender/game/maze"
	"github.com/kasuganosora/pacdefender/record"
	"github.com/kasuganosora/pacdefender/resource"
	"github.com/kasuganosora/pacdefender/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	r     *gin.Engine
	db    *gorm.DB
	cache cache.Cache
	rec   *record.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	res := resource.NewLoader(filepath.Join("..", "..", "data", "mazes"))
	require.NoError(t, res.Load())
	strat := ai.NewStrategy(ai.DefaultTuning(), logger)
	rec := record.New(db, c, time.Minute, logger)
	t.Cleanup(func() { rec.Stop(context.Background()) })

	mazeH := rest.NewMazeHandler(res)
	decideH := rest.NewDecideHandler(res, strat, maze.DefaultRules(), logger)
	matchH := rest.NewMatchHandler(res, strat, rec, rest.MatchSettings{
		DefaultMaze: "classic",
		MaxTicks:    500,
		Timeout:     5 * time.Second,
		Rules:       maze.DefaultRules(),
	}, logger)
	rankH := rest.NewRankingHandler(db, c, "classic", logger)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/mazes", mazeH.List)
	api.GET("/mazes/:name", mazeH.Get)
	api.POST("/decide", decideH.Decide)
	api.POST("/matches", matchH.Create)
	api.GET("/matches/:id", matchH.Get)
	api.GET("/ranking", rankH.Top)

	return &testServer{r: r, db: db, cache: c, rec: rec}
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getJSON(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}
