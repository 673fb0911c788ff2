package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	. "github.com/smartystreets/goconvey/convey"

	"chatrelay/internal/pkg/ctxutil"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Recovery(), RequestID(), Logger("/health"), CORS())
	engine.GET("/ok", func(c *gin.Context) {
		id, _ := ctxutil.GetRequestID(c.Request.Context())
		c.String(http.StatusOK, id)
	})
	engine.POST("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "posted")
	})
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return engine
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	Convey("RequestID 生成或复用请求 ID", t, func() {
		engine := newEngine()

		Convey("没有传入时生成 UUID", func() {
			w := serve(engine, httptest.NewRequest(http.MethodGet, "/ok", nil))
			got := w.Header().Get(RequestIDHeader)
			_, err := uuid.Parse(got)
			So(err, ShouldBeNil)
			So(w.Body.String(), ShouldEqual, got)
		})

		Convey("传入合法值时原样复用", func() {
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			req.Header.Set(RequestIDHeader, "trace-abc")
			w := serve(engine, req)
			So(w.Header().Get(RequestIDHeader), ShouldEqual, "trace-abc")
			So(w.Body.String(), ShouldEqual, "trace-abc")
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("CORS 对所有响应设置来源头", t, func() {
		engine := newEngine()

		Convey("预检请求返回 204", func() {
			req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
			req.Header.Set("Origin", "https://chat.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := serve(engine, req)
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			So(w.Header().Get("Access-Control-Allow-Methods"), ShouldEqual, "OPTIONS,POST")
			So(w.Header().Get("Access-Control-Allow-Headers"), ShouldContainSubstring, "Authorization")
		})

		Convey("普通请求也带来源头", func() {
			w := serve(engine, httptest.NewRequest(http.MethodPost, "/ok", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})
	})
}

func TestRecovery(t *testing.T) {
	Convey("Recovery 将 panic 转为 500 JSON", t, func() {
		w := serve(newEngine(), httptest.NewRequest(http.MethodGet, "/panic", nil))
		So(w.Code, ShouldEqual, http.StatusInternalServerError)
		So(w.Body.String(), ShouldEqual, `{"success":false,"error":"internal server error: internal"}`)
		So(w.Body.String(), ShouldNotContainSubstring, "boom")
	})
}

func TestLogger(t *testing.T) {
	Convey("Logger 按状态码选择级别", t, func() {
		var buf bytes.Buffer
		prev, prevLevel := log.Logger, zerolog.GlobalLevel()
		log.Logger = zerolog.New(&buf)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		defer func() {
			log.Logger = prev
			zerolog.SetGlobalLevel(prevLevel)
		}()

		serve(newEngine(), httptest.NewRequest(http.MethodGet, "/ok", nil))
		So(buf.String(), ShouldContainSubstring, `"level":"info"`)
		So(buf.String(), ShouldContainSubstring, `"route":"/ok"`)

		buf.Reset()
		serve(newEngine(), httptest.NewRequest(http.MethodGet, "/missing", nil))
		So(buf.String(), ShouldContainSubstring, `"level":"warn"`)
		So(buf.String(), ShouldContainSubstring, `"status":404`)
	})
}
