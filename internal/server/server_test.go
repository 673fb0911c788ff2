package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"chatrelay/internal/config"
	"chatrelay/internal/handler"
	"chatrelay/internal/model"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Mode: "test",
		},
		Generation: config.GenerationConfig{
			BaseURL:    baseURL,
			Timeout:    time.Second,
			PromptMode: config.PromptModeMessage,
		},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func TestNew(t *testing.T) {
	Convey("缺少生成服务地址时创建失败", t, func() {
		_, err := New(testConfig(""))
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "generation")
	})
}

func TestRoutes(t *testing.T) {
	Convey("服务器路由", t, func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"generated_text":"pong"}`))
		}))
		defer upstream.Close()

		srv, err := New(testConfig(upstream.URL))
		So(err, ShouldBeNil)
		engine := srv.Engine()

		do := func(method, path, body string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(method, path, strings.NewReader(body))
			engine.ServeHTTP(w, req)
			return w
		}

		Convey("两个对话路径都可用", func() {
			for _, path := range []string{"/chat", "/api/v1/chat"} {
				w := do(http.MethodPost, path, `{"message":"ping"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
				So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)

				var resp model.ChatResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Response, ShouldEqual, "pong")
				So(resp.ConversationHistory, ShouldHaveLength, 2)
			}
		})

		Convey("预检请求返回 204", func() {
			w := do(http.MethodOptions, "/chat", "")
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get("Access-Control-Allow-Methods"), ShouldEqual, handler.AllowMethods)
			So(w.Header().Get("Access-Control-Allow-Headers"), ShouldEqual, handler.AllowHeaders)
		})

		Convey("非法请求返回 400", func() {
			w := do(http.MethodPost, "/api/v1/chat", `{"message":""}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "'message' is required")
		})

		Convey("健康检查", func() {
			w := do(http.MethodGet, "/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)

			w = do(http.MethodGet, "/ready", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, strings.TrimPrefix(upstream.URL, "http://"))
		})

		Convey("指标端点", func() {
			do(http.MethodPost, "/chat", `{"message":"ping"}`)
			w := do(http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "chatrelay_requests_total")
			So(w.Body.String(), ShouldContainSubstring, "chatrelay_upstream_request_duration_seconds")
		})

		Convey("test 模式不开放 swagger", func() {
			w := do(http.MethodGet, "/swagger/index.html", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("关闭指标后不注册 /metrics", t, func() {
		cfg := testConfig("http://127.0.0.1:1")
		cfg.Metrics.Enabled = false
		srv, err := New(cfg)
		So(err, ShouldBeNil)

		w := httptest.NewRecorder()
		srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		So(w.Code, ShouldEqual, http.StatusNotFound)
	})
}
