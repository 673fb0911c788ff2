package ctxutil

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCallerAndRequestID(t *testing.T) {
	Convey("context 中携带调用方与请求 ID", t, func() {
		ctx := WithRequestID(WithCaller(context.Background(), "alice@example.com"), "req-1")

		caller, ok := GetCaller(ctx)
		So(ok, ShouldBeTrue)
		So(caller, ShouldEqual, "alice@example.com")

		id, ok := GetRequestID(ctx)
		So(ok, ShouldBeTrue)
		So(id, ShouldEqual, "req-1")

		Convey("空值视为不存在", func() {
			_, ok := GetCaller(WithCaller(context.Background(), ""))
			So(ok, ShouldBeFalse)

			_, ok = GetRequestID(context.Background())
			So(ok, ShouldBeFalse)
		})
	})
}
