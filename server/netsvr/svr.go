package netsvr

import (
	"net/http"

	"github.com/zintix-labs/ladderslot/server/app"
)

// NetSvr 可被 app 管理生命週期的路由伺服器。
type NetSvr interface {
	NetRouter
	app.Component
	Address() string
}

// NetRouter 路由註冊面；handler 只依賴這層，不直接碰 chi。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)

	Group(path string, fn func(NetRouter))

	// Handler 回傳已組裝好的 http.Handler（測試用 httptest 直接掛）。
	Handler() http.Handler
}
