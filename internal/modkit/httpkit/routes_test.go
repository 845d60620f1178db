package httpkit

import (
	"net/http"
	"testing"

	phttp "papertrail/internal/platform/net/http"
)

type routeCall struct {
	verb string
	path string
}

type fakeRouter struct {
	prefixes  []string
	useCalls  int
	lastMWLen int
	routes    []routeCall
}

func (f *fakeRouter) Mux() http.Handler { return http.NewServeMux() }

func (f *fakeRouter) Route(prefix string, fn func(Router)) {
	f.prefixes = append(f.prefixes, prefix)
	fn(f)
}

func (f *fakeRouter) Group(fn func(Router)) { fn(f) }

func (f *fakeRouter) Use(mw ...func(http.Handler) http.Handler) {
	f.useCalls++
	f.lastMWLen = len(mw)
}

func (f *fakeRouter) Handle(path string, _ http.Handler) {
	f.routes = append(f.routes, routeCall{"HANDLE", path})
}

func (f *fakeRouter) Get(path string, _ phttp.Handler) {
	f.routes = append(f.routes, routeCall{"GET", path})
}

func (f *fakeRouter) Post(path string, _ phttp.Handler) {
	f.routes = append(f.routes, routeCall{"POST", path})
}

func (f *fakeRouter) Put(path string, _ phttp.Handler) {
	f.routes = append(f.routes, routeCall{"PUT", path})
}

func (f *fakeRouter) Patch(path string, _ phttp.Handler) {
	f.routes = append(f.routes, routeCall{"PATCH", path})
}

func (f *fakeRouter) Delete(path string, _ phttp.Handler) {
	f.routes = append(f.routes, routeCall{"DELETE", path})
}

func TestMountUnder_AppliesMiddlewareAndCallsMount(t *testing.T) {
	root := &fakeRouter{}

	mwA := func(next http.Handler) http.Handler { return next }
	mwB := func(next http.Handler) http.Handler { return next }

	MountUnder(root, "/api/v1", []func(http.Handler) http.Handler{mwA, mwB}, func(sub Router) {
		sub.Get("/ping", func(http.ResponseWriter, *http.Request) {})
	})

	if len(root.prefixes) != 1 || root.prefixes[0] != "/api/v1" {
		t.Fatalf("expected Route to be called with /api/v1, got %v", root.prefixes)
	}
	if root.useCalls != 1 || root.lastMWLen != 2 {
		t.Fatalf("expected Use once with 2 middleware, got calls=%d len=%d", root.useCalls, root.lastMWLen)
	}
	if len(root.routes) != 1 || root.routes[0] != (routeCall{"GET", "/ping"}) {
		t.Fatalf("expected GET /ping registration, got %+v", root.routes)
	}
}

func TestMountUnder_NoMiddlewareSkipsUse(t *testing.T) {
	root := &fakeRouter{}

	MountUnder(root, "/requests", nil, func(sub Router) {
		sub.Delete("/gone", func(http.ResponseWriter, *http.Request) {})
	})

	if root.useCalls != 0 {
		t.Fatalf("expected Use to not be called when mw is empty, got %d", root.useCalls)
	}
	if len(root.prefixes) != 1 || root.prefixes[0] != "/requests" {
		t.Fatalf("expected Route to be called with /requests, got %v", root.prefixes)
	}
	if len(root.routes) != 1 || root.routes[0] != (routeCall{"DELETE", "/gone"}) {
		t.Fatalf("expected DELETE /gone registration, got %+v", root.routes)
	}
}
