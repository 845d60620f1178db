package httpkit

import "net/http"

// MountUnder routes a module subtree at prefix, applying any per-module
// middleware to the subrouter before the routes register
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route(prefix, func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	})
}
