package module

import (
	"testing"

	phttp "papertrail/internal/platform/net/http"
)

type pinger interface{ Ping() string }

type pingImpl struct{}

func (pingImpl) Ping() string { return "pong" }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) Name() string             { return m.name }
func (m fakeModule) Ports() any               { return m.ports }
func (m fakeModule) MountRoutes(phttp.Router) {}

func TestPortsOf_DirectAssertion(t *testing.T) {
	m := fakeModule{name: "direct", ports: pingImpl{}}

	got, ok := PortsOf[pinger](m)
	if !ok {
		t.Fatal("expected ok for direct implementation")
	}
	if got.Ping() != "pong" {
		t.Fatalf("unexpected Ping result %q", got.Ping())
	}
}

func TestPortsOf_StructFieldWalk(t *testing.T) {
	type bundle struct {
		Other int
		P     pinger
	}
	m := fakeModule{name: "bundle", ports: bundle{P: pingImpl{}}}

	got, ok := PortsOf[pinger](m)
	if !ok {
		t.Fatal("expected ok for struct field implementation")
	}
	if got.Ping() != "pong" {
		t.Fatalf("unexpected Ping result %q", got.Ping())
	}
}

func TestPortsOf_NilPortsReturnsFalse(t *testing.T) {
	m := fakeModule{name: "empty", ports: nil}

	if _, ok := PortsOf[pinger](m); ok {
		t.Fatal("expected ok=false for nil ports")
	}
}

func TestMustPortsOf_PanicsWhenMissing(t *testing.T) {
	m := fakeModule{name: "nothing", ports: struct{ N int }{N: 1}}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing port")
		}
	}()
	_ = MustPortsOf[pinger](m)
}
