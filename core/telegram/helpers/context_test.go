package helpers

import (
	"testing"
	"time"

	"github.com/m3rciful/ticketbot/core/logger"
	"github.com/m3rciful/ticketbot/core/telegram/teletest"
)

func TestBuildContextIsCached(t *testing.T) {
	c := teletest.NewText(42, "/tickets")
	first := BuildContext(c)
	if first != BuildContext(c) {
		t.Fatal("context not cached on the update")
	}
	if logger.RIDFrom(first) == "" {
		t.Fatal("request id missing")
	}
}

func TestWithHandlerReplacesCache(t *testing.T) {
	c := teletest.NewText(42, "/tickets")
	base := BuildContext(c)
	tagged := WithHandler(c, "my_tickets")
	if tagged == base || BuildContext(c) != tagged {
		t.Fatal("handler context not stored")
	}
	if WithHandler(c, "") != tagged {
		t.Fatal("empty handler must keep the current context")
	}
}

func TestBoundedDoesNotLeakDeadline(t *testing.T) {
	c := teletest.NewText(42, "/get")
	ctx, cancel := Bounded(c, time.Minute)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("bounded context has no deadline")
	}
	if _, ok := BuildContext(c).Deadline(); ok {
		t.Fatal("deadline leaked into the cached context")
	}
}
