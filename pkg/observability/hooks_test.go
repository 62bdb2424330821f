package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	e := NoopExportHooks{}
	e.OnExportStart(ctx, 2, 1)
	e.OnExportComplete(ctx, 1024, time.Second, nil)

	i := NoopIntelHooks{}
	i.OnDescribeStart(ctx, "offline", "facts")
	i.OnDescribeComplete(ctx, "offline", "facts", time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "describe")
	c.OnCacheMiss(ctx, "geocode")
	c.OnCacheSet(ctx, "reverse", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "api.mapbox.com", "/geocoding/v5")
	h.OnResponse(ctx, "GET", "api.mapbox.com", "/geocoding/v5", 200, time.Second)
	h.OnError(ctx, "GET", "api.mapbox.com", "/geocoding/v5", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Export().(NoopExportHooks); !ok {
		t.Error("Export() should return NoopExportHooks by default")
	}
	if _, ok := Intel().(NoopIntelHooks); !ok {
		t.Error("Intel() should return NoopIntelHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customExport := &testExportHooks{}
	SetExportHooks(customExport)
	if Export() != customExport {
		t.Error("SetExportHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Export().(NoopExportHooks); !ok {
		t.Error("Reset() should restore NoopExportHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testExportHooks{}
	SetExportHooks(custom)
	SetExportHooks(nil)

	if Export() != custom {
		t.Error("SetExportHooks(nil) should be ignored")
	}
}

func TestLogHooks(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	hooks := NewLogHooks(logger)
	hooks.Register()

	ctx := context.Background()
	Export().OnExportComplete(ctx, 2048, time.Millisecond, nil)
	HTTP().OnError(ctx, "GET", "api.openai.com", "/v1/chat/completions", errors.New("timeout"))

	out := buf.String()
	if !strings.Contains(out, "export done") {
		t.Errorf("missing export line in %q", out)
	}
	if !strings.Contains(out, "http error") || !strings.Contains(out, "api.openai.com") {
		t.Errorf("missing http error line in %q", out)
	}
}

type testExportHooks struct{ NoopExportHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
