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

	k := NoopCheckHooks{}
	k.OnCheckStart(ctx, 3)
	k.OnProjectChecked(ctx, "pypi", "numpy", "outdated", time.Second, nil)
	k.OnCheckComplete(ctx, 3, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "simple:")
	c.OnCacheMiss(ctx, "simple:")
	c.OnCacheSet(ctx, "simple:", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "pypi.org", "/simple/requests/")
	h.OnResponse(ctx, "GET", "pypi.org", "/simple/requests/", 200, time.Second)
	h.OnError(ctx, "GET", "pypi.org", "/simple/requests/", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Check().(NoopCheckHooks); !ok {
		t.Error("Check() should return NoopCheckHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customCheck := &testCheckHooks{}
	SetCheckHooks(customCheck)
	if Check() != customCheck {
		t.Error("SetCheckHooks should set custom hooks")
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
	if _, ok := Check().(NoopCheckHooks); !ok {
		t.Error("Reset() should restore NoopCheckHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &testCheckHooks{}
	SetCheckHooks(custom)
	SetCheckHooks(nil)

	if Check() != custom {
		t.Error("SetCheckHooks(nil) should be ignored")
	}
}

func TestLogHooks(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})).Register()

	ctx := context.Background()
	Cache().OnCacheMiss(ctx, "simple:")
	HTTP().OnResponse(ctx, "GET", "pypi.org", "/simple/numpy/", 200, time.Millisecond)
	Check().OnProjectChecked(ctx, "pypi", "numpy", "error", time.Millisecond, errors.New("boom"))

	out := buf.String()
	for _, want := range []string{"cache miss", "http response", "status=200", "project checked", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel}))
	h.OnCacheHit(context.Background(), "simple:")
	if buf.Len() != 0 {
		t.Errorf("debug events leaked at info level: %q", buf.String())
	}
}

type testCheckHooks struct{ NoopCheckHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
