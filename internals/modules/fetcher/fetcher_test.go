package fetcher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pagewatch/internals/modules/monitor"

	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsChallenge(t *testing.T) {
	assert.True(t, IsChallenge("Just a moment...", ""))
	assert.True(t, IsChallenge("Shop", `<script src="/cdn-cgi/challenge-platform/x.js"></script>`))
	assert.False(t, IsChallenge("Shop", "<p>hello</p>"))
}

func TestRequestFor(t *testing.T) {
	m := &monitor.Monitor{
		ID:              uuid.New(),
		URL:             "https://example.com",
		Selector:        ".price",
		Headers:         map[string]string{"Cookie": "a=b"},
		WaitUntil:       monitor.WaitLoad,
		WaitDelayMs:     1500,
		WaitForSelector: "#ready",
	}

	req := RequestFor(m)
	assert.Equal(t, m.ID, req.MonitorID)
	assert.Equal(t, m.URL, req.URL)
	assert.Equal(t, ".price", req.Selector)
	assert.Equal(t, "a=b", req.Headers["Cookie"])
	assert.Equal(t, monitor.WaitLoad, req.WaitUntil)
	assert.Equal(t, 1500*time.Millisecond, req.WaitDelay)
	assert.Equal(t, "#ready", req.WaitForSelector)
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleep(ctx, time.Minute), context.Canceled)
	assert.NoError(t, sleep(ctx, 0))
}

func TestLifecycleEvent(t *testing.T) {
	assert.Equal(t, proto.PageLifecycleEventNameLoad, lifecycleEvent(monitor.WaitLoad))
	assert.Equal(t, proto.PageLifecycleEventNameDOMContentLoaded, lifecycleEvent(monitor.WaitDOMContentLoaded))
	assert.Equal(t, proto.PageLifecycleEventNameNetworkIdle, lifecycleEvent(monitor.WaitNetworkIdle0))
	assert.Equal(t, proto.PageLifecycleEventNameNetworkAlmostIdle, lifecycleEvent(monitor.WaitNetworkIdle2))
	assert.Equal(t, proto.PageLifecycleEventNameNetworkAlmostIdle, lifecycleEvent(""))
}

func TestCookieJar(t *testing.T) {
	jar := NewCookieJar(filepath.Join(t.TempDir(), "state", "cookies.json"))

	cookies, err := jar.Load()
	require.NoError(t, err)
	assert.Empty(t, cookies)

	require.NoError(t, jar.Save([]*proto.NetworkCookie{{Name: "cf_clearance", Value: "token", Domain: "example.com", Path: "/"}}))

	cookies, err = jar.Load()
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "cf_clearance", cookies[0].Name)
	assert.Equal(t, "token", cookies[0].Value)
}

func TestCookieJar_Disabled(t *testing.T) {
	jar := NewCookieJar("")
	require.NoError(t, jar.Save([]*proto.NetworkCookie{{Name: "a"}}))

	cookies, err := jar.Load()
	require.NoError(t, err)
	assert.Nil(t, cookies)
}
