package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!doctype html>
<html>
<head><title> Quarterly Report </title><style>.x{}</style></head>
<body>
  <h1 id="top" class="headline">Revenue   grew</h1>
  <script>var secret = "do not read";</script>
  <p>First paragraph.<br>Second line.</p>
  <div hidden>invisible</div>
  <ul><li>one</li><li>two</li></ul>
  <noscript>enable js</noscript>
</body>
</html>`

func TestRuntimeExecution(t *testing.T) {
	rt, err := New(DefaultConfig())
	require.NoError(t, err)
	defer rt.Close()

	tests := []struct {
		name   string
		script string
		want   any
	}{
		{name: "simple return", script: "42", want: int64(42)},
		{name: "math operations", script: "Math.sqrt(16)", want: int64(4)},
		{name: "string operations", script: "'hello'.toUpperCase()", want: "HELLO"},
		{name: "undefined", script: "undefined", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rt.Execute(context.Background(), tt.script, nil)
			require.NoError(t, err)
			assert.EqualValues(t, tt.want, res.Value)
		})
	}
}

func TestRuntimeConsole(t *testing.T) {
	rt, err := New(DefaultConfig())
	require.NoError(t, err)

	res, err := rt.Execute(context.Background(), "console.warn('a', 1); 'x'", nil)
	require.NoError(t, err)
	require.Len(t, res.Console, 1)
	assert.Equal(t, "warn", res.Console[0].Level)
	assert.Equal(t, "a 1", res.Console[0].Message)
}

func TestRuntimeSecurity(t *testing.T) {
	rt, err := New(DefaultConfig())
	require.NoError(t, err)

	for _, script := range []string{"require('fs')", "process.exit(1)"} {
		_, err := rt.Execute(context.Background(), script, nil)
		assert.Error(t, err, script)
	}
}

func TestRuntimeTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	rt, err := New(cfg)
	require.NoError(t, err)

	_, err = rt.Execute(context.Background(), "while (true) {}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution timeout exceeded")

	// Interrupt must not leak into the next run.
	res, err := rt.Execute(context.Background(), "1 + 1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Value)
}

func TestCallInnerText(t *testing.T) {
	doc, err := ParseHTML(page)
	require.NoError(t, err)

	rt, err := New(DefaultConfig())
	require.NoError(t, err)

	res, err := rt.Call(context.Background(), "() => document.body.innerText", doc)
	require.NoError(t, err)

	text, ok := res.Value.(string)
	require.True(t, ok)
	assert.Equal(t, "Revenue grew\n\nFirst paragraph.\nSecond line.\n\none\n\ntwo", text)
	assert.NotContains(t, text, "secret")
	assert.NotContains(t, text, "invisible")
	assert.NotContains(t, text, "enable js")
}

func TestCallDocumentQueries(t *testing.T) {
	doc, err := ParseHTML(page)
	require.NoError(t, err)

	rt, err := New(DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name string
		fn   string
		want any
	}{
		{name: "title", fn: "() => document.title", want: "Quarterly Report"},
		{name: "querySelector", fn: "() => document.querySelector('h1').tagName", want: "H1"},
		{name: "attribute", fn: "() => document.querySelector('.headline').getAttribute('id')", want: "top"},
		{name: "missing attribute", fn: "() => document.querySelector('h1').getAttribute('lang')", want: nil},
		{name: "missing element", fn: "() => document.querySelector('table')", want: nil},
		{name: "querySelectorAll", fn: "() => document.querySelectorAll('li').length", want: int64(2)},
		{name: "getElementById", fn: "function () { return document.getElementById('top').className }", want: "headline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rt.Call(context.Background(), tt.fn, doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func TestCallWithoutDocument(t *testing.T) {
	rt, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = rt.Call(context.Background(), "() => document.body.innerText", nil)
	assert.Error(t, err)

	_, err = rt.Call(context.Background(), "  ", nil)
	assert.EqualError(t, err, "empty function")
}

func TestPool(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2)
	require.NoError(t, err)

	doc, err := ParseHTML(page)
	require.NoError(t, err)

	res, err := pool.Call(context.Background(), "() => document.title", doc)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report", res.Value)
	assert.Equal(t, Stats{Size: 2, Available: 2}, pool.Stats())

	a, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	b, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, pool.Release(a))
	require.NoError(t, pool.Release(b))

	require.NoError(t, pool.Close())
	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.True(t, pool.Stats().Closed)
}
