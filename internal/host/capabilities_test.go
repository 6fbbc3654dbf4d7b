package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptedTypedResults(t *testing.T) {
	h := newFakeHost()
	h.facilities[CapStorageGet] = func(args any, cb Callback) Handle {
		return Resolved(nil)
	}
	h.facilities[CapTabsQuery] = func(args any, cb Callback) Handle {
		h.callback(cb, []Tab{{ID: 1, WindowID: 1, URL: "https://example.com", Active: true}}, nil)
		return nil
	}
	h.facilities[CapExecuteScript] = func(args any, cb Callback) Handle {
		inj := args.(ScriptInjection)
		return Resolved([]InjectionResult{{FrameID: 0, Result: inj.Func}})
	}
	h.facilities[CapStorageSet] = func(args any, cb Callback) Handle {
		h.callback(cb, nil, nil)
		return nil
	}

	caps := NewAdapted(h, nil)
	ctx := context.Background()

	items, err := caps.StorageGet(ctx, []string{"geminiApiKey"})
	require.NoError(t, err)
	assert.Empty(t, items)

	tabs, err := caps.QueryTabs(ctx, TabQuery{Active: true, CurrentWindow: true})
	require.NoError(t, err)
	require.Len(t, tabs, 1)
	assert.Equal(t, "https://example.com", tabs[0].URL)

	results, err := caps.ExecuteScript(ctx, ScriptInjection{Target: ScriptTarget{TabID: 1}, Func: "() => 1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "() => 1", results[0].Result)

	require.NoError(t, caps.StorageSet(ctx, map[string]any{"geminiTheme": "light"}))
}

func TestAdaptedUnexpectedResult(t *testing.T) {
	h := newFakeHost()
	h.facilities[CapTabsQuery] = func(args any, cb Callback) Handle {
		return Resolved("not tabs")
	}

	_, err := NewAdapted(h, nil).QueryTabs(context.Background(), TabQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected result type string")
}
