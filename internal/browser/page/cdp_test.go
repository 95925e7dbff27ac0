// File: internal/browser/page/cdp_test.go
package page

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestPage(t *testing.T, eval func(script string) (string, error)) (*CDPPage, *[]string) {
	t.Helper()
	var scripts []string
	p := NewCDPPage("https://example.test/reserve", func(ctx context.Context, actions ...chromedp.Action) error {
		return nil
	}, zaptest.NewLogger(t))
	p.eval = func(ctx context.Context, script string) (json.RawMessage, error) {
		scripts = append(scripts, script)
		out, err := eval(script)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(out), nil
	}
	return p, &scripts
}

func TestCDPPage_LocateInput(t *testing.T) {
	t.Run("InRange", func(t *testing.T) {
		p, scripts := newTestPage(t, func(string) (string, error) { return "8", nil })
		h, err := p.LocateInput(context.Background(), Positional(7))
		require.NoError(t, err)
		assert.Equal(t, Handle{Selector: TextInputSelector, Index: 7}, h)
		require.Len(t, *scripts, 1)
		// Selector travels as a JSON string literal, never spliced raw.
		assert.Contains(t, (*scripts)[0], `"input.el-input__inner[type=\"text\"]"`)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		p, _ := newTestPage(t, func(string) (string, error) { return "3", nil })
		_, err := p.LocateInput(context.Background(), Positional(3))
		assert.ErrorIs(t, err, ErrElementNotFound)
	})

	t.Run("NegativeIndex", func(t *testing.T) {
		p, scripts := newTestPage(t, func(string) (string, error) { return "3", nil })
		_, err := p.LocateInput(context.Background(), Positional(-1))
		assert.ErrorIs(t, err, ErrElementNotFound)
		assert.Empty(t, *scripts)
	})

	t.Run("ScriptError", func(t *testing.T) {
		p, _ := newTestPage(t, func(string) (string, error) { return "", errors.New("target closed") })
		_, err := p.LocateInput(context.Background(), Positional(0))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target closed")
	})
}

func TestCDPPage_SetValue(t *testing.T) {
	p, scripts := newTestPage(t, func(string) (string, error) {
		return `{"found":true,"value":"张三"}`, nil
	})
	res, err := p.SetValue(context.Background(), Handle{Selector: TextInputSelector, Index: 0}, `张三"); alert(1); ("`)
	require.NoError(t, err)
	assert.Equal(t, SetResult{Found: true, Value: "张三"}, res)

	// The value is encoded as a literal argument.
	script := (*scripts)[0]
	assert.True(t, strings.HasSuffix(script, `, 0, "张三\"); alert(1); (\"")`), script)
}

func TestCDPPage_SetValue_Missing(t *testing.T) {
	p, _ := newTestPage(t, func(string) (string, error) { return `{"found":false,"value":""}`, nil })
	_, err := p.SetValue(context.Background(), Handle{Selector: TextInputSelector, Index: 9}, "x")
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestCDPPage_Center(t *testing.T) {
	p, _ := newTestPage(t, func(string) (string, error) { return `{"x":120.5,"y":44}`, nil })
	pt, err := p.Center(context.Background(), Handle{Selector: TextInputSelector, Index: 6})
	require.NoError(t, err)
	assert.Equal(t, Point{X: 120.5, Y: 44}, pt)

	p, _ = newTestPage(t, func(string) (string, error) { return `null`, nil })
	_, err = p.Center(context.Background(), Handle{Selector: TextInputSelector, Index: 6})
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestCDPPage_ClickAt(t *testing.T) {
	var captured []chromedp.Action
	p := NewCDPPage("", func(ctx context.Context, actions ...chromedp.Action) error {
		captured = actions
		return nil
	}, zaptest.NewLogger(t))

	require.NoError(t, p.ClickAt(context.Background(), Point{X: 10, Y: 20}))
	require.Len(t, captured, 3)

	types := make([]input.MouseType, 0, 3)
	for _, a := range captured {
		params, ok := a.(*input.DispatchMouseEventParams)
		require.True(t, ok)
		assert.Equal(t, 10.0, params.X)
		assert.Equal(t, 20.0, params.Y)
		types = append(types, params.Type)
	}
	assert.Equal(t, []input.MouseType{input.MouseMoved, input.MousePressed, input.MouseReleased}, types)
}

func TestCDPPage_Options(t *testing.T) {
	p, scripts := newTestPage(t, func(string) (string, error) {
		return `[{"pattern":"li","index":0,"text":"北京市","width":0},{"pattern":"li","index":1,"text":"北京市","width":96}]`, nil
	})
	opts, err := p.Options(context.Background(), CascadeOptionPatterns)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.False(t, opts[0].Visible())
	assert.True(t, opts[1].Visible())
	assert.Contains(t, (*scripts)[0], `["li","[role=\"menuitem\"]",".el-cascader-node"]`)
}

func TestCDPPage_Inputs(t *testing.T) {
	p, _ := newTestPage(t, func(string) (string, error) {
		return `[{"index":0,"type":"text","name":"","placeholder":"姓名","value":"张三"}]`, nil
	})
	infos, err := p.Inputs(context.Background(), AnyInputSelector)
	require.NoError(t, err)
	assert.Equal(t, []InputInfo{{Index: 0, Type: "text", Placeholder: "姓名", Value: "张三"}}, infos)
}

func TestDescriptorCriteria(t *testing.T) {
	assert.Equal(t, `input[placeholder*="姓名" i]`, Descriptor{Attr: "placeholder", Needle: "姓名"}.Criteria().Selector)
	assert.Equal(t, `input[name*="a\"b" i]`, Descriptor{Attr: "name", Needle: `a"b`}.Criteria().Selector)
	assert.Equal(t, `input[type="number"]`, Descriptor{Attr: `type="number"`}.Criteria().Selector)
}
