package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrintParams(t *testing.T) {
	p := buildPrintParams(&RenderRequest{HTML: "<p>x</p>"})
	assert.InDelta(t, mmToInches(210), p.PaperWidth, 0.001)
	assert.InDelta(t, mmToInches(297), p.PaperHeight, 0.001)
	assert.InDelta(t, mmToInches(DefaultMarginMM), p.MarginTop, 0.001)
	assert.True(t, p.PrintBackground)
	assert.False(t, p.Landscape)

	p = buildPrintParams(&RenderRequest{HTML: "<p>x</p>", Landscape: true, MarginMM: 25.4})
	assert.True(t, p.Landscape)
	assert.InDelta(t, 1.0, p.MarginLeft, 0.001)
}

func TestWrapDocument(t *testing.T) {
	full := "<!DOCTYPE html><html><body>ok</body></html>"
	assert.Equal(t, full, wrapDocument(&RenderRequest{HTML: full}))

	wrapped := wrapDocument(&RenderRequest{HTML: "<table></table>", Title: "Energy <Report>"})
	assert.Contains(t, wrapped, "<!DOCTYPE html>")
	assert.Contains(t, wrapped, "<title>Energy &lt;Report&gt;</title>")
	assert.Contains(t, wrapped, "<body><table></table></body>")
}

func TestEstimatePageCount(t *testing.T) {
	assert.Equal(t, 1, estimatePageCount(nil))
	pdf := []byte("/Type /Pages /Type /Page /Type /Page /Type /Page")
	assert.Equal(t, 3, estimatePageCount(pdf))
}

func TestRenderError(t *testing.T) {
	cause := errors.New("chrome crashed")
	err := NewRenderError(ErrCodeRenderFailed, "render failed", cause)
	assert.Equal(t, "render failed: chrome crashed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "empty", NewRenderError(ErrCodeInvalidHTML, "empty", nil).Error())
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{})
	defer func() { _ = r.Close() }()
	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)

	_, err := r.Render(context.Background(), &RenderRequest{HTML: "  "})
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.Render(context.Background(), nil)
	require.ErrorAs(t, err, &renderErr)
}

func TestChromedpRenderer_Render(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a local Chrome installation")
	}
	r := NewChromedpRenderer(ChromedpConfig{NoSandbox: true, DefaultTimeout: 20 * time.Second})
	defer func() { _ = r.Close() }()

	res, err := r.Render(context.Background(), &RenderRequest{HTML: "<h1>Occupancy</h1>", Title: "Report"})
	if err != nil {
		t.Skipf("chrome unavailable: %v", err)
	}
	assert.True(t, len(res.PDFData) > 0)
	assert.GreaterOrEqual(t, res.PageCount, 1)
}
