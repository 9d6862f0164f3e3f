package svg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendDrawsBarsAndTargetLine(t *testing.T) {
	html, err := Trend([]Point{
		{Label: "Jan", Sales: 1200, Target: 1000},
		{Label: "Feb", Sales: 800, Target: 1000},
		{Label: "<Mar>", Sales: 0, Target: 1000},
	}, Options{Width: 420, Height: 220})
	require.NoError(t, err)

	out := string(html)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.True(t, strings.HasSuffix(out, "</svg>"))
	assert.Equal(t, 3+2, strings.Count(out, "<rect"), "three bars plus two legend swatches")
	assert.Contains(t, out, "<polyline")
	assert.Contains(t, out, "&lt;Mar&gt;")
	assert.NotContains(t, out, "<Mar>")
	assert.Contains(t, out, `aria-labelledby="sales-vs-target-title sales-vs-target-desc"`)
	assert.Contains(t, out, "1.2k")
}

func TestTrendRejectsEmptyAndTinyViewports(t *testing.T) {
	_, err := Trend(nil, Options{})
	assert.ErrorIs(t, err, ErrNoPoints)

	_, err = Trend([]Point{{Label: "Jan"}}, Options{Width: 40, Height: 40})
	assert.Error(t, err)
}

func TestTrendAllZero(t *testing.T) {
	html, err := Trend([]Point{{Label: "Jan"}, {Label: "Feb"}}, Options{})
	require.NoError(t, err)
	assert.NotContains(t, string(html), "NaN")
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "950", compact(950))
	assert.Equal(t, "12.50", compact(12.5))
	assert.Equal(t, "1.5k", compact(1500))
	assert.Equal(t, "2.0M", compact(2_000_000))
	assert.Equal(t, "3.0B", compact(3e9))
}
