package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"svgjsx/internal/jsx"
)

func TestConvert_RecordsCounters(t *testing.T) {
	before := testutil.ToFloat64(conversions.WithLabelValues("react-native", OriginCLI))
	wrapsBefore := testutil.ToFloat64(fragmentWraps)
	emptyBefore := testutil.ToFloat64(emptyOutputs.WithLabelValues(OriginCLI))

	out := Convert(OriginCLI, `<svg><path/><rect/></svg>`, jsx.ReactNative)
	assert.Equal(t, `<><Path/><Rect/></>`, out)
	Convert(OriginCLI, "   ", jsx.ReactNative)

	assert.Equal(t, before+2, testutil.ToFloat64(conversions.WithLabelValues("react-native", OriginCLI)))
	assert.Equal(t, wrapsBefore+1, testutil.ToFloat64(fragmentWraps))
	assert.Equal(t, emptyBefore+1, testutil.ToFloat64(emptyOutputs.WithLabelValues(OriginCLI)))
}

func TestFrame(t *testing.T) {
	before := testutil.ToFloat64(frames.WithLabelValues("dropped"))
	Frame("dropped")
	assert.Equal(t, before+1, testutil.ToFloat64(frames.WithLabelValues("dropped")))
}
