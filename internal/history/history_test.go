package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/larsks/relayrpc/internal/gpio"
	"github.com/larsks/relayrpc/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (f *fakeWriter) WritePoint(ctx context.Context, points ...*write.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range points {
		f.lines = append(f.lines, write.PointToLineProtocol(p, time.Nanosecond))
	}
	return f.err
}

func (f *fakeWriter) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func TestRecorderFollowsRelay(t *testing.T) {
	pin := gpio.NewFakePin("GPIO0")
	r := relay.New(pin)
	require.NoError(t, r.Initialize())

	w := &fakeWriter{}
	rec := NewRecorder(w, "relay", map[string]string{"pin": "GPIO0"})
	rec.Attach(r)

	require.NoError(t, r.SetState(relay.Closed))
	require.NoError(t, r.SetState(relay.Open))
	rec.Close()

	lines := w.Lines()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `relay,pin=GPIO0 `)
	assert.Contains(t, lines[0], `state="open"`)
	assert.Contains(t, lines[1], `state="close"`)
	assert.Contains(t, lines[1], `closed=true`)
	assert.Contains(t, lines[2], `closed=false`)
}

func TestRecorderWriteErrorsAreNotFatal(t *testing.T) {
	w := &fakeWriter{err: errors.New("bucket not found")}
	rec := NewRecorder(w, "relay", nil)

	rec.Record(relay.Closed)
	rec.Record(relay.Open)
	rec.Close()

	assert.Len(t, w.Lines(), 2)
}

func TestRecorderIgnoresRecordAfterClose(t *testing.T) {
	w := &fakeWriter{}
	rec := NewRecorder(w, "relay", nil)
	rec.Close()
	rec.Close()

	rec.Record(relay.Closed)
	assert.Empty(t, w.Lines())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.NoError(t, (&Config{URL: "http://influx:8086", Bucket: "home", Measurement: "relay"}).Validate())
	assert.ErrorIs(t, (&Config{URL: "http://influx:8086", Measurement: "relay"}).Validate(), ErrMissingSetting)
	assert.ErrorIs(t, (&Config{URL: "http://influx:8086", Bucket: "home"}).Validate(), ErrMissingSetting)
}
