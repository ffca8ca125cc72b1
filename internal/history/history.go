// Package history records relay state changes in InfluxDB.
package history

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/larsks/relayrpc/internal/relay"
)

const (
	queueSize    = 64
	writeTimeout = 5 * time.Second
)

// Config holds the InfluxDB connection settings. Recording is off when URL
// is empty.
type Config struct {
	URL         string `mapstructure:"url"`
	Token       string `mapstructure:"token"`
	Org         string `mapstructure:"org"`
	Bucket      string `mapstructure:"bucket"`
	Measurement string `mapstructure:"measurement"`
}

// Validate checks that a bucket is set when recording is enabled.
func (c *Config) Validate() error {
	if c.URL == "" {
		return nil
	}
	if c.Bucket == "" {
		return fmt.Errorf("%w: bucket", ErrMissingSetting)
	}
	if c.Measurement == "" {
		return fmt.Errorf("%w: measurement", ErrMissingSetting)
	}
	return nil
}

// Writer is the part of the InfluxDB blocking write API the recorder needs.
type Writer interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Recorder queues a point for every state change and writes them in the
// background, so a slow database never delays a relay command. Points are
// dropped when the queue is full.
type Recorder struct {
	writer      Writer
	measurement string
	tags        map[string]string
	onClose     func()

	mu     sync.Mutex
	closed bool
	points chan *write.Point
	done   chan struct{}
}

// Open connects to the database described by cfg.
func Open(cfg Config, tags map[string]string) *Recorder {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	r := NewRecorder(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg.Measurement, tags)
	r.onClose = client.Close
	log.Printf("recording relay history to %s bucket %s", cfg.URL, cfg.Bucket)
	return r
}

// NewRecorder starts a recorder writing to w.
func NewRecorder(w Writer, measurement string, tags map[string]string) *Recorder {
	r := &Recorder{
		writer:      w,
		measurement: measurement,
		tags:        tags,
		points:      make(chan *write.Point, queueSize),
		done:        make(chan struct{}),
	}
	go r.run()
	return r
}

// Attach records every state change of c, starting with the current state.
func (r *Recorder) Attach(c *relay.Controller) {
	r.Record(c.State())
	c.OnChange(r.Record)
}

// Record queues a point for s.
func (r *Recorder) Record(s relay.State) {
	p := influxdb2.NewPoint(r.measurement, r.tags, map[string]any{
		"state":  relay.Name(s),
		"closed": s == relay.Closed,
	}, time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.points <- p:
	default:
		log.Printf("history queue full, dropping %s", relay.Name(s))
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for p := range r.points {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.writer.WritePoint(ctx, p); err != nil {
			log.Printf("failed to record relay state: %v", err)
		}
		cancel()
	}
}

// Close writes the queued points and stops the recorder.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.points)
	}
	r.mu.Unlock()

	<-r.done
	if r.onClose != nil {
		r.onClose()
		r.onClose = nil
	}
}
