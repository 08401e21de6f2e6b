package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"

	"github.com/openuv/videorx/internal/decoder"
)

// Metrics exports the decoder's cumulative statistics and the ingest
// path's packet counters to Prometheus.
type Metrics struct {
	// Packet-level counters maintained by the ingest loop
	PacketsReceived atomic.Uint64
	PacketsDropped  atomic.Uint64
	FramesAssembled atomic.Uint64

	snapshot func() decoder.StatsSnapshot
	registry *prometheus.Registry
}

// New creates a Metrics instance reading decoder statistics through the
// given snapshot function.
func New(snapshot func() decoder.StatsSnapshot) *Metrics {
	m := &Metrics{
		snapshot: snapshot,
		registry: prometheus.NewRegistry(),
	}

	m.registerPrometheusMetrics()

	return m
}

// registerPrometheusMetrics registers all metrics with Prometheus
func (m *Metrics) registerPrometheusMetrics() {
	gauge := func(name, help string, value func() float64) {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help},
			value,
		))
	}

	gauge("videorx_frames_displayed_total", "Total frames presented to the display",
		func() float64 { return float64(m.snapshot().Displayed) })

	gauge("videorx_frames_dropped_total", "Total frames dropped",
		func() float64 { return float64(m.snapshot().Dropped) })

	gauge("videorx_frames_corrupted_total", "Total corrupted frames",
		func() float64 { return float64(m.snapshot().Corrupted) })

	gauge("videorx_frames_missing_total", "Total frames never received",
		func() float64 { return float64(m.snapshot().Missing) })

	gauge("videorx_fec_ok_total", "FEC-protected frames received complete",
		func() float64 { return float64(m.snapshot().FECOK) })

	gauge("videorx_fec_corrected_total", "Frames recovered by FEC",
		func() float64 { return float64(m.snapshot().FECCorrected) })

	gauge("videorx_fec_failed_total", "Frames FEC could not recover",
		func() float64 { return float64(m.snapshot().FECNOK) })

	gauge("videorx_received_bytes_total", "Payload bytes received",
		func() float64 { return float64(m.snapshot().ReceivedBytes) })

	gauge("videorx_expected_bytes_total", "Payload bytes expected",
		func() float64 { return float64(m.snapshot().ExpectedBytes) })

	gauge("videorx_decompress_nanos_total", "Cumulative time in decompression",
		func() float64 { return float64(m.snapshot().NanoPerFrameDecompress) })

	gauge("videorx_error_correction_nanos_total", "Cumulative time in error correction",
		func() float64 { return float64(m.snapshot().NanoPerFrameErrorCorrection) })

	gauge("videorx_packets_received_total", "RTP packets received",
		func() float64 { return float64(m.PacketsReceived.Load()) })

	gauge("videorx_packets_dropped_total", "RTP packets dropped by the ingest path",
		func() float64 { return float64(m.PacketsDropped.Load()) })

	gauge("videorx_frames_assembled_total", "Frames assembled from packets",
		func() float64 { return float64(m.FramesAssembled.Load()) })
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server
func (m *Metrics) StartServer(addr string) error {
	http.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, nil)
}
