package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fileswap"

// 状态表名称
const (
	TablePendingDials    = "pending_dials"
	TablePendingRequests = "pending_requests"
	TableKnownFiles      = "known_files"
	TableProvidedFiles   = "provided_files"
	TableKnownPeers      = "known_peers"
)

// 结果标签
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultDeferred = "deferred"
)

// Metrics 协调循环指标
type Metrics struct {
	commands      *prometheus.CounterVec
	events        *prometheus.CounterVec
	pending       *prometheus.GaugeVec
	announcements *prometheus.CounterVec
	decodeErrors  *prometheus.CounterVec
	transfer      *prometheus.CounterVec
}

// New 创建指标并注册到 reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled by the coordination loop.",
		}, []string{"command", "result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_events_total",
			Help:      "Network engine events handled by the coordination loop.",
		}, []string{"kind"}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending",
			Help:      "Entries in the coordination loop state tables.",
		}, []string{"table"}),
		announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_total",
			Help:      "File directory announcements published.",
		}, []string{"result"}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Malformed inbound messages that were discarded.",
		}, []string{"protocol"}),
		transfer: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_bytes_total",
			Help:      "File exchange payload bytes.",
		}, []string{"direction"}),
	}

	for _, c := range []prometheus.Collector{m.commands, m.events, m.pending, m.announcements, m.decodeErrors, m.transfer} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveCommand 记录一次命令处理
func (m *Metrics) ObserveCommand(command, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, result).Inc()
}

// ObserveEvent 记录一次引擎事件
func (m *Metrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

// SetPending 设置状态表大小
func (m *Metrics) SetPending(table string, n int) {
	if m == nil {
		return
	}
	m.pending.WithLabelValues(table).Set(float64(n))
}

// ObserveAnnouncement 记录一次公告发布
func (m *Metrics) ObserveAnnouncement(err error) {
	if m == nil {
		return
	}
	m.announcements.WithLabelValues(resultLabel(err)).Inc()
}

// ObserveDecodeError 记录一次畸形消息
func (m *Metrics) ObserveDecodeError(protocol string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(protocol).Inc()
}

// ObserveTransfer 记录文件交换字节数，direction 为 "in" 或 "out"
func (m *Metrics) ObserveTransfer(direction string, n int) {
	if m == nil {
		return
	}
	m.transfer.WithLabelValues(direction).Add(float64(n))
}

func resultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
