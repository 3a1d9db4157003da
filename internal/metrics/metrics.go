// Package metrics содержит Prometheus-метрики бота и HTTP-сервер /health и /metrics
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "schedule_bot"

// Metrics набор коллекторов; методы безопасны для nil
type Metrics struct {
	updates         *prometheus.CounterVec
	commands        *prometheus.CounterVec
	messagesSent    prometheus.Counter
	messagesFailed  *prometheus.CounterVec
	queueDepth      prometheus.Gauge
	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	bansCreated     prometheus.Counter
	usersTotal      prometheus.Gauge
	chatsTotal      prometheus.Gauge
	usersWithGroup  prometheus.Gauge
	blockedUsers    prometheus.Gauge
	pendingFeedback prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		updates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Handled Telegram updates by kind.",
		}, []string{"kind"}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Handled bot commands by name.",
		}, []string{"command"}),
		messagesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages delivered through the outbound queue.",
		}),
		messagesFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_failed_total",
			Help:      "Outbound messages that failed, by reason.",
		}, []string{"reason"}),
		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting in the outbound queue.",
		}),
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_api_requests_total",
			Help:      "Schedule API requests by endpoint kind and status.",
		}, []string{"endpoint", "status"}),
		apiDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "schedule_api_request_duration_seconds",
			Help:      "Schedule API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		bansCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bans_created_total",
			Help:      "Bans created by the rate limiter or admins.",
		}),
		usersTotal: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users",
			Help:      "Registered users.",
		}),
		chatsTotal: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chats",
			Help:      "Registered group chats.",
		}),
		usersWithGroup: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users_with_group",
			Help:      "Users who selected a group.",
		}),
		blockedUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blocked_users",
			Help:      "Users who blocked the bot.",
		}),
		pendingFeedback: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_feedback",
			Help:      "Feedback messages without an answer.",
		}),
	}
}

func (m *Metrics) Update(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}

func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
}

func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

func (m *Metrics) MessageFailed(reason string) {
	if m == nil {
		return
	}
	m.messagesFailed.WithLabelValues(reason).Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// APIRequest наблюдатель запросов к API расписаний
func (m *Metrics) APIRequest(endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(endpoint, label).Inc()
	m.apiDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) BanCreated() {
	if m == nil {
		return
	}
	m.bansCreated.Inc()
}

// BusinessStats значения бизнес-метрик из БД
type BusinessStats struct {
	Users           int
	Chats           int
	UsersWithGroup  int
	BlockedUsers    int
	PendingFeedback int
}

func (m *Metrics) SetBusiness(s BusinessStats) {
	if m == nil {
		return
	}
	m.usersTotal.Set(float64(s.Users))
	m.chatsTotal.Set(float64(s.Chats))
	m.usersWithGroup.Set(float64(s.UsersWithGroup))
	m.blockedUsers.Set(float64(s.BlockedUsers))
	m.pendingFeedback.Set(float64(s.PendingFeedback))
}
