package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
// It includes counters for commands received, messages sent,
// new users, scheduled deliveries, and a histogram for database
// query durations.
type Metrics struct {
	CommandReceived     *prometheus.CounterVec   // Counter for received commands
	SentMessages        *prometheus.CounterVec   // Counter for sent messages
	NewUsers            prometheus.Counter       // Counter for new users
	DBQueryDuration     *prometheus.HistogramVec // Histogram for database query durations
	ScheduledDeliveries *prometheus.CounterVec   // Counter for scheduled broadcast deliveries
	AttendanceRecorded  *prometheus.CounterVec   // Counter for recorded work formats
}

// NewMetrics creates a new Metrics instance with the provided Prometheus Registerer.
// It initializes counters and histograms for tracking bot activity,
// scheduled deliveries, attendance writes, and query durations.
//
// Parameters:
//   - reg: A Prometheus Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CommandReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Total number of used commands",
		}, []string{"command"}), // command: /start, /register, /set_morning_time
		SentMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_messages_sent_total",
			Help: "Output bot activity",
		}, []string{"type"}), // type: text, reply, error
		NewUsers: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "telegram_new_users_total",
			Help: "Total number of new users via /start command",
		}),
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "telegram_db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'get_employee', 'upsert_entry'
		ScheduledDeliveries: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_scheduled_deliveries_total",
			Help: "Deliveries of the morning broadcast and afternoon reminder.",
		}, []string{"kind", "result"}), // kind: morning, afternoon; result: ok, error
		AttendanceRecorded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_attendance_recorded_total",
			Help: "Work-format declarations recorded.",
		}, []string{"status"}), // status: the chosen work-format label
	}
}
