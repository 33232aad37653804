package entity

// Metric names shared by user-level and thread-level insights
const (
	MetricViews          = "views"
	MetricLikes          = "likes"
	MetricReplies        = "replies"
	MetricReposts        = "reposts"
	MetricQuotes         = "quotes"
	MetricFollowersCount = "followers_count"
)

// ThreadMetrics are requested for a single post
var ThreadMetrics = []string{MetricViews, MetricLikes, MetricReplies, MetricReposts, MetricQuotes}

// UserMetrics are requested for the account
var UserMetrics = []string{MetricViews, MetricLikes, MetricReplies, MetricQuotes, MetricReposts, MetricFollowersCount}

// Insights maps metric name to value
type Insights map[string]int64

// ZeroInsights returns a record holding every metric with value 0
func ZeroInsights(metrics []string) Insights {
	out := make(Insights, len(metrics))
	for _, m := range metrics {
		out[m] = 0
	}
	return out
}

// Get returns the value of a metric, 0 when absent
func (i Insights) Get(metric string) int64 {
	return i[metric]
}

// TimeRange bounds an insights query; empty fields are omitted
type TimeRange struct {
	Since string
	Until string
}
