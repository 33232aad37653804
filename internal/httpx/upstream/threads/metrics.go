package threads

import "github.com/vadim/neo-threads/internal/domain/thread/entity"

// Metric is one entry of an insights response. Depending on the endpoint
// and metric the number sits either in values[0].value or total_value.value.
type Metric struct {
	Name       string        `json:"name"`
	Period     string        `json:"period,omitempty"`
	Values     []MetricValue `json:"values,omitempty"`
	TotalValue *MetricValue  `json:"total_value,omitempty"`
}

// MetricValue is a single measured value
type MetricValue struct {
	Value   int64  `json:"value"`
	EndTime string `json:"end_time,omitempty"`
}

// MetricsResponse is the payload of an insights endpoint
type MetricsResponse struct {
	Data []Metric `json:"data"`
}

// ExtractStrategy picks the number out of a metric entry
type ExtractStrategy func(m Metric) int64

// FirstValue reads values[0].value
func FirstValue(m Metric) int64 {
	if len(m.Values) == 0 {
		return 0
	}
	return m.Values[0].Value
}

// TotalValue reads total_value.value
func TotalValue(m Metric) int64 {
	if m.TotalValue == nil {
		return 0
	}
	return m.TotalValue.Value
}

// MetricRules maps metric names to the strategy used to read them
type MetricRules struct {
	Rules   map[string]ExtractStrategy
	Default ExtractStrategy
}

// UserMetricRules: account-level views come as a time series, every other
// metric as a total.
var UserMetricRules = MetricRules{
	Rules:   map[string]ExtractStrategy{entity.MetricViews: FirstValue},
	Default: TotalValue,
}

// ThreadMetricRules: post-level metrics always come as a single value
var ThreadMetricRules = MetricRules{
	Default: FirstValue,
}

// Extract reads one metric using its rule
func (r MetricRules) Extract(m Metric) int64 {
	if fn, ok := r.Rules[m.Name]; ok {
		return fn(m)
	}
	if r.Default != nil {
		return r.Default(m)
	}
	return 0
}

// Apply builds an insights record holding every requested metric; metrics
// missing from the response stay at zero.
func (r MetricRules) Apply(requested []string, resp MetricsResponse) entity.Insights {
	out := entity.ZeroInsights(requested)
	for _, m := range resp.Data {
		out[m.Name] = r.Extract(m)
	}
	return out
}
