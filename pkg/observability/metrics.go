package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsPublisher publishes custom metrics to CloudWatch
type MetricsPublisher interface {
	CountQueryCompleted(ctx context.Context, status string)
	RecordDiscoveryDuration(ctx context.Context, d time.Duration)
}

// Metrics implements MetricsPublisher against CloudWatch
type Metrics struct {
	namespace string
	client    *cloudwatch.Client
}

// NewMetrics creates a metrics instance
func NewMetrics(namespace string, client *cloudwatch.Client) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
	}
}

// CountQueryCompleted emits one count for a query reaching a terminal status
func (m *Metrics) CountQueryCompleted(ctx context.Context, status string) {
	m.put(ctx, types.MetricDatum{
		MetricName: aws.String("QueryCompleted"),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: []types.Dimension{
			{Name: aws.String("Status"), Value: aws.String(status)},
		},
	})
}

// RecordDiscoveryDuration emits the wall time of a discovery call
func (m *Metrics) RecordDiscoveryDuration(ctx context.Context, d time.Duration) {
	m.put(ctx, types.MetricDatum{
		MetricName: aws.String("DiscoveryDuration"),
		Value:      aws.Float64(float64(d.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  aws.Time(time.Now()),
	})
}

// put publishes a single datum, best-effort
func (m *Metrics) put(ctx context.Context, datum types.MetricDatum) {
	if m.client == nil {
		return
	}
	// Metrics are advisory; a failed put must never fail the operation.
	_, _ = m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []types.MetricDatum{datum},
	})
}

// NopMetrics is a MetricsPublisher that discards everything
type NopMetrics struct{}

func (NopMetrics) CountQueryCompleted(ctx context.Context, status string)       {}
func (NopMetrics) RecordDiscoveryDuration(ctx context.Context, d time.Duration) {}
