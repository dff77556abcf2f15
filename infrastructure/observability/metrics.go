// Package observability emits cache metrics to CloudWatch and wires
// X-Ray tracing into the AWS clients and HTTP surface.
package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"devinsights-backend/infrastructure/cache"
)

const putTimeout = 5 * time.Second

// CloudWatchMetrics publishes cache outcome counters. Publishing happens
// off the request path; a failed put is logged and dropped.
type CloudWatchMetrics struct {
	client    *cloudwatch.Client
	namespace string
	logger    *zap.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics recorder.
func NewCloudWatchMetrics(client *cloudwatch.Client, namespace string, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// CacheHit counts a cache hit on the given tier.
func (m *CloudWatchMetrics) CacheHit(tier cache.Tier) {
	m.put("CacheHit", []types.Dimension{{
		Name:  aws.String("Tier"),
		Value: aws.String(string(tier)),
	}})
}

// CacheMiss counts a full cache miss.
func (m *CloudWatchMetrics) CacheMiss() {
	m.put("CacheMiss", nil)
}

// CachePromotion counts a cold-to-hot promotion attempt.
func (m *CloudWatchMetrics) CachePromotion(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.put("CachePromotion", []types.Dimension{{
		Name:  aws.String("Outcome"),
		Value: aws.String(outcome),
	}})
}

func (m *CloudWatchMetrics) put(name string, dimensions []types.Dimension) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), putTimeout)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace: aws.String(m.namespace),
			MetricData: []types.MetricDatum{{
				MetricName: aws.String(name),
				Value:      aws.Float64(1),
				Unit:       types.StandardUnitCount,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			}},
		})
		if err != nil {
			m.logger.Warn("failed to publish metric",
				zap.String("metric", name),
				zap.Error(err),
			)
		}
	}()
}
