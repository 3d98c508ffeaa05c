package ingest

import (
	"fmt"

	"github.com/nicktill/coltsdb/internal/table"
)

// Cardinality and validation limits.
const (
	MaxTagsPerSample    = 20
	MaxTagKeyLength     = 256
	MaxTagValueLength   = 1024
	MaxMetricNameLength = 256

	MaxUniqueSeries     = 100000
	MaxSeriesPerMetric  = 10000
	MaxPointsPerRequest = 1000
)

var (
	ErrTooManyTags            = fmt.Errorf("too many tags (max %d)", MaxTagsPerSample)
	ErrTagKeyTooLong          = fmt.Errorf("tag key too long (max %d chars)", MaxTagKeyLength)
	ErrTagValueTooLong        = fmt.Errorf("tag value too long (max %d chars)", MaxTagValueLength)
	ErrMetricNameTooLong      = fmt.Errorf("metric name too long (max %d chars)", MaxMetricNameLength)
	ErrMetricNameEmpty        = fmt.Errorf("metric name cannot be empty")
	ErrCardinalityLimit       = fmt.Errorf("cardinality limit exceeded (max %d unique series)", MaxUniqueSeries)
	ErrMetricCardinalityLimit = fmt.Errorf("metric cardinality limit exceeded (max %d series per metric)", MaxSeriesPerMetric)
	ErrTooManyPoints          = fmt.Errorf("too many points in request (max %d)", MaxPointsPerRequest)
)

// ValidatePoint validates a Point's metric name and every sample's tag set
// against the limits above.
func ValidatePoint(p table.Point) error {
	if p.Metric == "" {
		return ErrMetricNameEmpty
	}
	if len(p.Metric) > MaxMetricNameLength {
		return fmt.Errorf("%w: %q has %d chars", ErrMetricNameTooLong, p.Metric, len(p.Metric))
	}

	for _, s := range p.Vals {
		if len(s.Tags) > MaxTagsPerSample {
			return fmt.Errorf("%w: metric %q has %d tags", ErrTooManyTags, p.Metric, len(s.Tags))
		}
		for k, values := range s.Tags {
			if len(k) > MaxTagKeyLength {
				return fmt.Errorf("%w: key %q in metric %q", ErrTagKeyTooLong, k, p.Metric)
			}
			for _, v := range values {
				if len(v) > MaxTagValueLength {
					return fmt.Errorf("%w: value for key %q in metric %q", ErrTagValueTooLong, k, p.Metric)
				}
			}
		}
	}

	return nil
}
