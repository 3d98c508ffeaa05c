package compaction

import (
	"fmt"

	"github.com/nicktill/coltsdb/internal/column"
	"github.com/nicktill/coltsdb/internal/table"
)

// Resolution names the granularity of a rollup bucket.
type Resolution string

const (
	ResolutionRaw Resolution = "raw"
	Resolution5m  Resolution = "5m"
	Resolution1h  Resolution = "1h"
)

const (
	tagResolution = "__resolution__"
	tagSum        = "__sum__"
	tagCount      = "__count__"
	tagMin        = "__min__"
	tagMax        = "__max__"
)

// Aggregate holds one time bucket's rollup of raw samples for one metric and
// tag set.
type Aggregate struct {
	Metric     string
	Tags       column.TagSet
	Timestamp  uint64
	Resolution Resolution

	Sum   float64
	Count uint64
	Min   float64
	Max   float64
}

// Average returns the bucket's mean value; a bucket that saw no samples
// averages to 0.
func (a *Aggregate) Average() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

// ToSample encodes the aggregate's statistics as special tags alongside the
// caller's own tags, so the rollup round-trips back into an Aggregate via
// FromSample without losing Sum/Count/Min/Max precision to the single
// average value a plain sample would otherwise carry.
func (a *Aggregate) ToSample() table.Sample {
	tags := make(column.TagSet, len(a.Tags)+5)
	for k, v := range a.Tags {
		tags[k] = v
	}
	tags[tagResolution] = []string{string(a.Resolution)}
	tags[tagSum] = []string{fmt.Sprintf("%v", a.Sum)}
	tags[tagCount] = []string{fmt.Sprintf("%d", a.Count)}
	tags[tagMin] = []string{fmt.Sprintf("%v", a.Min)}
	tags[tagMax] = []string{fmt.Sprintf("%v", a.Max)}

	return table.Sample{
		Timestamp: a.Timestamp,
		Value:     a.Average(),
		Tags:      tags,
	}
}

// FromSample reconstructs an Aggregate from a sample carrying ToSample's
// special tags. ok is false if sample has no __resolution__ tag (i.e. it's a
// raw, never-rolled-up sample) or if the rollup metadata is malformed.
func FromSample(metric string, sample table.Sample) (Aggregate, bool) {
	resolutionVals, isAggregate := sample.Tags[tagResolution]
	if !isAggregate || len(resolutionVals) == 0 {
		return Aggregate{}, false
	}

	var sum, min, max float64
	var count uint64
	if _, err := fmt.Sscanf(firstOr(sample.Tags[tagSum]), "%f", &sum); err != nil {
		return Aggregate{}, false
	}
	if _, err := fmt.Sscanf(firstOr(sample.Tags[tagCount]), "%d", &count); err != nil {
		return Aggregate{}, false
	}
	if _, err := fmt.Sscanf(firstOr(sample.Tags[tagMin]), "%f", &min); err != nil {
		return Aggregate{}, false
	}
	if _, err := fmt.Sscanf(firstOr(sample.Tags[tagMax]), "%f", &max); err != nil {
		return Aggregate{}, false
	}

	userTags := make(column.TagSet, len(sample.Tags))
	for k, v := range sample.Tags {
		if len(k) > 0 && k[0] != '_' {
			userTags[k] = v
		}
	}

	return Aggregate{
		Metric:     metric,
		Tags:       userTags,
		Timestamp:  sample.Timestamp,
		Resolution: Resolution(resolutionVals[0]),
		Sum:        sum,
		Count:      count,
		Min:        min,
		Max:        max,
	}, true
}

func firstOr(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
