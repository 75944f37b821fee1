package repositories

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"royalbid/internal/models"
)

// OtherBucket labels values that fall outside every boundary.
const OtherBucket = "Other"

// otherIndex is the bucket index of OtherBucket.
const otherIndex = -1

func validateBoundaries(boundaries []float64) error {
	if len(boundaries) == 0 {
		return fmt.Errorf("price histogram needs at least one boundary")
	}
	if !sort.Float64sAreSorted(boundaries) {
		return fmt.Errorf("price histogram boundaries must be ascending")
	}
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] == boundaries[i-1] {
			return fmt.Errorf("price histogram boundaries must be distinct")
		}
	}
	return nil
}

// bucketIndex returns i such that boundaries[i] <= v < boundaries[i+1]; the
// last bucket is unbounded above. Values under the first boundary are Other.
func bucketIndex(v float64, boundaries []float64) int {
	if v < boundaries[0] {
		return otherIndex
	}
	i := sort.Search(len(boundaries), func(i int) bool { return boundaries[i] > v })
	return i - 1
}

// bucketCaseSQL renders bucketIndex as a SQL CASE expression over column.
func bucketCaseSQL(column string, boundaries []float64) string {
	var b strings.Builder
	b.WriteString("CASE")
	for i, lower := range boundaries {
		if i+1 < len(boundaries) {
			fmt.Fprintf(&b, " WHEN %s >= %s AND %s < %s THEN %d", column, formatBound(lower), column, formatBound(boundaries[i+1]), i)
		} else {
			fmt.Fprintf(&b, " WHEN %s >= %s THEN %d", column, formatBound(lower), i)
		}
	}
	fmt.Fprintf(&b, " ELSE %d END", otherIndex)
	return b.String()
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type bucketRow struct {
	Bucket       int
	Count        int64
	AveragePrice float64
}

// assembleBuckets lays out every bounded bucket in order, zero-filled, and
// appends Other only when something fell into it.
func assembleBuckets(boundaries []float64, rows []bucketRow) []models.PriceBucket {
	byIndex := make(map[int]bucketRow, len(rows))
	for _, r := range rows {
		byIndex[r.Bucket] = r
	}

	buckets := make([]models.PriceBucket, 0, len(boundaries)+1)
	for i := range boundaries {
		lower := boundaries[i]
		bucket := models.PriceBucket{Lower: &lower}
		if i+1 < len(boundaries) {
			upper := boundaries[i+1]
			bucket.Upper = &upper
			bucket.Label = formatBound(lower) + "-" + formatBound(upper)
		} else {
			bucket.Label = formatBound(lower) + "+"
		}
		if r, ok := byIndex[i]; ok {
			bucket.Count = r.Count
			bucket.AveragePrice = r.AveragePrice
		}
		buckets = append(buckets, bucket)
	}
	if r, ok := byIndex[otherIndex]; ok && r.Count > 0 {
		buckets = append(buckets, models.PriceBucket{
			Label:        OtherBucket,
			Count:        r.Count,
			AveragePrice: r.AveragePrice,
		})
	}
	return buckets
}
