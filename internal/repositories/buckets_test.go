package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBoundaries = []float64{0, 50, 100, 250}

func TestBucketIndex(t *testing.T) {
	cases := map[float64]int{
		-5:    otherIndex,
		0:     0,
		49.99: 0,
		50:    1,
		99:    1,
		100:   2,
		250:   3,
		99999: 3,
	}
	for v, want := range cases {
		assert.Equal(t, want, bucketIndex(v, testBoundaries), "value %v", v)
	}
}

func TestValidateBoundaries(t *testing.T) {
	assert.Error(t, validateBoundaries(nil))
	assert.Error(t, validateBoundaries([]float64{10, 5}))
	assert.Error(t, validateBoundaries([]float64{5, 5}))
	assert.NoError(t, validateBoundaries(testBoundaries))
}

func TestBucketCaseSQL(t *testing.T) {
	got := bucketCaseSQL("price", []float64{0, 50.5})
	assert.Equal(t, "CASE WHEN price >= 0 AND price < 50.5 THEN 0 WHEN price >= 50.5 THEN 1 ELSE -1 END", got)
}

func TestAssembleBuckets_ZeroFilled(t *testing.T) {
	buckets := assembleBuckets(testBoundaries, []bucketRow{{Bucket: 2, Count: 3, AveragePrice: 120}})
	require.Len(t, buckets, 4)

	assert.Equal(t, "0-50", buckets[0].Label)
	assert.Equal(t, int64(0), buckets[0].Count)
	assert.Equal(t, "100-250", buckets[2].Label)
	assert.Equal(t, int64(3), buckets[2].Count)
	assert.Equal(t, 120.0, buckets[2].AveragePrice)

	last := buckets[3]
	assert.Equal(t, "250+", last.Label)
	require.NotNil(t, last.Lower)
	assert.Equal(t, 250.0, *last.Lower)
	assert.Nil(t, last.Upper)
}

func TestAssembleBuckets_OtherOnlyWhenPopulated(t *testing.T) {
	buckets := assembleBuckets(testBoundaries, []bucketRow{{Bucket: otherIndex, Count: 0}})
	assert.Len(t, buckets, 4)

	buckets = assembleBuckets(testBoundaries, []bucketRow{{Bucket: otherIndex, Count: 2, AveragePrice: -1}})
	require.Len(t, buckets, 5)
	assert.Equal(t, OtherBucket, buckets[4].Label)
	assert.Equal(t, int64(2), buckets[4].Count)
	assert.Nil(t, buckets[4].Lower)
}
