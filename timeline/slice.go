package timeline

import "time"

const (
	// SliceDuration is the width of one time bucket.
	SliceDuration = time.Hour

	// MaxSliceReads is the number of slices a feed read scans at most, starting from the current one.
	MaxSliceReads = 100
)

var sliceMillis = SliceDuration.Milliseconds()

// Slice maps a timestamp to the start of its time bucket, counted in whole SliceDuration steps from the Unix epoch.
//
// The result is a UTC time with millisecond precision. Slice is pure and monotonic non-decreasing,
// and Slice(Slice(t)) == Slice(t).
func Slice(t time.Time) time.Time {
	ms := t.UnixMilli()
	rem := ms % sliceMillis
	if rem < 0 {
		rem += sliceMillis
	}

	return time.UnixMilli(ms - rem).UTC()
}

// PreviousSlice returns the start of the bucket directly before the given bucket start.
func PreviousSlice(slice time.Time) time.Time {
	return slice.Add(-SliceDuration)
}
