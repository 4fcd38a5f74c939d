// Package report renders the registry statistics for the console and serves them over HTTP.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/caffinitas/barker/timeline"
)

const (
	timeLayout = "2006-01-02 15:04:05.000"

	headerFormat = "\nStatistics %s\n" +
		"                 count min[µs]   mean[µs] median[µs]    max[µs] stddev[µs]   75th[µs]   95th[µs]   98th[µs]   99th[µs]  999th[µs]\n"
	histogramFormat = "%-10s  %10d %7d %10.2f %10.2f %10d %10.2f %10.2f %10.2f %10.2f %10.2f %10.2f\n"
	meterFormat     = "%-10s   count:%15d    1-minute-rate: %10.2f    5-minute-rate: %10.2f    15-minute-rate: %10.2f\n"
)

// WriteStatistics writes the statistics block of the snapshot: a header with the snapshot time,
// one row per latency histogram and one row per outcome meter.
func WriteStatistics(w io.Writer, snapshot timeline.Snapshot) error {
	if _, err := fmt.Fprintf(w, headerFormat, snapshot.Taken.Format(timeLayout)); err != nil {
		return err
	}

	for _, row := range []struct {
		name string
		h    timeline.HistogramSnapshot
	}{
		{"reads", snapshot.Reads},
		{"writes", snapshot.Writes},
	} {
		if err := writeHistogram(w, row.name, row.h); err != nil {
			return err
		}
	}

	if err := writeMeter(w, "ok", snapshot.Successes); err != nil {
		return err
	}

	return writeMeter(w, "errors", snapshot.Errors)
}

func writeHistogram(w io.Writer, name string, h timeline.HistogramSnapshot) error {
	_, err := fmt.Fprintf(w, histogramFormat,
		name, h.Count, h.Min, h.Mean, h.Median, h.Max, h.StdDev, h.P75, h.P95, h.P98, h.P99, h.P999)

	return err
}

func writeMeter(w io.Writer, name string, m timeline.MeterSnapshot) error {
	_, err := fmt.Fprintf(w, meterFormat, name, m.Count, m.Rate1, m.Rate5, m.Rate15)

	return err
}

// Banner is the console greeting. statsURL is where the HTTP listener serves the statistics.
func Banner(statsURL string, startedAt time.Time) string {
	return fmt.Sprintf("\nbarker load generator, running since %s\n"+
		"statistics as JSON: %s/stats, prometheus metrics: %s/metrics\n"+
		"press ENTER to print the statistics, type EXIT to stop\n",
		startedAt.Format(timeLayout), statsURL, statsURL)
}
