package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/caffinitas/barker/shell/report"
	"github.com/caffinitas/barker/timeline"
)

const exitCommand = "EXIT"

// runConsole prints the banner and statistics for every input line until EXIT, EOF or ctx is done,
// then prints the final statistics.
func runConsole(ctx context.Context, in io.Reader, out io.Writer, banner string, registry *timeline.Registry) error {
	lines := make(chan string)
	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stopped:
				return
			}
		}
	}()

	if _, err := io.WriteString(out, banner); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return report.WriteStatistics(out, registry.Snapshot())

		case line, ok := <-lines:
			if !ok || strings.EqualFold(strings.TrimSpace(line), exitCommand) {
				return report.WriteStatistics(out, registry.Snapshot())
			}

			if _, err := io.WriteString(out, banner); err != nil {
				return err
			}

			if err := report.WriteStatistics(out, registry.Snapshot()); err != nil {
				return err
			}
		}
	}
}
