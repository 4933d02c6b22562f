package seed

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// writeSummary renders run statistics as a table.
func writeSummary(w io.Writer, cfg *Config, s *Stats) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight}
	})

	data := [][]string{
		{"Users", strconv.Itoa(cfg.Users)},
		{"Generated", strconv.Itoa(s.Generated)},
		{"Submitted", strconv.Itoa(s.Submitted)},
		{"Created", strconv.Itoa(s.Created)},
		{"Duplicate", strconv.Itoa(s.Duplicate)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Reports", strconv.Itoa(s.Reports)},
		{"Verified", strconv.Itoa(s.Verified)},
		{"Mismatched", strconv.Itoa(s.Mismatched)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	verdict := passColor.Sprint("PASS")
	if !s.Passed() {
		verdict = failColor.Sprint("FAIL")
	}
	_, err := fmt.Fprintf(w, "%s seed=%d workers=%d url=%s\n", verdict, cfg.Seed, cfg.Workers, cfg.BaseURL)
	return err
}
