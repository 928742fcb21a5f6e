// Package export renders pipeline output as flat CSV for download. Column
// sets and row order mirror the in-memory result exactly; nothing is
// re-sorted or re-filtered here.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/finwatch/newsradar/internal/store"
)

// WriteClustersCSV writes the clusters table.
func WriteClustersCSV(w io.Writer, rows []store.ClusteredArticle) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"cluster_id", "url", "title", "source", "published_at", "clean_title"}); err != nil {
		return fmt.Errorf("write clusters header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.ClusterID),
			r.URL,
			r.Title,
			r.Source,
			r.PublishedAt.UTC().Format(time.RFC3339),
			r.CleanTitle,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write clusters row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteHotnessCSV writes the ranked hotness table.
func WriteHotnessCSV(w io.Writer, rows []store.HotnessRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"cluster_id", "score", "representative_title"}); err != nil {
		return fmt.Errorf("write hotness header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.ClusterID),
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			r.RepresentativeTitle,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write hotness row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
