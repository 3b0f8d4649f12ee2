package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"stampede/internal/runner"
	"stampede/internal/storage"
)

// CSV writes results in a JMeter-compatible layout. Warm-up results are
// included and flagged so the file holds the full result set.
// Schema: timeStamp,elapsed,label,responseCode,responseMessage,threadName,success,failureMessage,URL,warmup
func CSV(results []runner.Result, cutoff time.Time, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"timeStamp", "elapsed", "label", "responseCode", "responseMessage",
		"threadName", "success", "failureMessage", "URL", "warmup",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, res := range results {
		record := []string{
			strconv.FormatInt(res.Start.UnixMilli(), 10),
			strconv.FormatInt(res.Elapsed().Milliseconds(), 10),
			"GET",
			strconv.Itoa(res.Status),
			http.StatusText(res.Status),
			fmt.Sprintf("Worker-%d", res.WorkerID),
			strconv.FormatBool(res.Success),
			res.ErrorDetail,
			res.URL,
			strconv.FormatBool(res.Start.Before(cutoff)),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// JSON writes the raw results with UTC timestamps.
func JSON(results []runner.Result, filename string) error {
	utc := make([]runner.Result, len(results))
	for i, r := range results {
		r.Start, r.End = r.Start.UTC(), r.End.UTC()
		utc[i] = r
	}
	data, err := json.MarshalIndent(utc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func Summary(item storage.HistoryItem, filename string) error {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// All writes prefix.csv, prefix.json and prefix_summary.json.
func All(prefix string, results []runner.Result, cutoff time.Time, item storage.HistoryItem) error {
	if err := CSV(results, cutoff, prefix+".csv"); err != nil {
		return fmt.Errorf("csv export: %w", err)
	}
	if err := JSON(results, prefix+".json"); err != nil {
		return fmt.Errorf("json export: %w", err)
	}
	if err := Summary(item, prefix+"_summary.json"); err != nil {
		return fmt.Errorf("summary export: %w", err)
	}
	return nil
}
