package monitoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TraceSnapshot is a serializable capture of an ExecutionTrace.
type TraceSnapshot struct {
	ExecutionID string        `json:"execution_id"`
	AgentID     string        `json:"agent_id"`
	Timestamp   time.Time     `json:"timestamp"`
	EventCount  int           `json:"event_count"`
	Events      []*TraceEvent `json:"events"`
}

// SnapshotTrace captures trace's current events for serialization.
func SnapshotTrace(trace *ExecutionTrace) *TraceSnapshot {
	events := trace.GetEvents()
	return &TraceSnapshot{
		ExecutionID: trace.ExecutionID,
		AgentID:     trace.AgentID,
		Timestamp:   time.Now(),
		EventCount:  len(events),
		Events:      events,
	}
}

// SaveTraceToFile writes trace as indented JSON, creating parent
// directories as needed.
func SaveTraceToFile(trace *ExecutionTrace, filePath string) error {
	snapshot := SnapshotTrace(trace)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// LoadTraceFromFile reads a TraceSnapshot previously written by
// SaveTraceToFile.
func LoadTraceFromFile(filePath string) (*TraceSnapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var snapshot TraceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
	}

	return &snapshot, nil
}

// SaveTraceToFileWithTimestamp saves a trace under a timestamped
// filename and returns the path used.
func SaveTraceToFileWithTimestamp(trace *ExecutionTrace, directory string) (string, error) {
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("trace-%s-%s.json", trace.ExecutionID, timestamp)
	filePath := filepath.Join(directory, filename)

	if err := SaveTraceToFile(trace, filePath); err != nil {
		return "", err
	}

	return filePath, nil
}

// ExportTracesAsText writes multiple traces to a single human-readable
// text file.
func ExportTracesAsText(traces []*ExecutionTrace, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	rule := strings.Repeat("=", 80)
	fmt.Fprintf(file, "Execution Traces Export\n")
	fmt.Fprintf(file, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Total Traces: %d\n%s\n\n", len(traces), rule)

	for i, trace := range traces {
		fmt.Fprintf(file, "=== Trace %d/%d ===\n", i+1, len(traces))
		fmt.Fprint(file, trace.String())
		fmt.Fprintf(file, "\n%s\n\n", rule)
	}

	return nil
}
