package logtail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/five82/logbook/internal/logging"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v, want nil for missing file", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestReadAppended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("one\ntw"), 0o644); err != nil {
		t.Fatal(err)
	}

	tf := &trackedFile{}
	lines, err := readAppended(path, tf)
	if err != nil {
		t.Fatalf("readAppended() error = %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"one"}) || tf.partial != "tw" {
		t.Fatalf("lines = %v partial = %q", lines, tf.partial)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("o\r\nthree\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	lines, err = readAppended(path, tf)
	if err != nil {
		t.Fatalf("readAppended() error = %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"two", "three"}) {
		t.Fatalf("lines = %v, want [two three]", lines)
	}

	// Truncation starts over from the beginning.
	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lines, err = readAppended(path, tf)
	if err != nil {
		t.Fatalf("readAppended() error = %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"new"}) {
		t.Fatalf("lines after truncation = %v, want [new]", lines)
	}
}

func TestFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("existing\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines, err := Follow(ctx, []string{path}, logging.Component(nil, "test"))
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("appended\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	select {
	case line := <-lines:
		if line.Text != "appended" {
			t.Fatalf("line = %q, want appended", line.Text)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for appended line")
	}

	cancel()
	for range lines {
	}
}

func TestFollowNoPaths(t *testing.T) {
	if _, err := Follow(context.Background(), nil, logging.Component(nil, "test")); err == nil {
		t.Fatal("Follow() with no paths returned nil error")
	}
}
