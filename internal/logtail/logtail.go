package logtail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Read returns at most maxLines from the end of the file at path. A maxLines
// of zero or less returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Line is one complete line appended to a followed file.
type Line struct {
	Path string
	Text string
}

type trackedFile struct {
	offset  int64
	partial string
}

// Follow emits lines appended to paths after the call returns.
func Follow(ctx context.Context, paths []string, log *logrus.Entry) (<-chan Line, error) {
	if len(paths) == 0 {
		return nil, errors.New("follow: no paths")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	files := make(map[string]*trackedFile, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		tf := &trackedFile{}
		if info, err := os.Stat(abs); err == nil {
			tf.offset = info.Size()
		}
		files[abs] = tf
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	out := make(chan Line, 256)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				tf, tracked := files[filepath.Clean(ev.Name)]
				if !tracked {
					continue
				}
				switch {
				case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
					tf.offset = 0
					tf.partial = ""
				case ev.Has(fsnotify.Create):
					tf.offset = 0
					tf.partial = ""
					fallthrough
				case ev.Has(fsnotify.Write):
					lines, err := readAppended(filepath.Clean(ev.Name), tf)
					if err != nil {
						log.WithError(err).WithField("path", ev.Name).Warn("follow read failed")
						continue
					}
					for _, text := range lines {
						select {
						case out <- Line{Path: filepath.Clean(ev.Name), Text: text}:
						case <-ctx.Done():
							return
						}
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("file watcher error")
			}
		}
	}()
	return out, nil
}

// readAppended reads from tf.offset to EOF and returns the complete lines.
func readAppended(path string, tf *trackedFile) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.Size() < tf.offset {
		tf.offset = 0
		tf.partial = ""
	}
	if _, err := f.Seek(tf.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	tf.offset += int64(len(data))

	parts := strings.Split(tf.partial+string(data), "\n")
	tf.partial = parts[len(parts)-1]
	lines := parts[:len(parts)-1]
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}
