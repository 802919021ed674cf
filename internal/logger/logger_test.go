package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLogWritesFileAndMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.txt")
	l := New(path)
	l.Log("first")
	l.Logf("frame %d", 7)

	lines := l.Lines()
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "[") || !strings.HasSuffix(lines[0], "] first") {
		t.Errorf("Expected stamped line, got %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "frame 7") {
		t.Errorf("Expected formatted line, got %q", lines[1])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("Expected 2 lines on disk, got %d", got)
	}
}

func TestTail(t *testing.T) {
	l := New("")
	for _, s := range []string{"a", "b", "c"} {
		l.Log(s)
	}
	tail := l.Tail(2)
	if len(tail) != 2 || !strings.HasSuffix(tail[0], "b") || !strings.HasSuffix(tail[1], "c") {
		t.Errorf("Expected last two lines, got %v", tail)
	}
	if got := l.Tail(10); len(got) != 3 {
		t.Errorf("Expected all 3 lines, got %d", len(got))
	}
	if got := l.Tail(0); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}

func TestEchoAndConcurrentLog(t *testing.T) {
	l := New("")
	var mu sync.Mutex
	echoed := 0
	l.Echo = func(string) {
		mu.Lock()
		echoed++
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Log("x")
			}
		}()
	}
	wg.Wait()

	if n := len(l.Lines()); n != 400 {
		t.Errorf("Expected 400 lines, got %d", n)
	}
	if echoed != 400 {
		t.Errorf("Expected 400 echoed lines, got %d", echoed)
	}
}
