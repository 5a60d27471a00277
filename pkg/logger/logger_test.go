package logger

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/wyfcoding/pkg/contextx"
)

func TestWithContextInjectsIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.log")
	if err := Init(Config{Level: "debug", Format: "json", Output: "file", FilePath: path, MaxSize: 1}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { globalLogger = nil })

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTraceID(ctx, "trace-1")
	Info(ctx, "priced", "product", "option")
	Debug(context.Background(), "plain")
	done := LogDuration(ctx, "finished", "kind", "vanilla")
	done()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines", len(lines))
	}
	first := lines[0]
	if first["request_id"] != "req-1" || first["trace_id"] != "trace-1" || first["product"] != "option" {
		t.Errorf("first line = %v", first)
	}
	if _, ok := first["span_id"]; ok {
		t.Errorf("span_id should be absent: %v", first)
	}
	if _, ok := lines[1]["request_id"]; ok {
		t.Errorf("plain line carries request_id: %v", lines[1])
	}
	if timed := lines[2]; timed["msg"] != "finished" || timed["kind"] != "vanilla" || timed["request_id"] != "req-1" || timed["duration"] == nil {
		t.Errorf("duration line = %v", timed)
	}
	if RequestID(ctx) != "req-1" || RequestID(context.Background()) != "" {
		t.Error("RequestID lookup")
	}
	// 与 contextx 共用 key
	if contextx.GetRequestID(ctx) != "req-1" || RequestID(contextx.WithRequestID(context.Background(), "req-2")) != "req-2" {
		t.Error("request id not shared with contextx")
	}
}
