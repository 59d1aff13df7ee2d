package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"loopguard/internal/core/repetition"
	perr "loopguard/internal/platform/errors"
	kit "loopguard/internal/platform/testkit"
	"loopguard/internal/services/scan/domain"
)

func drain(t *testing.T, r domain.ReaderPort) ([]domain.Record, error) {
	t.Helper()
	var out []domain.Record
	for {
		rec, err := r.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func TestLineReader(t *testing.T) {
	in := "first\r\n\n   \nsecond line\nthird"
	got, err := drain(t, NewLineReader(strings.NewReader(in)))
	if err != nil {
		t.Fatal(err)
	}
	want := []domain.Record{{ID: "1", Text: "first"}, {ID: "4", Text: "second line"}, {ID: "5", Text: "third"}}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLineReader_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLineReader(strings.NewReader("x")).Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestJSONLReader(t *testing.T) {
	in := `{"id":"a","text":"旺柴旺柴"}

{"text":"no id"}
`
	got, err := drain(t, NewJSONLReader(strings.NewReader(in)))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[0].Text != "旺柴旺柴" || got[1].ID != "3" {
		t.Fatalf("got %+v", got)
	}
}

func TestJSONLReader_DecodeError(t *testing.T) {
	in := "{\"id\":\"a\",\"text\":\"ok\"}\n{\"id\": 1\n"
	got, err := drain(t, NewJSONLReader(strings.NewReader(in)))
	if len(got) != 1 || !perr.IsCode(err, perr.ErrorCodeDecode) {
		t.Fatalf("got %d records, err %v", len(got), err)
	}
	kit.MustContain(t, err.Error(), "line 2")

	_, err = drain(t, NewJSONLReader(strings.NewReader(`{"id": 5, "text": "x"}`)))
	if !perr.IsCode(err, perr.ErrorCodeDecode) {
		t.Fatalf("type mismatch err = %v", err)
	}
}

func TestSliceReader(t *testing.T) {
	got, err := drain(t, NewSliceReader(domain.Record{ID: "1"}, domain.Record{ID: "2"}))
	if err != nil || len(got) != 2 {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func outcome(id, text string) domain.Outcome {
	return domain.Outcome{
		Record: domain.Record{ID: id, Text: text},
		Result: repetition.Detect(text),
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, WriterOptions{Truncate: true})
	ctx := context.Background()
	loop := "答：" + strings.Repeat("旺柴", 8)

	if err := w.Write(ctx, outcome("1", "hello")); err != nil {
		t.Fatal(err)
	}
	o := outcome("2", loop)
	o.Script = "Han"
	if err := w.Write(ctx, o); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header + 2 rows, got:\n%s", out)
	}
	kit.MustContain(t, lines[0], "VERDICT")
	kit.MustContain(t, lines[0], "TRUNCATED")
	kit.MustContain(t, lines[1], "no_match")
	kit.MustContain(t, lines[2], "cjk")
	kit.MustContain(t, lines[2], `"旺柴"`)
	kit.MustContain(t, lines[2], `"答：旺柴"`)
	if strings.Index(lines[1], "no_match") != strings.Index(lines[2], "cjk") {
		t.Fatalf("columns not aligned:\n%s", out)
	}
}

func TestTextWriter_FlaggedOnly(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, WriterOptions{FlaggedOnly: true})
	_ = w.Write(context.Background(), outcome("1", "hello"))
	_ = w.Flush()
	if buf.Len() != 0 {
		t.Fatalf("clean rows should be skipped, got %q", buf.String())
	}
}

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, WriterOptions{Truncate: true})
	ctx := context.Background()
	_ = w.Write(ctx, outcome("1", "a <b> normal line"))
	_ = w.Write(ctx, outcome("2", strings.Repeat("again ", 4)))
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	var clean, flagged struct {
		ID        string             `json:"id"`
		Verdict   string             `json:"verdict"`
		Matches   []repetition.Match `json:"matches"`
		Truncated *string            `json:"truncated"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &clean); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &flagged); err != nil {
		t.Fatal(err)
	}
	if clean.Verdict != "no_match" || clean.Truncated != nil || len(clean.Matches) != 0 {
		t.Fatalf("clean = %+v", clean)
	}
	if flagged.Verdict != "generic" || flagged.Truncated == nil || *flagged.Truncated != "again " {
		t.Fatalf("flagged = %+v", flagged)
	}
	if flagged.Matches[0].Unit != "again " || flagged.Matches[0].Count != 4 {
		t.Fatalf("matches = %+v", flagged.Matches)
	}
}

func TestMemoryWriter(t *testing.T) {
	var w MemoryWriter
	_ = w.Write(context.Background(), outcome("1", "x"))
	if len(w.Outcomes()) != 1 || w.Flushed() {
		t.Fatalf("state before flush wrong")
	}
	_ = w.Flush()
	if !w.Flushed() {
		t.Fatalf("Flush not recorded")
	}
}
