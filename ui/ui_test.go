package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestTerminalUIPlainOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	u := NewWriterUI(buf, false)

	u.Info("provider %s", "http://127.0.0.1:8545")
	u.Indent().Warn("falling back")
	u.KeyValue([][2]string{{"gas", "4600000"}, {"gas_price", "12000000000"}})
	stop := u.Spinner("Resolving development")
	stop()

	want := strings.Join([]string{
		"provider http://127.0.0.1:8545",
		"  falling back",
		"gas        4600000",
		"gas_price  12000000000",
		"Resolving development",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestTerminalUITableAlignsColumns(t *testing.T) {
	buf := &bytes.Buffer{}
	u := NewWriterUI(buf, false)
	u.TableWithGroups([]string{"PARAMETER", "SOURCE"}, [][][]string{
		{{"provider", "env(PROVIDER)"}},
		{{"gas", "default(4600000)"}},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), buf.String())
	}
	width := len([]rune(lines[0]))
	for _, line := range lines {
		if !strings.Contains(line, "\x1b") && len([]rune(line)) != width {
			t.Fatalf("misaligned table:\n%s", buf.String())
		}
	}
	if !strings.Contains(buf.String(), "default(4600000)") {
		t.Fatalf("missing cell:\n%s", buf.String())
	}
}

func TestIndentedWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	u := NewWriterUI(buf, false).Indent()
	fmt.Fprint(u.Writer(), "a: 1\nb: 2\n")
	if buf.String() != "  a: 1\n  b: 2\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRecordingUI(t *testing.T) {
	r := NewRecordingUI()
	r.Info("hello %d", 1)
	r.Indent().Error("nested failure")
	r.Table([]string{"A", "B"}, [][]string{{"1", "2"}})

	entries := r.Entries()
	if len(entries) != 4 {
		t.Fatalf("got %v", entries)
	}
	if entries[1].Method != "Error" || entries[1].Indent != 1 {
		t.Fatalf("got %+v", entries[1])
	}
	if got := r.Messages("TableRow"); len(got) != 1 || got[0] != "1 | 2" {
		t.Fatalf("got %v", got)
	}
	if !r.HasMessage("NESTED") {
		t.Fatalf("HasMessage should ignore case")
	}
}

func TestStyledTextJSON(t *testing.T) {
	data, err := json.Marshal(map[string]StyledText{"status": {Text: "ok", Severity: SeveritySuccess}})
	if err != nil {
		t.Fatalf("marshal: %s", err)
	}
	if string(data) != `{"status":"ok"}` {
		t.Fatalf("got %s", data)
	}
}
