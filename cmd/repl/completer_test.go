package main

import (
	"reflect"
	"testing"
)

func newTestCompleter(t *testing.T) *replCompleter {
	sess, _ := newTestSession(t, "postgres")
	return &replCompleter{sess: sess}
}

func complete(c *replCompleter, line string) []string {
	_, got := c.candidates(line)
	return got
}

// --- Command completion ---

func TestCompleteCommandsEmpty(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	if got, names := complete(c, ""), c.sess.commandNames(); !reflect.DeepEqual(got, names) {
		t.Errorf("expected %v, got %v", names, got)
	}
}

func TestCompleteCommandsPrefix(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	if got := complete(c, "pa"); !reflect.DeepEqual(got, []string{"page", "parse"}) {
		t.Errorf("expected [page parse], got %v", got)
	}
	if got := complete(c, "rul"); !reflect.DeepEqual(got, []string{"rule", "rules"}) {
		t.Errorf("expected [rule rules], got %v", got)
	}
}

func TestCommandNamesSkipHidden(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	for _, name := range c.sess.commandNames() {
		if name == "p" || name == "run" {
			t.Errorf("hidden command %q listed", name)
		}
	}
}

// --- Argument completion ---

func TestCompleteArguments(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	tests := []struct {
		line string
		want []string
	}{
		{"engine my", []string{"mysql"}},
		{"engine mysql ", nil},
		{"rule o", []string{"offset", "order"}},
		{"rule order ", []string{"off", "on"}},
		{"rule order of", []string{"off"}},
		{"rule order on ", nil},
		{"page ", []string{"20", "1000"}},
		{"exec 2", []string{"20"}},
		{"exec 20 ", nil},
		{"parse sel", []string{"select"}},
		{"parse select count(di", []string{"distinct"}},
		{"parse select id from ", nil},
		{"tokens ", nil},
		{"connect ", nil},
	}
	for _, tt := range tests {
		if got := complete(c, tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("complete(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestCompleteStatementNumbers(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	if got := complete(c, "use "); got != nil {
		t.Errorf("expected nothing before parse, got %v", got)
	}
	if err := c.sess.Execute("parse select 1; select 2; select 3"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := complete(c, "use "); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}
	if got := complete(c, "use 2"); !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("expected [2], got %v", got)
	}
}

func TestDoReturnsSuffixes(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	line := []rune("engine po")
	newLine, length := c.Do(line, len(line))
	if length != 2 {
		t.Errorf("length: got %d, want 2", length)
	}
	if len(newLine) != 1 || string(newLine[0]) != "stgres " {
		t.Errorf("unexpected candidates: %q", newLine)
	}
}

func TestCompleteTablesAndLastDSN(t *testing.T) {
	sess, _ := newTestSession(t, "sqlite")
	connectBooks(t, sess)
	if err := sess.conn.loadSchema(); err != nil {
		t.Fatalf("loadSchema: %v", err)
	}
	c := &replCompleter{sess: sess}
	line := []rune("parse select * from bo")
	newLine, _ := c.Do(line, len(line))
	if len(newLine) != 1 || string(newLine[0]) != "ok " {
		t.Errorf("unexpected candidates: %q", newLine)
	}
	if got := complete(c, "parse select * from book join "); !reflect.DeepEqual(got, []string{"book"}) {
		t.Errorf("join: got %v", got)
	}
	if got := complete(c, "connect "); !reflect.DeepEqual(got, []string{":memory:"}) {
		t.Errorf("connect: got %v", got)
	}
}

func TestLastToken(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":            "",
		"abc":         "abc",
		"a b":         "b",
		"a,b":         "b",
		"count(id":    "id",
		"select id, ": "",
	}
	for in, want := range tests {
		if got := lastToken(in); got != want {
			t.Errorf("lastToken(%q) = %q, want %q", in, got, want)
		}
	}
}
