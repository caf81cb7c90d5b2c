package router

import (
	"reflect"
	"testing"
)

func TestTokenizeCommandLine(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"/report win", []string{"/report", "win"}},
		{"/report   123456   loss", []string{"/report", "123456", "loss"}},
		{`/echo "two words"`, []string{"/echo", "two words"}},
		{`/echo 'single quoted'`, []string{"/echo", "single quoted"}},
		{`/echo esc\"aped`, []string{"/echo", `esc"aped`}},
		{"", nil},
		{"   ", nil},
	}
	for _, c := range cases {
		got := tokenizeCommandLine(c.in)
		if len(got) == 0 && len(c.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("tokenizeCommandLine(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestParseFlags(t *testing.T) {
	pos, flags, bools := parseFlags([]string{"abc", "--limit=5", "--verbose", "-n", "3", "def"})
	if !reflect.DeepEqual(pos, []string{"abc", "def"}) {
		t.Errorf("positional = %#v", pos)
	}
	if flags["limit"] != "5" || flags["n"] != "3" {
		t.Errorf("flags = %#v", flags)
	}
	if !bools["verbose"] {
		t.Errorf("bools = %#v", bools)
	}
}

func TestCommandTreeRouting(t *testing.T) {
	root := newRoot()
	root.add(splitRoute("ping"), Command{Route: "ping"})
	root.add(splitRoute("plugin reload"), Command{Route: "plugin reload"})

	if n := root.find([]string{"ping"}); n == nil || n.cmd == nil || n.cmd.Route != "ping" {
		t.Fatalf("find ping: %+v", n)
	}
	if n := root.find([]string{"plugin", "reload"}); n == nil || n.cmd == nil || n.cmd.Route != "plugin reload" {
		t.Fatalf("find plugin reload: %+v", n)
	}
	// intermediate node exists but carries no command
	if n := root.find([]string{"plugin"}); n == nil || n.cmd != nil {
		t.Fatalf("expected group node for plugin: %+v", n)
	}
	if n := root.find([]string{"nope"}); n != nil {
		t.Fatalf("expected nil for unknown route, got %+v", n)
	}
}

func TestSanitizeTelegramCommand(t *testing.T) {
	cases := map[string]string{
		"report-result": "report_result",
		"Plugin Reload": "plugin_reload",
		"__x__":         "x",
		"9lives":        "cmd_9lives",
		"!!!":           "",
	}
	for in, want := range cases {
		if got := sanitizeTelegramCommand(in); got != want {
			t.Errorf("sanitizeTelegramCommand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTriggerFirstMatchWins(t *testing.T) {
	var hit []string
	trs := []TriggerRoute{
		{Plugin: "a", Match: func(s string) bool { return s == "x" }, Handle: nil},
		{Plugin: "b", Match: func(s string) bool { return true }, Handle: nil},
	}
	// Mirror the routeTrigger selection rule: first Match wins.
	pick := func(text string) string {
		for _, tr := range trs {
			if tr.Match(text) {
				return tr.Plugin
			}
		}
		return ""
	}
	hit = append(hit, pick("x"), pick("y"))
	if hit[0] != "a" || hit[1] != "b" {
		t.Fatalf("trigger order = %v, want [a b]", hit)
	}
}
