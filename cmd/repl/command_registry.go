package main

import (
	"sort"
	"strings"
)

// commandEntry maps a REPL prefix to its handler.
type commandEntry struct {
	prefix  string
	handler func(args string) error
	hidden  bool // excluded from commandNames()
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		// --- statements ---
		{prefix: "parse ", handler: func(a string) error { return s.cmdParse(a) }},
		{prefix: "p ", handler: func(a string) error { return s.cmdParse(a) }, hidden: true},
		{prefix: "statements", handler: func(_ string) error { return s.cmdStatements() }},
		{prefix: "use ", handler: func(a string) error { return s.cmdUse(a) }},
		{prefix: "tokens", handler: func(_ string) error { return s.cmdTokens() }},
		{prefix: "fragments", handler: func(_ string) error { return s.cmdFragments() }},
		{prefix: "full", handler: func(_ string) error { return s.cmdFull() }},
		{prefix: "clean", handler: func(_ string) error { return s.cmdClean() }},

		// --- paging ---
		{prefix: "bind ", handler: func(a string) error { return s.cmdBind(a) }},
		{prefix: "unbind", handler: func(_ string) error { return s.cmdUnbind() }},
		{prefix: "page ", handler: func(a string) error { return s.cmdPage(a) }},
		{prefix: "page", handler: func(_ string) error { return s.cmdPage("") }},
		{prefix: "count", handler: func(_ string) error { return s.cmdCount() }},
		{prefix: "rule ", handler: func(a string) error { return s.cmdRule(a) }},
		{prefix: "rules", handler: func(_ string) error { s.cmdRules(); return nil }},

		// --- database connectivity ---
		{prefix: "engine ", handler: func(a string) error { return s.cmdEngine(a) }},
		{prefix: "connect ", handler: func(a string) error { return s.cmdConnect(a) }},
		{prefix: "connect", handler: func(_ string) error { return s.cmdConnect("") }},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "tables", handler: func(_ string) error { return s.cmdTables() }},
		{prefix: "exec ", handler: func(a string) error { return s.cmdExec(a) }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdExec("") }},
		{prefix: "run", handler: func(_ string) error { return s.cmdExec("") }, hidden: true},
		{prefix: "raw", handler: func(_ string) error { return s.cmdRaw() }},

		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }},
	}

	// Sort by prefix length descending so longest prefixes match first.
	sort.Slice(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// exit/quit are handled by the REPL loop, not Execute().
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}
