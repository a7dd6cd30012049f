package router

import "testing"

func testTable() Table {
	return Table{
		Rules: []Rule{
			{Handler: "Email", Keywords: []string{"email", "gmail"}},
			{Handler: "Task", Keywords: []string{"todo"}},
		},
		Default: "General",
	}
}

func TestRoute(t *testing.T) {
	table := testTable()

	tests := []struct {
		name      string
		utterance string
		want      Handler
	}{
		{
			name:      "email keyword",
			utterance: "Check my email",
			want:      "Email",
		},
		{
			name:      "task keyword",
			utterance: "add a todo to buy milk",
			want:      "Task",
		},
		{
			name:      "no match falls back to default",
			utterance: "what's the weather",
			want:      "General",
		},
		{
			name:      "case insensitive match",
			utterance: "CHECK MY GMAIL INBOX",
			want:      "Email",
		},
		{
			name:      "keyword as substring",
			utterance: "my todos are piling up",
			want:      "Task",
		},
		{
			name:      "empty utterance",
			utterance: "",
			want:      "General",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Route(tt.utterance)
			if got != tt.want {
				t.Errorf("Route(%q) = %q, want %q", tt.utterance, got, tt.want)
			}
		})
	}
}

func TestRouteFirstMatchWins(t *testing.T) {
	// Overlapping keyword sets: declaration order is the priority
	table := Table{
		Rules: []Rule{
			{Handler: "First", Keywords: []string{"ping"}},
			{Handler: "Second", Keywords: []string{"ping", "pong"}},
		},
		Default: "Fallback",
	}

	if got := table.Route("ping pong"); got != "First" {
		t.Errorf("Route() = %q, want First (declaration order wins)", got)
	}
	if got := table.Route("pong only"); got != "Second" {
		t.Errorf("Route() = %q, want Second", got)
	}
}

func TestRouteDeterministic(t *testing.T) {
	table := testTable()
	for i := 0; i < 10; i++ {
		if got := table.Route("check my email"); got != "Email" {
			t.Fatalf("Route() = %q on iteration %d, want Email", got, i)
		}
	}
}

func TestRouteIgnoresEmptyKeywords(t *testing.T) {
	table := Table{
		Rules:   []Rule{{Handler: "Broken", Keywords: []string{""}}},
		Default: "Fallback",
	}
	if got := table.Route("anything at all"); got != "Fallback" {
		t.Errorf("Route() = %q, want Fallback (empty keyword must not match)", got)
	}
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		utterance string
		want      Handler
	}{
		{"compose a message to alice", "email"},
		{"remind me about the dentist appointment", "tasks"},
		{"tell me a joke", "general"},
	}
	for _, tt := range tests {
		if got := table.Route(tt.utterance); got != tt.want {
			t.Errorf("Route(%q) = %q, want %q", tt.utterance, got, tt.want)
		}
	}
}
