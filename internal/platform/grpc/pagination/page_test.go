package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 10, Max: 50}
	tests := []struct {
		in   int
		want int
	}{
		{0, 10},
		{-3, 10},
		{20, 20},
		{80, 50},
	}
	for _, tt := range tests {
		if got := ClampPageSize(tt.in, cfg); got != tt.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("ClampPageSize without defaults = %d, want 1", got)
	}
}

func TestNormalizeOrderBy(t *testing.T) {
	cfg := OrderByConfig{Default: "name", Allowed: []string{"name", "updated_at"}}
	if got, err := NormalizeOrderBy("", cfg); err != nil || got != "name" {
		t.Fatalf("default = %q, %v", got, err)
	}
	if got, err := NormalizeOrderBy(" Updated_At ", cfg); err != nil || got != "updated_at" {
		t.Fatalf("normalized = %q, %v", got, err)
	}
	if _, err := NormalizeOrderBy("owner", cfg); err == nil {
		t.Fatal("expected invalid order_by error")
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		token     string
		size      int
		wantStart int
		wantEnd   int
		wantNext  string
	}{
		{name: "first page", total: 5, size: 2, wantStart: 0, wantEnd: 2, wantNext: "2"},
		{name: "middle page", total: 5, token: "2", size: 2, wantStart: 2, wantEnd: 4, wantNext: "4"},
		{name: "last page", total: 5, token: "4", size: 2, wantStart: 4, wantEnd: 5},
		{name: "past the end", total: 5, token: "9", size: 2, wantStart: 5, wantEnd: 5},
		{name: "empty", total: 0, size: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, next, err := Window(tt.total, tt.token, tt.size)
			if err != nil {
				t.Fatalf("window: %v", err)
			}
			if start != tt.wantStart || end != tt.wantEnd || next != tt.wantNext {
				t.Fatalf("window = (%d, %d, %q), want (%d, %d, %q)", start, end, next, tt.wantStart, tt.wantEnd, tt.wantNext)
			}
		})
	}
	for _, token := range []string{"abc", "-1"} {
		if _, _, _, err := Window(3, token, 1); err == nil {
			t.Fatalf("expected error for token %q", token)
		}
	}
}
