package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"newsbot/internal/model"
	"newsbot/internal/scheduler"
)

func TestParseLimitArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    int
		wantErr bool
	}{
		{name: "empty uses default", args: "", want: 5},
		{name: "explicit", args: "3", want: 3},
		{name: "extra words ignored", args: " 7 please", want: 7},
		{name: "upper bound", args: "20", want: 20},
		{name: "too many", args: "21", wantErr: true},
		{name: "zero", args: "0", wantErr: true},
		{name: "not a number", args: "all", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLimitArg(tt.args, 5, 20)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("limit mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatPost(t *testing.T) {
	tests := []struct {
		name  string
		title string
		link  string
		want  string
	}{
		{
			name:  "plain",
			title: "Цены на золото растут",
			link:  "https://kitco.com/news/a1",
			want:  "<b>Цены на золото растут</b>\nhttps://kitco.com/news/a1",
		},
		{
			name:  "markup in title escaped",
			title: "S&P <500> rallies",
			link:  "https://news.example/a?x=1&y=2",
			want:  "<b>S&amp;P &lt;500&gt; rallies</b>\nhttps://news.example/a?x=1&amp;y=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatPost(tt.title, tt.link)); diff != "" {
				t.Errorf("format mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatRecent(t *testing.T) {
	posts := []model.Post{
		{Title: "B", Link: "https://x.example/b"},
		{Title: "A", Link: "https://x.example/a"},
	}
	want := "<b>B</b>\nhttps://x.example/b\n\n<b>A</b>\nhttps://x.example/a"
	if diff := cmp.Diff(want, FormatRecent(posts)); diff != "" {
		t.Errorf("format mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatStatus(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("no report", func(t *testing.T) {
		want := "Subscribers: 0\nNo check has finished yet."
		if diff := cmp.Diff(want, FormatStatus(Status{})); diff != "" {
			t.Errorf("status mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("aborted cycle", func(t *testing.T) {
		got := FormatStatus(Status{Subscribers: 3, Last: &scheduler.CycleReport{
			StartedAt:  start,
			FinishedAt: start.Add(time.Second),
			Err:        "store failure: disk full",
		}})
		if !strings.Contains(got, "Aborted: store failure: disk full") {
			t.Errorf("missing abort reason:\n%s", got)
		}
		if strings.Contains(got, "running now") {
			t.Errorf("unexpected running line:\n%s", got)
		}
	})
}
