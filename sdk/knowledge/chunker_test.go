package knowledge

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitChunksEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t", "..."} {
		if got := SplitChunks(input, 800); len(got) != 0 {
			t.Errorf("SplitChunks(%q) = %v, want empty", input, got)
		}
	}
}

func TestSplitChunksRespectsBound(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("The card machine accepts every major payment brand without extra setup. ")
	}

	chunks := SplitChunks(sb.String(), 200)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		// The bound applies to accumulated sentence text; the ". " rejoin
		// adds a little slack, so allow it.
		if utf8.RuneCountInString(c) > 200+2*strings.Count(c, ". ")+1 {
			t.Errorf("chunk %d too large (%d runes): %q", i, utf8.RuneCountInString(c), c)
		}
	}
}

func TestSplitChunksPreservesSentences(t *testing.T) {
	text := "First sentence here. Second one follows. Third closes it."
	chunks := SplitChunks(text, 30)

	var got []string
	for _, c := range chunks {
		for _, s := range strings.Split(c, ".") {
			if s = strings.TrimSpace(s); s != "" {
				got = append(got, s)
			}
		}
	}
	want := []string{"First sentence here", "Second one follows", "Third closes it"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sentence sequence not preserved: %v", got)
	}
}

func TestSplitChunksOversizedSentence(t *testing.T) {
	long := strings.Repeat("palavra ", 40) // ~320 chars, no period
	chunks := SplitChunks(long+".", 100)
	if len(chunks) != 1 {
		t.Fatalf("oversized sentence should become a single chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "palavra") {
		t.Fatalf("chunk lost content: %q", chunks[0])
	}
}

func TestSplitChunksDeterministic(t *testing.T) {
	text := "A. B. C. D. E. F. G. H."
	first := SplitChunks(text, 5)
	for i := 0; i < 3; i++ {
		if got := SplitChunks(text, 5); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{
			name: "first three sentences",
			text: "One. Two! Three? Four. Five.",
			max:  3,
			want: "One. Two! Three?",
		},
		{
			name: "fewer sentences than max",
			text: "Only one here.",
			max:  3,
			want: "Only one here.",
		},
		{
			name: "no terminators",
			text: "  just a fragment without punctuation  ",
			max:  3,
			want: "just a fragment without punctuation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.text, tt.max); got != tt.want {
				t.Fatalf("Summarize = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeLongFragmentTruncates(t *testing.T) {
	long := strings.Repeat("x", 900)
	got := Summarize(long, 3)
	if utf8.RuneCountInString(got) != 500 {
		t.Fatalf("expected 500-rune prefix, got %d", utf8.RuneCountInString(got))
	}
}
