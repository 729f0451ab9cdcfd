package tfidf

import (
	"fmt"
	"reflect"
	"testing"
)

func TestScoreRanksExactMatchFirst(t *testing.T) {
	docs := []string{
		"Our card machine fee is 2% per transaction.",
		"Bananas are yellow and monkeys enjoy them greatly.",
	}

	hits := Score("what is the card machine fee", docs, 2)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Index != 0 {
		t.Fatalf("expected matching document first, got index %d", hits[0].Index)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("match score %f not above unrelated score %f", hits[0].Score, hits[1].Score)
	}
	if hits[0].Score <= 0 {
		t.Fatalf("match score should be positive, got %f", hits[0].Score)
	}
}

func TestScoreEmptyDocuments(t *testing.T) {
	for _, query := range []string{"", "anything"} {
		if hits := Score(query, nil, 3); len(hits) != 0 {
			t.Errorf("Score(%q, nil, 3) = %v, want empty", query, hits)
		}
		if hits := Score(query, []string{}, 0); len(hits) != 0 {
			t.Errorf("Score(%q, [], 0) = %v, want empty", query, hits)
		}
	}
}

func TestScoreTopKLimit(t *testing.T) {
	docs := make([]string, 5)
	for i := range docs {
		docs[i] = fmt.Sprintf("document number %d talks about payment links", i)
	}
	hits := Score("payment links", docs, 3)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
}

func TestScoreStableTieOrder(t *testing.T) {
	// Identical documents score identically; original order must hold.
	docs := []string{"pix transfers are instant", "pix transfers are instant", "pix transfers are instant"}
	hits := Score("pix transfers", docs, 3)
	for i, h := range hits {
		if h.Index != i {
			t.Fatalf("tie order broken: position %d has index %d", i, h.Index)
		}
	}
}

func TestScoreOutOfVocabularyQuery(t *testing.T) {
	docs := []string{"maquininha smart accepts debit and credit"}
	hits := Score("zzzz qqqq", docs, 3)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Score != 0 {
		t.Fatalf("expected zero score for OOV query, got %f", hits[0].Score)
	}
}

func TestScoreStopWordOnlyCorpus(t *testing.T) {
	// Stop words and single characters produce an empty vocabulary.
	hits := Score("the and of", []string{"the of and", "a an the"}, 2)
	if len(hits) != 0 {
		t.Fatalf("expected empty result for empty vocabulary, got %v", hits)
	}
}

func TestExtractTerms(t *testing.T) {
	got := extractTerms("The quick Fox jumps")
	want := []string{"quick", "fox", "jumps", "quick fox", "fox jumps"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("extractTerms = %v, want %v", got, want)
	}
}

func TestScoreDeterministic(t *testing.T) {
	docs := []string{
		"tap to pay turns your phone into a card machine",
		"the digital account has no maintenance fee",
		"payment links can be shared on social media",
	}
	first := Score("card machine phone", docs, 3)
	for i := 0; i < 5; i++ {
		if got := Score("card machine phone", docs, 3); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}
