package embeddings

import "testing"

func TestEmbedIsDeterministic(t *testing.T) {
	p := NewHashProvider()
	a := p.Embed("open the calendar app and schedule a meeting")
	b := p.Embed("open the calendar app and schedule a meeting")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at index %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestEmbedIsUnitLength(t *testing.T) {
	p := NewHashProvider()
	v := p.Embed("search for flights to lisbon next week")
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq < 0.99 || sumSq > 1.01 {
		t.Fatalf("expected unit-length vector, got magnitude^2=%v", sumSq)
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	p := NewHashProvider()
	v := p.Embed("fill out the expense report form")
	if sim := CosineSimilarity(v, v); sim < 0.999 {
		t.Fatalf("expected self-similarity ~1.0, got %v", sim)
	}
}

func TestCosineSimilarityUnrelatedLowerThanNearDuplicate(t *testing.T) {
	p := NewHashProvider()
	a := p.Embed("open safari and navigate to github")
	b := p.Embed("open safari and navigate to gitlab")
	c := p.Embed("bake a loaf of sourdough bread")

	simNearDup := CosineSimilarity(a, b)
	simUnrelated := CosineSimilarity(a, c)
	if simNearDup <= simUnrelated {
		t.Fatalf("expected near-duplicate similarity (%v) > unrelated similarity (%v)", simNearDup, simUnrelated)
	}
}
