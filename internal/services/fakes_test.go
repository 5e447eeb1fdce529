package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"
)

const fakeDim = 16

// fakeAI embeds text deterministically by hashing tokens into a small vector,
// so passages sharing words with a query score higher than unrelated ones.
type fakeAI struct {
	mu               sync.Mutex
	dim              int
	embedErr         error
	generateErr      error
	generateResponse string
	prompts          []string
}

func newFakeAI() *fakeAI {
	return &fakeAI{
		dim:              fakeDim,
		generateResponse: "Summary: a short test document\nKeywords: alpha, beta",
	}
}

func (f *fakeAI) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(inputs))
	for i, s := range inputs {
		out[i] = embedTokens(s, f.dim)
	}
	return out, nil
}

func (f *fakeAI) GenerateText(_ context.Context, _ string, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, user)
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.generateResponse, nil
}

func (f *fakeAI) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeAI) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// vectorFor mirrors Embed for building expectations and seeding indexes.
func (f *fakeAI) vectorFor(text string) []float32 {
	return embedTokens(text, f.dim)
}

func embedTokens(s string, dim int) []float32 {
	vec := make([]float32, dim)
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(dim)]++
	}
	return vec
}
