// Package explain attributes a clause classification to individual words by
// masking words at random and watching the predicted-class probability move.
package explain

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"lexsaksham-backend/models"
)

const (
	DefaultSamples  = 20
	DefaultFeatures = 5

	// kernelWidth is applied to the fraction of words removed from a sample
	kernelWidth = 0.25
)

var ErrLabelOutOfRange = errors.New("predicted label index outside probability vector")

// ProbabilityModel returns one class distribution per text
type ProbabilityModel interface {
	Probabilities(ctx context.Context, texts []string) ([][]float64, error)
}

// Explainer implements service.Explainer with word-masking perturbations
type Explainer struct {
	model    ProbabilityModel
	samples  int
	features int
}

// Option is a functional option for Explainer
type Option func(*Explainer)

// WithSamples sets how many perturbed texts are scored, including the original
func WithSamples(n int) Option {
	return func(e *Explainer) {
		e.samples = n
	}
}

// WithFeatures sets how many words are returned
func WithFeatures(n int) Option {
	return func(e *Explainer) {
		e.features = n
	}
}

// New creates an explainer over the classifier's probabilities
func New(model ProbabilityModel, opts ...Option) *Explainer {
	e := &Explainer{
		model:    model,
		samples:  DefaultSamples,
		features: DefaultFeatures,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.samples < 2 {
		e.samples = 2
	}
	if e.features < 1 {
		e.features = DefaultFeatures
	}
	return e
}

// Explain returns the words that most move the predicted-class probability,
// ordered by absolute weight. Results are reproducible for a given text.
func (e *Explainer) Explain(ctx context.Context, text string, cls *models.Classification) ([]models.TokenWeight, error) {
	if cls == nil {
		return nil, errors.New("classification is required")
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return []models.TokenWeight{}, nil
	}

	vocab, positions := vocabulary(tokens)
	rng := rand.New(rand.NewPCG(seed(text), uint64(len(tokens))))

	masks := make([][]bool, e.samples) // masks[s][j] is true when vocab[j] was removed
	texts := make([]string, e.samples)
	weights := make([]float64, e.samples)
	for s := range masks {
		masks[s] = make([]bool, len(vocab))
		removed := 0
		if s > 0 {
			removed = 1 + rng.IntN(len(vocab))
			for _, j := range rng.Perm(len(vocab))[:removed] {
				masks[s][j] = true
			}
		}
		texts[s] = render(tokens, positions, masks[s])
		d := float64(removed) / float64(len(vocab))
		weights[s] = math.Sqrt(math.Exp(-(d * d) / (kernelWidth * kernelWidth)))
	}

	probs, err := e.model.Probabilities(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to score perturbations: %w", err)
	}
	if len(probs) != len(texts) {
		return nil, fmt.Errorf("expected %d probability vectors, got %d", len(texts), len(probs))
	}
	target := make([]float64, len(probs))
	for s, p := range probs {
		if cls.LabelIndex < 0 || cls.LabelIndex >= len(p) {
			return nil, ErrLabelOutOfRange
		}
		target[s] = p[cls.LabelIndex]
	}

	out := make([]models.TokenWeight, len(vocab))
	for j, word := range vocab {
		var inSum, inW, outSum, outW float64
		for s := range masks {
			if masks[s][j] {
				outSum += weights[s] * target[s]
				outW += weights[s]
			} else {
				inSum += weights[s] * target[s]
				inW += weights[s]
			}
		}
		var score float64
		if inW > 0 && outW > 0 {
			score = inSum/inW - outSum/outW
		}
		out[j] = models.TokenWeight{Word: word, Weight: score}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return math.Abs(out[a].Weight) > math.Abs(out[b].Weight)
	})
	if len(out) > e.features {
		out = out[:e.features]
	}
	for i := range out {
		out[i].Weight = math.Round(out[i].Weight*1000) / 1000
	}
	return out, nil
}

// vocabulary returns distinct tokens in first-seen order and, for each
// token position, the index of its vocabulary entry
func vocabulary(tokens []string) ([]string, []int) {
	index := make(map[string]int, len(tokens))
	var vocab []string
	positions := make([]int, len(tokens))
	for i, tok := range tokens {
		j, ok := index[tok]
		if !ok {
			j = len(vocab)
			index[tok] = j
			vocab = append(vocab, tok)
		}
		positions[i] = j
	}
	return vocab, positions
}

// render joins the tokens whose vocabulary entry is not masked
func render(tokens []string, positions []int, mask []bool) string {
	kept := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if !mask[positions[i]] {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

func seed(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}
