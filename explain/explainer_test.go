package explain

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"lexsaksham-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordModel puts probability on class 1 when the keyword is present
type keywordModel struct {
	keyword string
	texts   []string
	err     error
}

func (m *keywordModel) Probabilities(ctx context.Context, texts []string) ([][]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.texts = append(m.texts, texts...)
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if strings.Contains(t, m.keyword) {
			out[i] = []float64{0.1, 0.9}
		} else {
			out[i] = []float64{0.8, 0.2}
		}
	}
	return out, nil
}

var terminationCls = &models.Classification{Label: "Termination", Type: models.ClauseTermination, LabelIndex: 1}

func TestExplain_FindsDecisiveWord(t *testing.T) {
	model := &keywordModel{keyword: "terminate"}
	e := New(model)

	weights, err := e.Explain(context.Background(), "Either party may terminate this agreement upon written notice", terminationCls)
	require.NoError(t, err)

	require.NotEmpty(t, weights)
	assert.LessOrEqual(t, len(weights), DefaultFeatures)
	assert.Equal(t, "terminate", weights[0].Word)
	assert.Greater(t, weights[0].Weight, 0.0)
	assert.Len(t, model.texts, DefaultSamples)
	assert.Equal(t, "Either party may terminate this agreement upon written notice", model.texts[0])
}

func TestExplain_Deterministic(t *testing.T) {
	text := "The Supplier shall indemnify and hold harmless the Customer"
	cls := &models.Classification{LabelIndex: 1}

	first, err := New(&keywordModel{keyword: "indemnify"}).Explain(context.Background(), text, cls)
	require.NoError(t, err)
	second, err := New(&keywordModel{keyword: "indemnify"}).Explain(context.Background(), text, cls)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExplain_WeightsRounded(t *testing.T) {
	weights, err := New(&keywordModel{keyword: "rent"}).Explain(context.Background(), "Tenant pays rent monthly to the Landlord", terminationCls)
	require.NoError(t, err)

	for _, w := range weights {
		assert.InDelta(t, math.Round(w.Weight*1000)/1000, w.Weight, 1e-12)
	}
}

func TestExplain_EmptyText(t *testing.T) {
	weights, err := New(&keywordModel{}).Explain(context.Background(), "   ", terminationCls)
	require.NoError(t, err)
	assert.Empty(t, weights)
}

func TestExplain_Errors(t *testing.T) {
	_, err := New(&keywordModel{err: errors.New("model down")}).Explain(context.Background(), "some clause text", terminationCls)
	assert.Error(t, err)

	_, err = New(&keywordModel{keyword: "x"}).Explain(context.Background(), "some clause text", &models.Classification{LabelIndex: 7})
	assert.ErrorIs(t, err, ErrLabelOutOfRange)

	_, err = New(&keywordModel{keyword: "x"}).Explain(context.Background(), "some clause text", nil)
	assert.Error(t, err)
}

func TestVocabulary(t *testing.T) {
	vocab, pos := vocabulary([]string{"the", "party", "the", "end"})
	assert.Equal(t, []string{"the", "party", "end"}, vocab)
	assert.Equal(t, []int{0, 1, 0, 2}, pos)
	assert.Equal(t, "party end", render([]string{"the", "party", "the", "end"}, pos, []bool{true, false, false}))
}
