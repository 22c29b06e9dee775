package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	resp *MessageResponse
	err  error
	last MessageRequest
}

func (f *fakeClient) CreateMessage(_ context.Context, req MessageRequest) (*MessageResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestAnalystSimulationMode(t *testing.T) {
	a := NewAnalyst("", "claude-sonnet-4-5-20250929", 1024)
	require.True(t, a.Simulated())

	out := a.Commentary(context.Background(), SiteContext{
		Entity:  "Verallia",
		City:    "Cognac",
		Country: "France",
		Sector:  "Agroalimentaire",
	}, "")

	assert.Contains(t, out, SimulationMarker)
	assert.Contains(t, out, "Verallia")
	assert.Contains(t, out, "Cognac")
	assert.Contains(t, out, "Agroalimentaire")
}

func TestAnalystCommentary(t *testing.T) {
	fc := &fakeClient{resp: &MessageResponse{Text: "Analyse complète. Risque : Medium"}}
	a := NewAnalystWithClient(fc, "test-model", 512)
	require.False(t, a.Simulated())

	out := a.Commentary(context.Background(), SiteContext{
		Entity:   "Michelin",
		SiteName: "Cholet",
		City:     "Cholet",
		Country:  "France",
		Sector:   "Automobile",
		Facts:    map[string]string{"score global": "3.2", "valorisation": "80 M€"},
	}, "quels leviers de réduction ?")

	assert.Equal(t, "Analyse complète. Risque : Medium", out)
	assert.Equal(t, "test-model", fc.last.Model)
	assert.Equal(t, int64(512), fc.last.MaxTokens)

	require.Len(t, fc.last.Messages, 1)
	prompt := fc.last.Messages[0].Content
	assert.Contains(t, prompt, "Michelin")
	assert.Contains(t, prompt, "Cholet")
	assert.Contains(t, prompt, "score global : 3.2")
	assert.Contains(t, prompt, "quels leviers de réduction ?")

	for _, s := range DataSources {
		assert.Contains(t, fc.last.System, s.Name)
	}
}

func TestAnalystProviderError(t *testing.T) {
	fc := &fakeClient{err: eris.New("rate limited")}
	a := NewAnalystWithClient(fc, "test-model", 512)

	out := a.Commentary(context.Background(), SiteContext{Entity: "Arkema"}, "")
	assert.True(t, strings.HasPrefix(out, "❌"))
	assert.Contains(t, out, "rate limited")
}

func TestAnalystEmptyResponse(t *testing.T) {
	fc := &fakeClient{resp: &MessageResponse{}}
	a := NewAnalystWithClient(fc, "test-model", 512)

	out := a.Commentary(context.Background(), SiteContext{Entity: "Arkema"}, "")
	assert.True(t, strings.HasPrefix(out, "❌"))
}
