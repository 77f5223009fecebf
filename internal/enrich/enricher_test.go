package enrich

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silversky/crm-enrich/internal/cost"
	"github.com/silversky/crm-enrich/internal/model"
	"github.com/silversky/crm-enrich/internal/resilience"
	"github.com/silversky/crm-enrich/internal/stage"
	"github.com/silversky/crm-enrich/pkg/gemini"
)

// stubClient returns canned responses keyed by a prompt substring.
type stubClient struct {
	responses map[string]string // prompt marker -> response text
	errs      map[string]error
	calls     []string
}

func (s *stubClient) GenerateContent(_ context.Context, req gemini.Request) (*gemini.Response, error) {
	for marker, err := range s.errs {
		if contains(req.Prompt, marker) {
			s.calls = append(s.calls, marker)
			return nil, err
		}
	}
	for marker, text := range s.responses {
		if contains(req.Prompt, marker) {
			s.calls = append(s.calls, marker)
			return &gemini.Response{Text: text, TotalTokens: 1000}, nil
		}
	}
	return &gemini.Response{Text: "{}", TotalTokens: 10}, nil
}

func contains(s, sub string) bool {
	return sub != "" && strings.Contains(s, sub)
}

func noRetry() resilience.Policy {
	return resilience.Policy{MaxAttempts: 1, InitialBackoff: 1, MaxBackoff: 1}
}

func janeDoe() model.Record {
	return model.Record{
		model.FundTitle:    "Acme Partners",
		model.FundType:     "Venture Capital",
		model.PocFirstName: "Jane",
		model.PocLastName:  "Doe",
	}
}

func TestEnrichRecordMergesStages(t *testing.T) {
	t.Parallel()

	client := &stubClient{responses: map[string]string{
		"contact research specialist": `{"poc.linkedin": "https://linkedin.com/in/jane-doe", "poc.role": "Partner",
			"_stage_meta": {"confidence": "high"}}`,
		"company research specialist": `{"fund.website": "https://acme.com", "fund.sectors": ["fintech"]}`,
	}}
	e := &Enricher{
		Client: client,
		Stages: stage.Definitions([]stage.Kind{stage.KindContact, stage.KindFund}),
		Retry:  noRetry(),
		Rates:  cost.DefaultRates(),
	}

	res, err := e.EnrichRecord(context.Background(), janeDoe())
	require.NoError(t, err)

	assert.False(t, res.Failed)
	assert.Equal(t, 2000, res.Tokens)
	assert.Greater(t, res.CostUSD, 0.0)
	assert.Equal(t, "https://linkedin.com/in/jane-doe", res.Merged.Record.Get(model.PocLinkedIn))
	assert.Equal(t, "Partner", res.Merged.Record.Get(model.PocRole))
	assert.Equal(t, "https://acme.com", res.Merged.Record.Get(model.FundWebsite))
	assert.Equal(t, []string{"fintech"}, res.Merged.Record[model.FundSectors])
	// Stages ran in order.
	assert.Equal(t, []string{"contact research specialist", "company research specialist"}, client.calls)
}

func TestEnrichRecordPartialFailure(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		errs: map[string]error{
			"contact research specialist": eris.New("gemini: unexpected status 400: bad request"),
		},
		responses: map[string]string{
			"company research specialist": `{"fund.website": "https://acme.com"}`,
		},
	}
	e := &Enricher{
		Client: client,
		Stages: stage.Definitions([]stage.Kind{stage.KindContact, stage.KindFund}),
		Retry:  noRetry(),
		Rates:  cost.DefaultRates(),
	}

	res, err := e.EnrichRecord(context.Background(), janeDoe())
	require.NoError(t, err)

	// One stage failing does not fail the record.
	assert.False(t, res.Failed)
	require.Len(t, res.Stages, 2)
	assert.Error(t, res.Stages[0].Err)
	assert.NoError(t, res.Stages[1].Err)
	assert.Equal(t, "https://acme.com", res.Merged.Record.Get(model.FundWebsite))
}

func TestEnrichRecordAllStagesFail(t *testing.T) {
	t.Parallel()

	client := &stubClient{errs: map[string]error{
		"contact research specialist": eris.New("gemini: unexpected status 400: nope"),
		"company research specialist": eris.New("gemini: unexpected status 400: nope"),
	}}
	e := &Enricher{
		Client: client,
		Stages: stage.Definitions([]stage.Kind{stage.KindContact, stage.KindFund}),
		Retry:  noRetry(),
		Rates:  cost.DefaultRates(),
	}

	res, err := e.EnrichRecord(context.Background(), janeDoe())
	require.NoError(t, err)

	assert.True(t, res.Failed)
	msg := res.FailureMessage()
	assert.Contains(t, msg, "poc:")
	assert.Contains(t, msg, "fund:")
}

func TestEnrichRecordParseFailure(t *testing.T) {
	t.Parallel()

	client := &stubClient{responses: map[string]string{
		"contact research specialist": "the model wrote prose instead of JSON",
	}}
	e := &Enricher{
		Client: client,
		Stages: stage.Definitions([]stage.Kind{stage.KindContact}),
		Retry:  noRetry(),
		Rates:  cost.DefaultRates(),
	}

	res, err := e.EnrichRecord(context.Background(), janeDoe())
	require.NoError(t, err)

	assert.True(t, res.Failed)
	require.Len(t, res.Stages, 1)
	assert.True(t, gemini.IsParseError(res.Stages[0].Err))
	// Tokens were still consumed by the failed call.
	assert.Equal(t, 1000, res.Tokens)
}

func TestEnrichRecordValidationIssuesRecorded(t *testing.T) {
	t.Parallel()

	client := &stubClient{responses: map[string]string{
		// Wrong person's profile: dropped with an issue, stage still succeeds.
		"contact research specialist": `{"poc.linkedin": "https://linkedin.com/in/john-smith", "poc.role": "Partner"}`,
	}}
	e := &Enricher{
		Client: client,
		Stages: stage.Definitions([]stage.Kind{stage.KindContact}),
		Retry:  noRetry(),
		Rates:  cost.DefaultRates(),
	}

	res, err := e.EnrichRecord(context.Background(), janeDoe())
	require.NoError(t, err)

	assert.False(t, res.Failed)
	assert.True(t, res.Merged.Record.IsBlank(model.PocLinkedIn))
	assert.Equal(t, "Partner", res.Merged.Record.Get(model.PocRole))
	require.Len(t, res.Merged.Issues, 1)
	assert.Contains(t, res.Merged.Issues[0], "poc.linkedin")
}

func TestEnrichRecordCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Enricher{
		Client: &stubClient{},
		Stages: stage.Definitions([]stage.Kind{stage.KindContact}),
		Retry:  noRetry(),
		Rates:  cost.DefaultRates(),
	}

	_, err := e.EnrichRecord(ctx, janeDoe())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
