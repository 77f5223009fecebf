// Package stage defines the closed set of enrichment stages: which record
// fields each stage consumes, which it may populate, and the research
// prompt it sends to the grounded-search model.
package stage

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/silversky/crm-enrich/internal/model"
)

// Kind identifies an enrichment stage.
type Kind int

const (
	KindContact Kind = iota // person-focused research
	KindFund                // company-focused research
	KindDeepResearch        // strategy and portfolio research
)

func (k Kind) String() string {
	switch k {
	case KindContact:
		return "poc"
	case KindFund:
		return "fund"
	case KindDeepResearch:
		return "deep"
	default:
		return "unknown"
	}
}

// ParseKind resolves a stage name as used on the command line.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "poc", "contact":
		return KindContact, nil
	case "fund", "company":
		return KindFund, nil
	case "deep", "research":
		return KindDeepResearch, nil
	default:
		return 0, eris.Errorf("stage: unknown stage %q", s)
	}
}

// ParseKinds resolves a comma-separated stage list, preserving order.
func ParseKinds(s string) ([]Kind, error) {
	var kinds []Kind
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseKind(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return nil, eris.New("stage: empty stage list")
	}
	return kinds, nil
}

// Definition describes one stage's contract. Prompt building performs no
// I/O; the orchestrator owns transport, retries and pacing.
type Definition struct {
	Kind           Kind
	Inputs         []model.FieldKey
	Outputs        []model.FieldKey
	GroundedSearch bool
	MaxTokens      int
	Temperature    float64
	BuildPrompt    func(rec model.Record) string
}

// For returns the definition of a stage kind.
func For(k Kind) Definition {
	switch k {
	case KindContact:
		return Definition{
			Kind: KindContact,
			Inputs: []model.FieldKey{
				model.FundTitle, model.FundType,
				model.PocFirstName, model.PocLastName,
				model.PocRole, model.PocLinkedIn,
			},
			Outputs: []model.FieldKey{
				model.PocLinkedIn, model.PocRole,
				model.PocDescription, model.PocPhone,
			},
			GroundedSearch: true,
			MaxTokens:      4000,
			Temperature:    0.2,
			BuildPrompt:    buildContactPrompt,
		}
	case KindFund:
		return Definition{
			Kind: KindFund,
			Inputs: []model.FieldKey{
				model.FundTitle, model.FundType,
				model.FundCountry, model.FundCity,
				model.FundLinkedIn, model.FundCrunchbase,
				model.FundWebsite, model.FundSectors,
			},
			Outputs: []model.FieldKey{
				model.FundLinkedIn, model.FundCrunchbase, model.FundWebsite,
				model.FundCity, model.FundSectors, model.FundPreferredStage,
			},
			GroundedSearch: true,
			MaxTokens:      4000,
			Temperature:    0.2,
			BuildPrompt:    buildFundPrompt,
		}
	default:
		return Definition{
			Kind: KindDeepResearch,
			Inputs: []model.FieldKey{
				model.FundTitle, model.FundType,
				model.FundWebsite, model.FundSectors,
			},
			Outputs: []model.FieldKey{
				model.FundDescription, model.FundThesis,
				model.FundPortfolioCompanies,
				model.FundAUMUSD, model.FundAUMYear,
				model.FundGeographies,
			},
			GroundedSearch: true,
			MaxTokens:      4000,
			Temperature:    0.2,
			BuildPrompt:    buildDeepResearchPrompt,
		}
	}
}

// Definitions resolves a kind list into definitions, preserving order.
func Definitions(kinds []Kind) []Definition {
	defs := make([]Definition, 0, len(kinds))
	for _, k := range kinds {
		defs = append(defs, For(k))
	}
	return defs
}

// StandardSectors is the controlled vocabulary for fund.sectors. Stage
// output outside this list is dropped during validation.
var StandardSectors = []string{
	"venture-capital", "private-equity", "hedge-funds", "real-estate",
	"technology", "healthcare", "fintech", "cleantech", "biotech",
	"consumer", "enterprise-software", "ai-ml", "crypto-blockchain",
	"infrastructure", "energy", "manufacturing", "retail", "hospitality",
	"education", "media", "telecommunications", "agriculture", "transportation",
	"aerospace", "defense", "public-markets", "fixed-income", "commodities",
	"impact-investing", "esg", "sustainable-finance",
}

// IsStandardSector reports whether slug is in the controlled vocabulary.
func IsStandardSector(slug string) bool {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, s := range StandardSectors {
		if s == slug {
			return true
		}
	}
	return false
}

func orMissing(v string) string {
	if strings.TrimSpace(v) == "" {
		return "MISSING"
	}
	return v
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Unknown"
	}
	return v
}

func buildContactPrompt(rec model.Record) string {
	company := rec.Get(model.FundTitle)
	first, last := rec.ContactName()

	var b strings.Builder
	fmt.Fprintf(&b, `You are a professional contact research specialist. Focus ONLY on the PERSON, not the company.

PERSON TO RESEARCH:
- Name: %s %s
- Current role: %s
- Company: %s (%s)
- Current LinkedIn: %s

YOUR TASK: Research this PERSON using Google Search and provide:

1. **poc.linkedin** - Personal LinkedIn profile URL (linkedin.com/in/...)
   - Must be the person's profile, NOT the company page
   - Only if you find it with high confidence

2. **poc.role** - Their exact role/title at %s
   - Current position only
   - Verify accuracy

3. **poc.description** - Professional bio (2-3 sentences)
   - Their role and key responsibilities
   - Years of experience (if findable)
   - Previous companies/roles (if notable)
   - Write in third person, professional tone

4. **poc.phone** - Direct phone number (if publicly available)

RULES:
- Focus search on the PERSON, not the company
- Only add data with HIGH confidence
- Use null for fields you cannot verify
- Verify the person works at %s

RETURN FORMAT (JSON only):
{
  "poc.linkedin": "string or null",
  "poc.role": "string or null",
  "poc.description": "string or null",
  "poc.phone": "string or null",
  "_stage_meta": {
    "confidence": "high|medium|low",
    "fields_found": ["list of fields found"],
    "search_quality": "excellent|good|limited|poor",
    "notes": "brief explanation"
  }
}

Return ONLY valid JSON, no additional text.`,
		first, last,
		orUnknown(rec.Get(model.PocRole)),
		company, rec.Get(model.FundType),
		orMissing(rec.Get(model.PocLinkedIn)),
		company, company,
	)
	return b.String()
}

func buildFundPrompt(rec model.Record) string {
	city := rec.Get(model.FundCity)

	var b strings.Builder
	fmt.Fprintf(&b, `You are a professional company research specialist. Focus ONLY on the COMPANY, not individuals.

COMPANY TO RESEARCH:
- Name: %s
- Type: %s
- Location: %s, %s
- Current LinkedIn: %s
- Current Crunchbase: %s
- Current Website: %s
- Current Sectors: %s

YOUR TASK: Research this COMPANY using Google Search and provide:

1. **fund.linkedin** - Company LinkedIn page (linkedin.com/company/...)
   - Must be company page, NOT personal profiles
   - Official page only

2. **fund.crunchbase** - Crunchbase organization page (crunchbase.com/organization/...)
   - Official profile only

3. **fund.website** - Official company website
   - Primary domain only
   - Must NOT be LinkedIn or Crunchbase

4. **fund.sectors** - Investment focus areas as array
   Use ONLY these standardized values:
   %s

   - Map existing sectors to standard values
   - Add sectors found through research
   - Return as array: ["sector-1", "sector-2", ...]

5. **fund.preferred_stage** - Investment stage focus
   - Examples: "Seed", "Series A", "Growth", "Late Stage", "All Stages"
   - Only if clearly stated

6. **fund.city** - Headquarters city (if missing: %s)

RULES:
- Focus search on the COMPANY and its investment activities
- Only URLs in correct format (https://, no trailing slashes)
- Sectors must use standardized values only
- Use null for fields you cannot verify
- Verify all URLs are official and correct

RETURN FORMAT (JSON only):
{
  "fund.linkedin": "string or null",
  "fund.crunchbase": "string or null",
  "fund.website": "string or null",
  "fund.city": "string or null",
  "fund.sectors": ["array of standardized sectors"],
  "fund.preferred_stage": "string or null",
  "_stage_meta": {
    "confidence": "high|medium|low",
    "fields_found": ["list of fields found"],
    "fields_corrected": ["list of corrected fields"],
    "search_quality": "excellent|good|limited|poor",
    "notes": "brief explanation"
  }
}

Return ONLY valid JSON, no additional text.`,
		rec.Get(model.FundTitle),
		rec.Get(model.FundType),
		city, rec.Get(model.FundCountry),
		orMissing(rec.Get(model.FundLinkedIn)),
		orMissing(rec.Get(model.FundCrunchbase)),
		orMissing(rec.Get(model.FundWebsite)),
		orMissing(rec.Get(model.FundSectors)),
		strings.Join(StandardSectors, ", "),
		orMissing(city),
	)
	return b.String()
}

func buildDeepResearchPrompt(rec model.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a professional investment research analyst. Provide DEEP STRATEGIC insights about this firm.

COMPANY TO RESEARCH:
- Name: %s
- Type: %s
- Website: %s
- Sectors: %s

YOUR TASK: Research this investment firm's strategy and portfolio using Google Search:

1. **fund.description** - Company overview (3-4 sentences)
   - What they do and their market position
   - AUM or fund size (if public)
   - Year founded and key milestones
   - Notable achievements or recognition

2. **fund.thesis** - Investment thesis/strategy (2-3 sentences)
   - Investment philosophy and approach
   - What they look for in investments
   - Geographic or sector focus
   - Stage preference and ticket size

3. **fund.portfolio_companies** - Recent notable investments (array of objects)
   Find 3-5 recent portfolio companies:
   [
     {
       "name": "Company Name",
       "website": "https://...",
       "sector": "sector",
       "description": "1 sentence about the company"
     }
   ]

4. **fund.aum_usd** - Assets under management in US dollars (integer, if public)
   - Example: 500000000

5. **fund.aum_year** - Year the AUM figure refers to (integer)
   - Example: 2024

6. **fund.geographies** - Geographic investment focus (array)
   - Countries or regions they invest in
   - Example: ["North America", "Europe", "Asia-Pacific"]

RULES:
- Only include information you can verify through search
- Use null for fields you cannot find with confidence
- Be specific and factual, no speculation
- Portfolio companies must be real and verified
- Focus on recent, relevant information

RETURN FORMAT (JSON only):
{
  "fund.description": "string or null",
  "fund.thesis": "string or null",
  "fund.portfolio_companies": [
    {
      "name": "string",
      "website": "string or null",
      "sector": "string or null",
      "description": "string"
    }
  ],
  "fund.aum_usd": "integer or null",
  "fund.aum_year": "integer or null",
  "fund.geographies": ["array of regions"],
  "_stage_meta": {
    "confidence": "high|medium|low",
    "fields_found": ["list of fields found"],
    "search_quality": "excellent|good|limited|poor",
    "notes": "brief explanation"
  }
}

Return ONLY valid JSON, no additional text.`,
		rec.Get(model.FundTitle),
		rec.Get(model.FundType),
		orUnknown(rec.Get(model.FundWebsite)),
		orUnknown(rec.Get(model.FundSectors)),
	)
	return b.String()
}
