package llm

import (
	"sort"
	"sync"
	"time"
)

// UsageKey identifies one aggregation bucket in the cost ledger.
type UsageKey struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Kind     string `json:"task_kind"`
}

// UsageTotals is the running aggregate for one bucket.
type UsageTotals struct {
	Requests     int     `json:"requests"`
	TokensInput  int     `json:"tokens_input"`
	TokensOutput int     `json:"tokens_output"`
	CostUSD      float64 `json:"cost_usd"`
}

// MonthlyUsage is one month's worth of buckets, for the admin surface.
type MonthlyUsage struct {
	Month   string       `json:"month"`
	Entries []UsageEntry `json:"entries"`
	Totals  UsageTotals  `json:"totals"`
}

// UsageEntry pairs a bucket key with its totals.
type UsageEntry struct {
	UsageKey
	UsageTotals
}

// Ledger records per-(provider, model, task kind) usage keyed by month.
// Appends are serialized; reads copy out a snapshot.
type Ledger struct {
	mu     sync.Mutex
	months map[string]map[UsageKey]UsageTotals
	now    func() time.Time
}

// NewLedger creates an empty cost ledger.
func NewLedger() *Ledger {
	return &Ledger{
		months: make(map[string]map[UsageKey]UsageTotals),
		now:    time.Now,
	}
}

// Record adds one gateway call to the current month's bucket.
func (l *Ledger) Record(provider, model string, kind TaskKind, tokensIn, tokensOut int, costUSD float64) {
	key := UsageKey{Provider: provider, Model: model, Kind: string(kind)}

	l.mu.Lock()
	defer l.mu.Unlock()

	month := l.now().UTC().Format("2006-01")
	bucket, ok := l.months[month]
	if !ok {
		bucket = make(map[UsageKey]UsageTotals)
		l.months[month] = bucket
	}

	totals := bucket[key]
	totals.Requests++
	totals.TokensInput += tokensIn
	totals.TokensOutput += tokensOut
	totals.CostUSD += costUSD
	bucket[key] = totals
}

// Months returns every recorded month, newest first.
func (l *Ledger) Months() []MonthlyUsage {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]MonthlyUsage, 0, len(l.months))
	for month, bucket := range l.months {
		mu := MonthlyUsage{Month: month}
		for key, totals := range bucket {
			mu.Entries = append(mu.Entries, UsageEntry{UsageKey: key, UsageTotals: totals})
			mu.Totals.Requests += totals.Requests
			mu.Totals.TokensInput += totals.TokensInput
			mu.Totals.TokensOutput += totals.TokensOutput
			mu.Totals.CostUSD += totals.CostUSD
		}
		sort.Slice(mu.Entries, func(i, j int) bool {
			if mu.Entries[i].Provider != mu.Entries[j].Provider {
				return mu.Entries[i].Provider < mu.Entries[j].Provider
			}
			return mu.Entries[i].Model < mu.Entries[j].Model
		})
		out = append(out, mu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}
