package discovery

// defaultToggleThreshold backs the meme and quant toggles when the
// caller does not override them.
const defaultToggleThreshold = 60

// applyFilters runs the post-scoring filter stage. Hard constraints
// (price and market cap ceilings) are AND'd; category toggles are OR'd,
// so a candidate survives when it clears every hard constraint and at
// least one enabled toggle. With no toggles enabled only the hard
// constraints apply.
func applyFilters(candidates []ScoredCandidate, opts Options) []ScoredCandidate {
	minMeme := opts.MinMemeScore
	if minMeme == 0 {
		minMeme = defaultToggleThreshold
	}
	minQuant := opts.MinQuantScore
	if minQuant == 0 {
		minQuant = defaultToggleThreshold
	}

	anyToggle := opts.ShowPennyStocks || opts.ShowMemeStocks || opts.ShowQuantPicks

	out := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !passesHardConstraints(c, opts) {
			continue
		}
		if anyToggle && !passesToggles(c, opts, minMeme, minQuant) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func passesHardConstraints(c ScoredCandidate, opts Options) bool {
	if opts.MaxPrice > 0 {
		// A candidate without a price cannot prove it is under the
		// ceiling, so a price cap excludes it.
		if c.Price == nil || c.Price.Price > opts.MaxPrice {
			return false
		}
	}
	if opts.MaxMarketCap > 0 && c.MarketCap > opts.MaxMarketCap {
		return false
	}
	return true
}

func passesToggles(c ScoredCandidate, opts Options, minMeme, minQuant int) bool {
	if opts.ShowPennyStocks && c.Scores.PennyStock {
		return true
	}
	if opts.ShowMemeStocks && c.Scores.MemeScore >= minMeme {
		return true
	}
	if opts.ShowQuantPicks && c.Scores.QuantScore >= minQuant {
		return true
	}
	return false
}
