// Package matchkit provides an embedded entity-resolution and term
// recommendation core for Go.
//
// Matchkit profiles attribute fingerprints, finds nearest neighbors, and
// turns labeled history into ranked glossary-term suggestions:
//
//   - Fixed-capacity fingerprint index with O(1) insert, update and delete
//   - Exact batched k-nearest-neighbor search with bounded parallelism
//   - Term recommendation from neighbor assignment/rejection history
//   - Adaptive per-term similarity thresholds driven by user feedback
//   - Predicate blocking with SQLite-backed spill for large record sets
//   - Active-learning sessions: disagreement sampling over rule-based and
//     logistic scorers, predicate cover learning with an error budget
//   - Compressed, checksummed index snapshots with atomic file replacement
//   - Process-wide resource limits (search workers, IO throughput)
//
// # Quick Start
//
// Create a suggester and index fingerprints:
//
//	ctx := context.Background()
//	sg, err := matchkit.NewSuggester(catalog, assignments,
//	    matchkit.WithCapacity(100_000),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	err = sg.SetFingerprint(ctx, attributeID, fingerprint)
//
// Query neighbors and recommend terms:
//
//	suggestions, err := sg.Recommend(ctx, attributeID, 10)
//	for _, s := range suggestions {
//	    fmt.Printf("%s %.2f\n", s.TermID, s.Confidence)
//	}
//
// Feed accept/reject decisions back to adapt thresholds:
//
//	changed, err := sg.ProcessFeedbacks(ctx, []recommend.Feedback{
//	    {TermID: termID, Positive: true},
//	})
//
// # Deduplication
//
// Generate candidate pairs with predicate blocking and label them in an
// active-learning session:
//
//	blocker, err := dedupe.NewBlocker(spillPath, predicates)
//	if err != nil {
//	    panic(err)
//	}
//	defer blocker.Close()
//
//	var pairs []core.RecordPair
//	for pair, err := range blocker.PerformBlocking(ctx, records) {
//	    if err != nil {
//	        panic(err)
//	    }
//	    pairs = append(pairs, pair)
//	}
//
//	session, err := dedupe.NewSession(ctx, recordStore, pairs, predicates)
//	for {
//	    pair, err := session.PopBiased(5)
//	    if errors.Is(err, dedupe.ErrExhaustedPool) {
//	        break
//	    }
//	    session.Label(pair, askUser(pair))
//	}
package matchkit
