// Package neighbors provides batched, exact k-nearest-neighbor lookups
// over a fingerprint index.
package neighbors

import (
	"context"
	"errors"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/subashy6/matchkit/core"
	"github.com/subashy6/matchkit/distance"
	"github.com/subashy6/matchkit/fingerprint"
	"github.com/subashy6/matchkit/internal/queue"
	"github.com/subashy6/matchkit/resource"
)

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("k must be positive")

// Options contains configuration options for the calculator.
type Options struct {
	// Resources caps search-worker parallelism and is shared
	// process-wide. Nil means unlimited.
	Resources *resource.Controller
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{}

// Calculator performs exact brute-force Euclidean searches against all
// indexed fingerprints.
//
// Queries read the index directly; callers must serialize index mutation
// against in-flight queries (single-writer discipline, see
// matchkit.Suggester). Query batches amortize fixed overhead and fan out
// across bounded workers.
type Calculator struct {
	index *fingerprint.Index
	opts  Options
}

// NewCalculator creates a calculator bound to an index.
func NewCalculator(index *fingerprint.Index, optFns ...func(o *Options)) *Calculator {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Calculator{index: index, opts: opts}
}

// WithResources sets the shared resource controller.
func WithResources(c *resource.Controller) func(o *Options) {
	return func(o *Options) {
		o.Resources = c
	}
}

// TopK returns, for each query attribute, up to k nearest other
// attributes sorted by ascending Euclidean distance. The query attribute
// never appears among its own neighbors. Unknown attributes yield an
// empty neighbor list. Results are order-preserving with respect to the
// input.
func (c *Calculator) TopK(ctx context.Context, ids []core.AttributeID, k int) ([]core.Neighbors, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	results := make([]core.Neighbors, len(ids))
	if len(ids) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Resources.MaxWorkers())

	for i, id := range ids {
		g.Go(func() error {
			if err := c.opts.Resources.AcquireWorker(gctx); err != nil {
				return err
			}
			defer c.opts.Resources.ReleaseWorker()

			slot, ok := c.index.Slot(id)
			if !ok {
				results[i] = core.Neighbors{}
				return nil
			}
			results[i] = c.searchSlot(slot, k)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// searchSlot scans the whole matrix for the k nearest rows to the query
// slot. One extra candidate is requested to absorb the self-match; ties
// may push the self-match out, so the result is filtered and truncated
// afterwards.
func (c *Calculator) searchSlot(querySlot core.SlotID, k int) core.Neighbors {
	dim := c.index.Dimension()
	matrix := c.index.Matrix()
	rows := len(matrix) / dim
	query := c.index.Row(querySlot)

	top := queue.NewBounded(k + 1)
	for slot := 0; slot < rows; slot++ {
		d := distance.SquaredL2(query, matrix[slot*dim:(slot+1)*dim])
		top.Offer(queue.Candidate{Slot: uint32(slot), Distance: d})
	}

	candidates := top.Drain()
	neighbors := make(core.Neighbors, 0, k)
	for _, cand := range candidates {
		if core.SlotID(cand.Slot) == querySlot {
			continue
		}
		if len(neighbors) == k {
			break
		}
		neighbors = append(neighbors, core.Neighbor{
			AttributeID: c.index.IDAt(core.SlotID(cand.Slot)),
			Distance:    float32(math.Sqrt(float64(cand.Distance))),
		})
	}
	return neighbors
}
