package plagiarism

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Options tunes the lexical pipeline
type Options struct {
	// ShingleSize is the number of tokens per shingle.
	ShingleSize int
	// MinTokenLength drops tokens with this many characters or fewer.
	MinTokenLength int
	// Scorer defaults to Jaccard.
	Scorer Scorer
}

func DefaultOptions() Options {
	return Options{
		ShingleSize:    DefaultShingleSize,
		MinTokenLength: DefaultMinTokenLength,
		Scorer:         Jaccard,
	}
}

// BatchResult holds the ranked pair scores of one comparison batch
type BatchResult struct {
	Scores []models.PairScore
	// Skipped lists ids of documents whose content was unavailable.
	Skipped []string
	// Compared is the number of documents that took part in the comparison.
	Compared int
}

// Comparator runs all-pairs comparison over a batch of documents.
// It holds no per-batch state and is safe for concurrent use.
type Comparator struct {
	opts Options
	pool *WorkerPool
}

// NewComparator creates a comparator. When pool is nil pairs are scored on the calling goroutine.
func NewComparator(opts Options, pool *WorkerPool) *Comparator {
	if opts.ShingleSize <= 0 {
		opts.ShingleSize = DefaultShingleSize
	}
	if opts.MinTokenLength < 0 {
		opts.MinTokenLength = DefaultMinTokenLength
	}
	if opts.Scorer == nil {
		opts.Scorer = Jaccard
	}
	return &Comparator{opts: opts, pool: pool}
}

func (c *Comparator) Options() Options {
	return c.opts
}

// Shingles normalizes and shingles one text with the comparator's settings
func (c *Comparator) Shingles(raw string) ShingleSet {
	return Shingle(NormalizeWith(raw, c.opts.MinTokenLength), c.opts.ShingleSize)
}

type shingledDocument struct {
	doc      models.Document
	shingles ShingleSet
}

// CompareBatch scores every unordered pair (i, j), i < j, of the usable
// documents in input order and returns them sorted by score descending,
// ties kept in discovery order. Documents with a load error are skipped.
// Cost is D*(D-1)/2 set comparisons for D usable documents.
func (c *Comparator) CompareBatch(ctx context.Context, docs []models.Document) (*BatchResult, error) {
	result := &BatchResult{
		Scores:  []models.PairScore{},
		Skipped: []string{},
	}

	usable := make([]models.Document, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if seen[doc.ID] {
			log.Debug().Str("documentId", doc.ID).Msg("Duplicate document id ignored")
			continue
		}
		seen[doc.ID] = true

		if !doc.Available() {
			log.Warn().Err(doc.LoadErr).Str("documentId", doc.ID).Msg("Skipping unavailable document")
			result.Skipped = append(result.Skipped, doc.ID)
			continue
		}
		usable = append(usable, doc)
	}
	result.Compared = len(usable)

	// Edge Case: fewer than two documents, nothing to pair
	if len(usable) < 2 {
		return result, nil
	}

	shingled, err := c.shingleAll(ctx, usable)
	if err != nil {
		return nil, err
	}

	scores, err := c.scorePairs(ctx, shingled)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	result.Scores = scores

	return result, nil
}

// shingleAll normalizes and shingles each document once
func (c *Comparator) shingleAll(ctx context.Context, docs []models.Document) ([]shingledDocument, error) {
	shingled := make([]shingledDocument, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			shingled[i] = shingledDocument{doc: doc, shingles: c.Shingles(doc.RawText)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to shingle documents: %w", err)
	}

	return shingled, nil
}

// scorePairs fills one PairScore per pair at its discovery index
func (c *Comparator) scorePairs(ctx context.Context, docs []shingledDocument) ([]models.PairScore, error) {
	n := len(docs)
	scores := make([]models.PairScore, n*(n-1)/2)

	if c.pool == nil {
		for i := 0; i < n-1; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scoreRow(docs, i, c.opts.Scorer, scores)
		}
		return scores, nil
	}

	rows := n - 1
	doneChan := make(chan int, rows)
	for i := 0; i < rows; i++ {
		job := &rowJob{
			docs:     docs,
			row:      i,
			scorer:   c.opts.Scorer,
			out:      scores,
			doneChan: doneChan,
		}
		if err := c.pool.Submit(job); err != nil {
			return nil, fmt.Errorf("failed to submit comparison job: %w", err)
		}
	}

	for completed := 0; completed < rows; {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.pool.Done():
			return nil, ErrPoolClosed
		case <-doneChan:
			completed++
		}
	}

	return scores, nil
}

// rowJob scores document row against every later document of the batch
type rowJob struct {
	docs     []shingledDocument
	row      int
	scorer   Scorer
	out      []models.PairScore
	doneChan chan<- int
}

// Execute writes only the out slots owned by its row, so rows never overlap.
func (j *rowJob) Execute(ctx context.Context) error {
	scoreRow(j.docs, j.row, j.scorer, j.out)
	// doneChan is buffered for every row; this send never blocks.
	j.doneChan <- j.row
	return nil
}

func scoreRow(docs []shingledDocument, i int, scorer Scorer, out []models.PairScore) {
	idx := rowOffset(len(docs), i)
	a := docs[i]
	for j := i + 1; j < len(docs); j++ {
		b := docs[j]
		out[idx] = models.PairScore{
			DocumentIDA: a.doc.ID,
			DocumentIDB: b.doc.ID,
			OwnerA:      a.doc.OwnerName,
			OwnerB:      b.doc.OwnerName,
			Score:       scorer(a.shingles, b.shingles),
		}
		idx++
	}
}

// rowOffset is the number of pairs discovered before row i
func rowOffset(n, i int) int {
	return i * (2*n - i - 1) / 2
}
