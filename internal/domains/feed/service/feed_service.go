package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	catalog "catalog-sync-backend/internal/domains/catalog/model"
	"catalog-sync-backend/internal/domains/catalog/mapper"
	product "catalog-sync-backend/internal/domains/product/model"
	productrepo "catalog-sync-backend/internal/domains/product/repository"
	syncservice "catalog-sync-backend/internal/domains/sync/service"
)

// Both styles are always generated; they differ only in the image-service
// style parameter.
var feedStyles = []mapper.Style{mapper.StyleStandard, mapper.StyleChristmas}

const refreshFetchGroup = 10

// Result describes one feed generation run.
type Result struct {
	Files     map[string]string `json:"files"`
	Rows      int               `json:"rows"`
	Refreshed bool              `json:"refreshed"`
	Elapsed   string            `json:"elapsed"`
}

// Service generates the CSV feeds from the cache.
type Service interface {
	// Generate writes both style feeds under the public directory. With
	// refresh it re-pulls the source store into the cache first.
	Generate(ctx context.Context, refresh bool) (*Result, error)
	// FilePath returns where a style's feed lives on disk.
	FilePath(style mapper.Style) string
}

type feedService struct {
	products  productrepo.Repository
	source    syncservice.SourceClient
	opts      mapper.Options
	publicDir string
	log       zerolog.Logger
}

func NewFeedService(
	products productrepo.Repository,
	source syncservice.SourceClient,
	opts mapper.Options,
	publicDir string,
) Service {
	return &feedService{
		products:  products,
		source:    source,
		opts:      opts,
		publicDir: publicDir,
		log:       log.With().Str("component", "feed_generator").Logger(),
	}
}

func (s *feedService) FilePath(style mapper.Style) string {
	return filepath.Join(s.publicDir, fmt.Sprintf("catalog_%s.csv", style))
}

func (s *feedService) Generate(ctx context.Context, refresh bool) (*Result, error) {
	start := time.Now()

	if refresh {
		if err := s.refreshCache(ctx); err != nil {
			return nil, fmt.Errorf("feed refresh: %w", err)
		}
	}

	if err := os.MkdirAll(s.publicDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create public directory: %w", err)
	}

	result := &Result{
		Files:     make(map[string]string, len(feedStyles)),
		Refreshed: refresh,
	}

	rows := make([]int, len(feedStyles))
	g, gctx := errgroup.WithContext(ctx)
	for i, style := range feedStyles {
		i, style := i, style
		g.Go(func() error {
			items, err := s.buildRows(gctx, style)
			if err != nil {
				return err
			}
			rows[i] = len(items)
			return s.writeFile(style, items)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, style := range feedStyles {
		result.Files[string(style)] = s.FilePath(style)
		result.Rows = rows[i]
	}
	result.Elapsed = time.Since(start).String()

	s.log.Info().
		Int("rows", result.Rows).
		Bool("refreshed", refresh).
		Str("elapsed", result.Elapsed).
		Msg("Feed generated")

	return result, nil
}

// refreshCache replays the bulk path's fetch steps: all in-stock products,
// then each variable parent's variations in bounded groups.
func (s *feedService) refreshCache(ctx context.Context) error {
	products, err := s.source.FetchAllProducts(ctx, map[string]string{
		"stock_status": product.StockInStock.String(),
	})
	if err != nil {
		return err
	}

	if err := s.products.BulkUpsert(ctx, products); err != nil {
		return err
	}

	var parents []int64
	for i := range products {
		if products[i].Kind == product.KindVariable {
			parents = append(parents, products[i].ID)
		}
	}

	for start := 0; start < len(parents); start += refreshFetchGroup {
		end := start + refreshFetchGroup
		if end > len(parents) {
			end = len(parents)
		}
		group := parents[start:end]

		fetched := make([][]product.Product, len(group))
		g, gctx := errgroup.WithContext(ctx)
		for i, parentID := range group {
			i, parentID := i, parentID
			g.Go(func() error {
				variations, err := s.source.FetchVariations(gctx, parentID)
				if err != nil {
					return err
				}
				fetched[i] = variations
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		sets := make(map[int64][]product.Product, len(group))
		for i, parentID := range group {
			sets[parentID] = fetched[i]
		}
		if err := s.products.UpsertVariationSets(ctx, sets); err != nil {
			return err
		}
	}

	return nil
}

// mappingTask pairs a product with its mapping context.
type mappingTask struct {
	p      product.Product
	parent *product.Product
}

// buildRows walks the cache and maps every feed row. Unlike the replication
// engine, variable parents ARE emitted: the CSV consumer uses them as
// catalog anchors for the variation rows.
func (s *feedService) buildRows(ctx context.Context, style mapper.Style) ([]*catalog.Item, error) {
	simples, err := s.products.ListInStockByKind(ctx, product.KindSimple)
	if err != nil {
		return nil, err
	}
	variables, err := s.products.ListInStockByKind(ctx, product.KindVariable)
	if err != nil {
		return nil, err
	}

	tasks := make([]mappingTask, 0, len(simples)+len(variables)*2)
	for i := range simples {
		tasks = append(tasks, mappingTask{p: simples[i]})
	}

	for i := range variables {
		parent := variables[i]

		variations, err := s.products.ListVariationsByParent(ctx, parent.ID)
		if err != nil {
			return nil, err
		}

		// The parent row reports the aggregate of its children: in stock
		// while any child is, with the summed quantity.
		total := 0
		anyInStock := false
		for j := range variations {
			if !variations[j].InStock() {
				continue
			}
			anyInStock = true
			if variations[j].StockQuantity != nil {
				total += *variations[j].StockQuantity
			}
		}

		anchor := parent
		anchor.StockQuantity = &total
		if anyInStock {
			anchor.StockStatus = product.StockInStock
		} else {
			anchor.StockStatus = product.StockOutOfStock
		}
		tasks = append(tasks, mappingTask{p: anchor})

		for j := range variations {
			if !variations[j].InStock() {
				continue
			}
			tasks = append(tasks, mappingTask{p: variations[j], parent: &variables[i]})
		}
	}

	return s.mapTasks(tasks, style), nil
}

// mapTasks fans the pure mapping work across a small worker pool, keeping
// row order stable.
func (s *feedService) mapTasks(tasks []mappingTask, style mapper.Style) []*catalog.Item {
	n := len(tasks)
	if n == 0 {
		return nil
	}

	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}
	if max := (n + 9) / 10; workers > max {
		workers = max
	}
	if workers < 1 {
		workers = 1
	}

	items := make([]*catalog.Item, n)
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			break
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				items[i] = mapper.ToItem(&tasks[i].p, tasks[i].parent, style, s.opts)
			}
			return nil
		})
	}
	// Workers are pure mapping, no errors to surface.
	_ = g.Wait()

	return items
}

func (s *feedService) writeFile(style mapper.Style, items []*catalog.Item) error {
	path := s.FilePath(style)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := writeCSV(f, items); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
