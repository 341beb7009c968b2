// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package curator

import (
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/curator/ai"
	"github.com/poiesic/curator/ai/openai"
	"github.com/poiesic/curator/cluster"
	"github.com/poiesic/curator/enrich"
	"github.com/poiesic/curator/extract"
	"github.com/poiesic/curator/intake"
	"github.com/poiesic/curator/queue"
	"github.com/poiesic/curator/reembed"
	"github.com/poiesic/curator/search"
	"github.com/poiesic/curator/storage"
	badgerstore "github.com/poiesic/curator/storage/badger"
)

// Database bundles the store, the AI provider, and the two job queues, and
// hands out the services built on them. It is the single composition point
// for both the CLI and embedding applications.
type Database struct {
	store      *badgerstore.Store
	provider   ai.AIProvider
	extractor  extract.Extractor
	processing *queue.Queue
	summaries  *queue.Queue
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig  *ai.Config
	provider  ai.AIProvider
	extractor extract.Extractor
	inMemory  bool
}

// WithAIConfig sets the AI host and model configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider injects a prebuilt provider instead of constructing the
// OpenAI-compatible one. Used by tests and offline tooling.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithExtractor overrides the default web extractor.
func WithExtractor(extractor extract.Extractor) DatabaseOption {
	return func(o *databaseOptions) {
		o.extractor = extractor
	}
}

// WithInMemoryStore opens the store in memory, ignoring the file path.
func WithInMemoryStore() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens the store at filePath and wires up the default
// services.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	var store *badgerstore.Store
	var err error
	if options.inMemory {
		store, err = badgerstore.NewMemoryStore()
	} else {
		store, err = badgerstore.NewStore(filePath)
	}
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	extractor := options.extractor
	if extractor == nil {
		extractor = extract.NewWebExtractor()
	}

	return &Database{
		store:      store,
		provider:   provider,
		extractor:  extractor,
		processing: queue.New(queue.ContentProcessing, store),
		summaries:  queue.New(queue.ClusterSummary, store),
		logger:     slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

func (db *Database) Store() storage.Store {
	return db.store
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// ContentQueue is the high-throughput queue feeding the enrichment
// pipeline.
func (db *Database) ContentQueue() *queue.Queue {
	return db.processing
}

// SummaryQueue carries low-priority cluster summary refreshes.
func (db *Database) SummaryQueue() *queue.Queue {
	return db.summaries
}

func (db *Database) NewIntakeService(opts ...intake.Option) *intake.Service {
	return intake.NewService(db.store, db.store, db.processing, opts...)
}

func (db *Database) NewClusterService() *cluster.Service {
	return cluster.NewService(db.store, db.store, db.summaries)
}

func (db *Database) NewSummarizer() *cluster.Summarizer {
	return cluster.NewSummarizer(db.store, db.store, db.provider.Synthesizer())
}

func (db *Database) NewEnrichmentPipeline(opts ...enrich.Option) *enrich.Pipeline {
	return enrich.NewPipeline(db.store, db.store, db.store, db.extractor,
		db.provider.Analyzer(), db.provider.Embedder(), db.summaries, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.store, db.provider, opts...)
}

func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.store, db.store, db.provider.Embedder(), config, progress)
}

// NewWorkerManager builds a manager with one worker on each queue: the
// enrichment pipeline on content-processing and the summarizer on
// cluster-summary. Summary jobs are less urgent and poll half as often.
func (db *Database) NewWorkerManager(opts ...queue.ManagerOption) (*queue.Manager, error) {
	manager, err := queue.NewManager(opts...)
	if err != nil {
		return nil, err
	}

	pipeline := db.NewEnrichmentPipeline()
	summarizer := db.NewSummarizer()

	manager.Add(queue.NewWorker(db.processing, pipeline.ProcessJob))
	manager.Add(queue.NewWorker(db.summaries, summarizer.ProcessJob,
		queue.WithPollInterval(10*time.Second)))
	return manager, nil
}
