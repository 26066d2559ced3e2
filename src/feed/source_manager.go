package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"invest-client/src/helpers"
	"invest-client/src/interfaces"
	"invest-client/src/logger"
	"invest-client/src/models"
)

// SourceManager aggregates IInstrumentSource instances and fetches them as one listing.
type SourceManager struct {
	Sources    map[string]interfaces.IInstrumentSource
	Logger     *logger.Logger
	MaxRetries int
	RetryDelay time.Duration
	mu         sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewSourceManager(log *logger.Logger) *SourceManager {
	if log == nil {
		log = logger.NewLogger(nil, "SourceManager")
	}
	return &SourceManager{
		Sources:    make(map[string]interfaces.IInstrumentSource),
		Logger:     log,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// -----------------------------------------------------------------------------

// AddSource registers a source under its name. Names must be unique since
// they decide which listing wins for a duplicated uid.
func (m *SourceManager) AddSource(source interfaces.IInstrumentSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := source.Name()
	if name == "" {
		return helpers.NewConfigurationError(nil, "instrument source without a name")
	}
	if _, exists := m.Sources[name]; exists {
		return helpers.NewConfigurationError(nil, "source %s already exists", name)
	}

	m.Sources[name] = source
	m.Logger.Debug("added source: %s", name)
	return nil
}

// AddSources registers every source, stopping at the first rejected one.
func (m *SourceManager) AddSources(sources ...interfaces.IInstrumentSource) error {
	for _, source := range sources {
		if err := m.AddSource(source); err != nil {
			return err
		}
	}
	return nil
}

// GetAllSources returns every source ordered by name.
func (m *SourceManager) GetAllSources() []interfaces.IInstrumentSource {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]interfaces.IInstrumentSource, 0, len(m.Sources))
	for _, s := range m.Sources {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// -----------------------------------------------------------------------------

// FetchAll fans out to all sources, each retried with backoff, and merges the
// listings. A failing source is logged and skipped; FetchAll fails only when
// every source failed. Duplicate uids keep the record of the source whose name
// sorts last.
func (m *SourceManager) FetchAll(ctx context.Context) ([]models.MInstrument, error) {
	sources := m.GetAllSources()
	if len(sources) == 0 {
		return nil, helpers.NewConfigurationError(nil, "no instrument sources registered")
	}

	listings := make([][]models.MInstrument, len(sources))
	errs := make([]error, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, s interfaces.IInstrumentSource) {
			defer wg.Done()
			errs[i] = helpers.RetryWithBackoff(ctx, m.Logger, "fetch "+s.Name(), m.MaxRetries, m.RetryDelay, func(ctx context.Context) error {
				data, err := s.FetchInstruments(ctx)
				if err != nil {
					return err
				}
				listings[i] = data
				return nil
			})
			if errs[i] != nil {
				m.Logger.Error("Source %s failed instrument fetch: %v", s.Name(), errs[i])
			}
		}(i, src)
	}
	wg.Wait()

	var merged []models.MInstrument
	index := make(map[string]int)
	failed := 0
	for i, data := range listings {
		if errs[i] != nil {
			failed++
			continue
		}
		for _, inst := range data {
			if pos, ok := index[inst.UID]; ok {
				merged[pos] = inst
				continue
			}
			index[inst.UID] = len(merged)
			merged = append(merged, inst)
		}
	}

	if failed == len(sources) {
		return nil, fmt.Errorf("all %d instrument sources failed: %w", failed, errs[0])
	}
	return merged, nil
}

// -----------------------------------------------------------------------------

// Name returns "SourceManager"
func (m *SourceManager) Name() string {
	return "SourceManager"
}
