package tables

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tsawler/pdfbatch/model"
)

// ModeLattice is the name of the ruling-line detector.
const ModeLattice = "lattice"

// Detector finds tables on one page. Detectors keep configuration state
// and are not safe for concurrent use; take a fresh one from GetDetector
// per goroutine.
type Detector interface {
	Detect(page *model.Page) ([]*model.Table, error)
	Name() string
	Configure(config Config) error
}

// Config tunes detection. Lengths are in PDF points.
type Config struct {
	MinRows int
	MinCols int

	// AlignmentTolerance is how far apart two ruling lines may be and still
	// count as the same boundary, or as touching.
	AlignmentTolerance float64

	// MinLineLength drops ruling segments shorter than this.
	MinLineLength float64
}

// DefaultConfig keeps tables of at least two rows and two columns.
func DefaultConfig() Config {
	return Config{
		MinRows:            2,
		MinCols:            2,
		AlignmentTolerance: 2.0,
		MinLineLength:      10.0,
	}
}

// Validate reports configuration values no detector can work with.
func (c Config) Validate() error {
	if c.MinRows < 1 || c.MinCols < 1 {
		return fmt.Errorf("minimum table size must be at least 1x1, got %dx%d", c.MinRows, c.MinCols)
	}
	if c.AlignmentTolerance < 0 {
		return fmt.Errorf("alignment tolerance must not be negative: %v", c.AlignmentTolerance)
	}
	if c.MinLineLength < 0 {
		return fmt.Errorf("minimum line length must not be negative: %v", c.MinLineLength)
	}
	return nil
}

// DetectorRegistry maps mode names to detector constructors.
type DetectorRegistry struct {
	mu        sync.RWMutex
	factories map[string]func() Detector
}

func NewRegistry() *DetectorRegistry {
	return &DetectorRegistry{factories: make(map[string]func() Detector)}
}

// Register adds or replaces the constructor for name.
func (r *DetectorRegistry) Register(name string, factory func() Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new detector for name, or nil when name is unknown.
func (r *DetectorRegistry) Get(name string) Detector {
	r.mu.RLock()
	factory := r.factories[name]
	r.mu.RUnlock()
	if factory == nil {
		return nil
	}
	return factory()
}

// List returns the registered names, sorted.
func (r *DetectorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// RegisterDetector registers a detection mode with the default registry.
func RegisterDetector(name string, factory func() Detector) {
	defaultRegistry.Register(name, factory)
}

// GetDetector returns a new detector for a registered mode, or nil.
func GetDetector(name string) Detector {
	return defaultRegistry.Get(name)
}

// ListDetectors returns the registered mode names.
func ListDetectors() []string {
	return defaultRegistry.List()
}

func init() {
	RegisterDetector(ModeLattice, func() Detector { return NewLatticeDetector() })
}
