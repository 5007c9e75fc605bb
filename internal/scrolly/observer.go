package scrolly

import (
	"sync"
)

// Margin shrinks the observed viewport, as fractions of its height.
type Margin struct {
	Top    float64 `koanf:"top"`
	Bottom float64 `koanf:"bottom"`
}

// ObserverConfig holds the visibility threshold and viewport margin.
type ObserverConfig struct {
	Threshold float64 `koanf:"threshold"`
	Margin    Margin  `koanf:"margin"`
}

// DefaultObserverConfig activates a step once half of it is inside the middle
// 60% of the viewport.
func DefaultObserverConfig() ObserverConfig {
	return ObserverConfig{
		Threshold: 0.5,
		Margin:    Margin{Top: 0.2, Bottom: 0.2},
	}
}

// Entry is one region's geometry in an intersection batch, in viewport
// coordinates.
type Entry struct {
	Region string  `json:"region"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Observer tracks step regions and decides which one is active.
type Observer struct {
	cfg     ObserverConfig
	regions map[string]int
	closed  bool
	mu      sync.Mutex
}

// NewObserver creates an observer with the given configuration.
func NewObserver(cfg ObserverConfig) *Observer {
	return &Observer{
		cfg:     cfg,
		regions: make(map[string]int),
	}
}

// Observe subscribes a region that maps to step index.
func (o *Observer) Observe(region string, index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.regions[region] = index
}

// Unobserve releases one region.
func (o *Observer) Unobserve(region string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.regions, region)
}

// Disconnect releases every region. Later batches are ignored.
func (o *Observer) Disconnect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.regions = make(map[string]int)
}

// Observed returns the number of subscribed regions.
func (o *Observer) Observed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.regions)
}

// Ratio returns the fraction of the entry's region inside the viewport after
// applying the margin.
func (o *Observer) Ratio(e Entry, viewport float64) float64 {
	if e.Height <= 0 || viewport <= 0 {
		return 0
	}
	rootTop := viewport * o.cfg.Margin.Top
	rootBottom := viewport * (1 - o.cfg.Margin.Bottom)

	top := max(rootTop, e.Top)
	bottom := min(rootBottom, e.Top+e.Height)
	if bottom <= top {
		return 0
	}
	return min((bottom-top)/e.Height, 1)
}

// Process evaluates an intersection batch and returns the step index that
// becomes active. Among qualifying entries the greatest ratio wins and ties go
// to the later entry.
func (o *Observer) Process(viewport float64, batch []Entry) (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return 0, false
	}

	best, bestRatio := -1, -1.0
	for _, e := range batch {
		index, ok := o.regions[e.Region]
		if !ok {
			continue
		}
		r := o.Ratio(e, viewport)
		if r < o.cfg.Threshold || r <= 0 {
			continue
		}
		if r >= bestRatio {
			best, bestRatio = index, r
		}
	}
	return best, best >= 0
}
