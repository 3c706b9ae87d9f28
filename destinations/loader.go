package destinations

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/marcelsud/leadhub/webhook"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

/* Loader reads destination seeds from destinations.yaml
 * Entries keep file order; names must be unique within a file
 */

// File represents the structure of destinations.yaml
type File struct {
	Destinations []Seed `yaml:"destinations"`
}

// Loader holds the loaded destinations
type Loader struct {
	destinations []webhook.Destination
	byName       map[string]int
	Now          func() time.Time
}

// NewLoader creates a new destination loader
func NewLoader() *Loader {
	return &Loader{
		byName: make(map[string]int),
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Load reads, parses and validates the destinations file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading destinations file: %w", err)
	}
	return l.Parse(data)
}

// Parse validates destinations from YAML content
func (l *Loader) Parse(data []byte) error {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing destinations YAML: %w", err)
	}

	now := l.Now()
	for i, seed := range file.Destinations {
		d, err := seed.Destination(now)
		if err != nil {
			return fmt.Errorf("validating destination #%d: %w", i+1, err)
		}
		if _, exists := l.byName[d.Name]; exists {
			return fmt.Errorf("validating destination #%d: duplicate name %q", i+1, d.Name)
		}
		l.byName[d.Name] = len(l.destinations)
		l.destinations = append(l.destinations, d)
	}
	return nil
}

// Get retrieves a destination by its name
func (l *Loader) Get(name string) (webhook.Destination, error) {
	i, exists := l.byName[name]
	if !exists {
		return webhook.Destination{}, fmt.Errorf("destination not found: %s", name)
	}
	return l.destinations[i], nil
}

// List returns all loaded destinations in file order
func (l *Loader) List() []webhook.Destination {
	out := make([]webhook.Destination, len(l.destinations))
	copy(out, l.destinations)
	return out
}

// Store is the subset of the destination store needed for seeding
type Store interface {
	List(ctx context.Context) ([]webhook.Destination, error)
	Create(ctx context.Context, d webhook.Destination) (webhook.Destination, error)
}

// Apply creates the loaded destinations when the store has none.
// It returns the number of destinations created.
func (l *Loader) Apply(ctx context.Context, store Store, logger zerolog.Logger) (int, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing destinations: %w", err)
	}
	if len(existing) > 0 {
		logger.Info().Int("existing", len(existing)).Msg("destination store not empty, skipping seed")
		return 0, nil
	}

	created := 0
	for _, d := range l.destinations {
		stored, err := store.Create(ctx, d)
		if err != nil {
			return created, fmt.Errorf("seeding destination %q: %w", d.Name, err)
		}
		created++
		logger.Info().
			Str("destination_id", stored.ID).
			Str("name", stored.Name).
			Bool("active", stored.IsActive).
			Msg("seeded destination")
	}
	return created, nil
}
