package flow

import (
	"fmt"
	"strings"
	"time"
)

// Layout selects how the upload page arranges result groups.
type Layout string

const (
	LayoutGrid    Layout = "grid"
	LayoutStacked Layout = "stacked"
)

// DefaultNotificationDuration is how long the success notification stays up.
const DefaultNotificationDuration = 3 * time.Second

// Variant captures the behavioural differences between the two upload pages.
type Variant struct {
	Name                 string
	Layout               Layout
	NotifyOnSuccess      bool
	NotificationDuration time.Duration
}

var (
	Standard = Variant{
		Name:                 "standard",
		Layout:               LayoutGrid,
		NotifyOnSuccess:      true,
		NotificationDuration: DefaultNotificationDuration,
	}
	Compact = Variant{
		Name:   "compact",
		Layout: LayoutStacked,
	}
)

func VariantByName(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Standard.Name:
		return Standard, nil
	case Compact.Name:
		return Compact, nil
	default:
		return Variant{}, fmt.Errorf("unknown page variant %q (want %s or %s)", name, Standard.Name, Compact.Name)
	}
}
