// Package plans defines subscription plans and their generation limits.
package plans

import (
	"sort"
	"strings"
)

// Unlimited marks a limit that is never reached.
const Unlimited = -1

// ID identifies a plan.
type ID string

const (
	Free     ID = "free"
	Pro      ID = "pro"
	Business ID = "business"
)

// Plan describes what a subscription allows.
type Plan struct {
	ID             ID       `json:"id"`
	Name           string   `json:"name"`
	PriceUSD       int      `json:"price"`          // Per month
	RepoLimit      int      `json:"repoLimit"`      // Unlimited for no cap
	DiagramsPerDay int      `json:"diagramsPerDay"` // Unlimited for no cap
	Disabled       bool     `json:"disabled"`       // Visible but not purchasable
	Features       []string `json:"features"`
}

var catalog = map[ID]Plan{
	Free: {
		ID:             Free,
		Name:           "Free",
		RepoLimit:      1,
		DiagramsPerDay: 1,
		Features: []string{
			"Connect 1 repository",
			"1 diagram generation per day",
			"Basic database visualization",
		},
	},
	Pro: {
		ID:             Pro,
		Name:           "Pro",
		PriceUSD:       10,
		RepoLimit:      10,
		DiagramsPerDay: 20,
		Features: []string{
			"Connect up to 10 repositories",
			"20 diagram generations per day",
			"Advanced database visualization",
			"Priority support",
		},
	},
	Business: {
		ID:             Business,
		Name:           "Business",
		PriceUSD:       29,
		RepoLimit:      Unlimited,
		DiagramsPerDay: Unlimited,
		Disabled:       true,
		Features: []string{
			"Unlimited repositories",
			"Unlimited diagram generations",
			"Team collaboration",
			"Priority support",
		},
	},
}

// Lookup returns the plan named id (case-insensitive).
func Lookup(id string) (Plan, bool) {
	p, ok := catalog[ID(strings.ToLower(strings.TrimSpace(id)))]
	return p, ok
}

// Get returns the plan named id, falling back to Free for unknown names.
func Get(id string) Plan {
	if p, ok := Lookup(id); ok {
		return p
	}
	return catalog[Free]
}

// All returns every plan ordered by price.
func All() []Plan {
	all := make([]Plan, 0, len(catalog))
	for _, p := range catalog {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PriceUSD < all[j].PriceUSD })
	return all
}

// AllowsDiagram reports whether another diagram may be generated after used
// generations today.
func (p Plan) AllowsDiagram(used int) bool {
	return p.DiagramsPerDay == Unlimited || used < p.DiagramsPerDay
}

// AllowsRepository reports whether a new repository may be added when count
// repositories already exist.
func (p Plan) AllowsRepository(count int) bool {
	return p.RepoLimit == Unlimited || count < p.RepoLimit
}
