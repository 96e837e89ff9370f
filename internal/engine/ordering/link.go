package ordering

import (
	"slices"

	"go.trai.ch/evoke/internal/core/domain"
)

// LinkEntry is one unit of a link line: a single library, or a group of
// mutually dependent libraries the linker must resolve together.
type LinkEntry struct {
	Members []domain.ComponentID
	Group   bool
}

// LinkPlan turns the clusters of origin into link entries in link order.
//
// A cluster of one is a plain entry. A cluster of two that contains origin is a
// plain entry of the other member. Any other cluster becomes a group of its
// members other than origin. Origin itself never appears.
func LinkPlan(origin domain.ComponentID, clusters [][]domain.ComponentID) []LinkEntry {
	var plan []LinkEntry
	for _, cluster := range LinkOrder(clusters) {
		members := slices.DeleteFunc(slices.Clone(cluster), func(id domain.ComponentID) bool {
			return id == origin
		})
		switch {
		case len(members) == 0:
			continue
		case len(cluster) == 1, len(cluster) == 2 && len(members) == 1:
			plan = append(plan, LinkEntry{Members: members})
		default:
			plan = append(plan, LinkEntry{Members: members, Group: true})
		}
	}
	return plan
}
