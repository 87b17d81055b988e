package allocation

import (
	"fmt"

	"github.com/vsinha/fulfillment/pkg/domain/entities"
)

// Target is an allocation destination: a stock location or an external channel
type Target struct {
	Location entities.LocationID
	Channel  entities.Channel
}

// LocationTarget targets a stock location
func LocationTarget(id entities.LocationID) Target {
	return Target{Location: id}
}

// ChannelTarget targets an external procurement channel
func ChannelTarget(ch entities.Channel) Target {
	return Target{Channel: ch}
}

// IsChannel reports whether the target is an external channel
func (t Target) IsChannel() bool {
	return t.Channel != ""
}

func (t Target) String() string {
	if t.IsChannel() {
		return fmt.Sprintf("channel %s", t.Channel)
	}
	return fmt.Sprintf("location %d", t.Location)
}

// MaxFor returns the largest quantity the target may hold given everything
// else in the plan. The target's own current allocation is excluded so an
// edit can keep or raise its value up to the combined ceiling. Locations are
// further bounded by their snapshot stock; a location missing from the
// snapshot has no stock. The result is never negative.
func MaxFor(target Target, plan Plan, snapshot *entities.StockSnapshot) entities.Quantity {
	others := plan.TotalAllocated() - plan.TargetQty(target)
	ceiling := plan.approved - others

	if !target.IsChannel() {
		var stock entities.Quantity
		if row, ok := snapshot.Lookup(target.Location); ok {
			stock = row.Allocatable()
		}
		ceiling = min(ceiling, stock)
	}

	return max(ceiling, 0)
}
