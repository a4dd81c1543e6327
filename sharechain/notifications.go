package sharechain

import "fmt"

// NotificationType enumerates the events the store fires while
// appending shares. Dispatch is synchronous: the store runs entirely
// within the single cooperative execution context described by the
// coordinator, so there is no goroutine fan-out here, unlike a
// multi-threaded chain indexer's notification bus.
type NotificationType int

const (
	NTNewestChanged NotificationType = iota
	NTGapsFound
	NTOrphansFound
	NTCandidateArrived
	NTDeadArrived
	NTChainCalculatable
)

var notificationTypeStrings = map[NotificationType]string{
	NTNewestChanged:     "NTNewestChanged",
	NTGapsFound:         "NTGapsFound",
	NTOrphansFound:      "NTOrphansFound",
	NTCandidateArrived:  "NTCandidateArrived",
	NTDeadArrived:       "NTDeadArrived",
	NTChainCalculatable: "NTChainCalculatable",
}

func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("unknown notification type (%d)", int(n))
}

// Notification carries a NotificationType and its payload. Data holds:
//   - NTNewestChanged:     Share (the new tip)
//   - NTGapsFound:         []Gap
//   - NTOrphansFound:      []Share (the demoted shares)
//   - NTCandidateArrived:  Share (a sibling of the tip)
//   - NTDeadArrived:       Share (rejected, no descendant)
//   - NTChainCalculatable: nil
type Notification struct {
	Type NotificationType
	Data interface{}
}

type NotificationCallback func(*Notification)

func (c *ChainStore) Subscribe(callback NotificationCallback) {
	c.notifications = append(c.notifications, callback)
}

func (c *ChainStore) notify(typ NotificationType, data interface{}) {
	n := &Notification{Type: typ, Data: data}
	for _, callback := range c.notifications {
		callback(n)
	}
}
