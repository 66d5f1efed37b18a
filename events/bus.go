package events

import (
	"log"
	"sync"

	"lemmy-mod-bot/model"
)

// EventName identifies one change feed on the bus.
type EventName string

const (
	PostCreated          EventName = "postcreated"
	PostUpdated          EventName = "postupdated"
	PostDeleted          EventName = "postdeleted"
	CommentCreated       EventName = "commentcreated"
	CommentUpdated       EventName = "commentupdated"
	CommentDeleted       EventName = "commentdeleted"
	PostReportCreated    EventName = "postreportcreated"
	CommentReportCreated EventName = "commentreportcreated"
)

// Change is one classified reconciliation result. Exactly one of the view
// pointers is set, matching the event name.
type Change struct {
	Name        EventName
	CommunityID int
	Config      model.CommunityConfig

	Post          *model.PostView
	Comment       *model.CommentView
	PostReport    *model.PostReportView
	CommentReport *model.CommentReportView
}

// Handler processes one change. A returned error is logged and isolated to
// this handler; the publish continues.
type Handler func(chg Change) error

// Filter limits a subscription to certain communities. nil means all.
type Filter func(communityID int) bool

type subscription struct {
	name    string
	filter  Filter
	handler Handler
}

// Bus is an in-process registry of change handlers. Publish invokes handlers
// synchronously in registration order; subscribers that want fire-and-forget
// semantics spawn their own goroutine.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventName][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[EventName][]subscription)}
}

// Subscribe registers a handler for an event. The name is only used in logs.
func (b *Bus) Subscribe(event EventName, name string, h Handler) {
	b.SubscribeFiltered(event, name, nil, h)
}

// SubscribeFiltered registers a handler that only sees changes whose
// community passes the filter.
func (b *Bus) SubscribeFiltered(event EventName, name string, f Filter, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[event] = append(b.subs[event], subscription{name: name, filter: f, handler: h})
}

// Publish fans the change out to every matching subscriber, in registration
// order. Handler errors never abort the fan-out.
func (b *Bus) Publish(chg Change) {
	b.mu.RLock()
	subs := b.subs[chg.Name]
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.filter != nil && !sub.filter(chg.CommunityID) {
			continue
		}
		if err := sub.handler(chg); err != nil {
			log.Printf("[EventBus] Handler %s failed for %s: %v", sub.name, chg.Name, err)
		}
	}
}
