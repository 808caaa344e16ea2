package types

// EventAttribute is one key/value pair of an event. Indexed attributes
// are meant for lookup by indexers.
type EventAttribute struct {
	Key   string `cramberry:"1"`
	Value string `cramberry:"2"`
	Index bool   `cramberry:"3"`
}

// Event reports a state change made by a successful extrinsic, or a
// block-level summary.
type Event struct {
	Kind       string           `cramberry:"1"`
	Attributes []EventAttribute `cramberry:"2"`
}

// NewEvent builds an event of the given kind.
func NewEvent(kind string, attrs ...EventAttribute) Event {
	return Event{Kind: kind, Attributes: attrs}
}

// Attr is an unindexed attribute.
func Attr(key, value string) EventAttribute {
	return EventAttribute{Key: key, Value: value}
}

// IndexedAttr is an attribute indexers should pick up.
func IndexedAttr(key, value string) EventAttribute {
	return EventAttribute{Key: key, Value: value, Index: true}
}

// Get returns the value of the first attribute named key.
func (e Event) Get(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
