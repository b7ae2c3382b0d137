package chat

// Session anchors one conversation to a single scraped page.
//
// ID is assigned by the record store on creation and never changes.
// PageContent is set once at creation and re-injected as transient system
// context on every model call; it is never stored inside Convo.
type Session struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	PageContent string    `json:"-"`
	Convo       []Message `json:"convo"`
}

// CloneConvo returns a copy of the conversation so callers can extend it
// without mutating the fetched history.
func (s Session) CloneConvo() []Message {
	copied := make([]Message, len(s.Convo), len(s.Convo)+2)
	copy(copied, s.Convo)
	return copied
}
