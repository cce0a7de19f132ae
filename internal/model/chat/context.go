package chat

// DataContext carries the engine-reported analysis context for one turn.
type DataContext struct {
	LastAnalyzedEntity *EntityRef `json:"lastAnalyzedEntity,omitempty"`
	LastTimeframe      string     `json:"lastTimeframe,omitempty"`
}

// ApplyDataContext reconciles engine-reported context into the session.
// Each field is last-write-wins: a present value overwrites the stored one
// outright, an absent value leaves it untouched. A nil context is a no-op,
// so failed turns never erase previously known context.
func (s *Session) ApplyDataContext(dc *DataContext) {
	if dc == nil {
		return
	}
	if dc.LastAnalyzedEntity != nil {
		s.LastAnalyzedEntity = dc.LastAnalyzedEntity
	}
	if dc.LastTimeframe != "" {
		s.LastTimeframe = dc.LastTimeframe
	}
}
