package collector

import "pindl/pkg/models"

// PinMap is an insertion-ordered map of pin records. Re-setting an existing
// key replaces the record but keeps its original position, so the output
// order matches the order pins first appeared on screen.
type PinMap struct {
	keys  []string
	byKey map[string]models.PinRecord
}

func NewPinMap() *PinMap {
	return &PinMap{byKey: make(map[string]models.PinRecord)}
}

func (m *PinMap) Set(key string, pin models.PinRecord) {
	if _, exists := m.byKey[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.byKey[key] = pin
}

func (m *PinMap) Get(key string) (models.PinRecord, bool) {
	pin, ok := m.byKey[key]
	return pin, ok
}

func (m *PinMap) Len() int {
	return len(m.byKey)
}

// Keys returns the keys in first-seen order.
func (m *PinMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the records in first-seen order.
func (m *PinMap) Values() []models.PinRecord {
	out := make([]models.PinRecord, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.byKey[k])
	}
	return out
}
