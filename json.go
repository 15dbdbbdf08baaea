package hashlink

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// jsonPair is the encoding of one LinkedMap entry. Maps encode as an array
// of pairs so the order survives and keys need not be strings.
type jsonPair[K comparable, V any] struct {
	Key   K `json:"key"`
	Value V `json:"value"`
}

// jsonLRU is the encoding of an LRU.
type jsonLRU struct {
	Map     json.RawMessage `json:"map"`
	MaxSize *int            `json:"max_size"`
}

// MarshalJSON encodes the map as [{"key":k,"value":v},...] from the oldest to
// the newest entry.
func (m *LinkedMap[K, V]) MarshalJSON() ([]byte, error) {
	pairs := make([]jsonPair[K, V], 0, m.Len())
	for k, v := range m.All() {
		pairs = append(pairs, jsonPair[K, V]{Key: k, Value: v})
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON replaces the contents of the map with the decoded pairs, in
// input order. A key that repeats keeps its last value and position, as with
// Insert. The hasher and seed are kept.
func (m *LinkedMap[K, V]) UnmarshalJSON(data []byte) error {
	var pairs []jsonPair[K, V]
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("hashlink: decode map: %w", err)
	}
	m.Clear()
	m.Reserve(len(pairs))
	for _, p := range pairs {
		m.Insert(p.Key, p.Value)
	}
	return nil
}

// MarshalJSON encodes the set as an array from the oldest to the newest
// value.
func (s *LinkedSet[T]) MarshalJSON() ([]byte, error) {
	values := make([]T, 0, s.Len())
	for v := range s.All() {
		values = append(values, v)
	}
	return json.Marshal(values)
}

// UnmarshalJSON replaces the contents of the set with the decoded values.
// Duplicates keep their first position.
func (s *LinkedSet[T]) UnmarshalJSON(data []byte) error {
	var values []T
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("hashlink: decode set: %w", err)
	}
	s.Clear()
	s.Reserve(len(values))
	for _, v := range values {
		s.Insert(v)
	}
	return nil
}

// MarshalJSON encodes the cache as {"map":[...],"max_size":n} with the
// entries from the least to the most recently used.
func (c *LRU[K, V]) MarshalJSON() ([]byte, error) {
	data, err := c.m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	capacity := c.capacity
	return json.Marshal(jsonLRU{Map: data, MaxSize: &capacity})
}

// UnmarshalJSON replaces the cache with the decoded entries and capacity.
// If the payload holds more entries than max_size, the least recently used
// ones are dropped.
func (c *LRU[K, V]) UnmarshalJSON(data []byte) error {
	var raw jsonLRU
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("hashlink: decode lru: %w", err)
	}
	if raw.MaxSize == nil {
		return fmt.Errorf("hashlink: decode lru: missing max_size")
	}
	if *raw.MaxSize < 0 {
		return fmt.Errorf("hashlink: decode lru: negative max_size %d", *raw.MaxSize)
	}
	if len(raw.Map) == 0 {
		return fmt.Errorf("hashlink: decode lru: missing map")
	}
	if err := c.m.UnmarshalJSON(raw.Map); err != nil {
		return err
	}
	c.capacity = *raw.MaxSize
	c.evictOver(c.capacity, maxInt, nil)
	return nil
}
