package provider

import "encoding/json"

// DecodeEntries unmarshals each raw entry into a T. Entries that do not decode
// are skipped and counted in dropped, so one bad entry never costs the batch.
func DecodeEntries[T any](raw []json.RawMessage) (entries []T, dropped int) {
	entries = make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			dropped++
			continue
		}
		entries = append(entries, v)
	}
	return entries, dropped
}
