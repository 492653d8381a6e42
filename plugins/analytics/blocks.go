package analytics

import (
	"encoding/json"
	"fmt"
	"sort"

	"coursesync/model"
)

const (
	blocksField      = "blocks"
	idField          = "id"
	displayNameField = "display_name"
)

// ExtractModules returns one entry per value of the document's "blocks"
// object, ordered by block key.
//
// Every block must carry string "id" and "display_name" fields. The first
// block that does not fails the whole extraction with model.ErrSchema; no
// entries are returned in that case. Entries are neither filtered nor
// deduplicated.
func ExtractModules(doc Document) ([]model.ModuleEntry, error) {
	raw, ok := doc[blocksField]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", model.ErrSchema, blocksField)
	}

	var blocks map[string]json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil || blocks == nil {
		return nil, fmt.Errorf("%w: field %q is not an object", model.ErrSchema, blocksField)
	}

	keys := make([]string, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]model.ModuleEntry, 0, len(keys))
	for _, key := range keys {
		entry, err := extractBlock(key, blocks[key])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func extractBlock(key string, raw json.RawMessage) (model.ModuleEntry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return model.ModuleEntry{}, fmt.Errorf("%w: block %q is not an object", model.ErrSchema, key)
	}

	id, err := stringField(key, fields, idField)
	if err != nil {
		return model.ModuleEntry{}, err
	}
	name, err := stringField(key, fields, displayNameField)
	if err != nil {
		return model.ModuleEntry{}, err
	}
	return model.ModuleEntry{ID: id, Name: name}, nil
}

func stringField(key string, fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("%w: block %q: missing field %q", model.ErrSchema, key, name)
	}
	// null would otherwise decode into "" without error
	if string(raw) == "null" {
		return "", fmt.Errorf("%w: block %q: field %q is null", model.ErrSchema, key, name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: block %q: field %q is not a string", model.ErrSchema, key, name)
	}
	return s, nil
}
