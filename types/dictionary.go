package types

// DictionaryItem is a single key-value option passed to libav
// (for example to the demuxer or to a decoder).
type DictionaryItem struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type DictionaryItems []DictionaryItem

// Deduplicate keeps only the last value of each key. The resulting order
// follows the positions of those last values.
func (s DictionaryItems) Deduplicate() DictionaryItems {
	if s == nil {
		return nil
	}
	seen := map[string]struct{}{}
	result := make(DictionaryItems, 0, len(s))
	for i := len(s) - 1; i >= 0; i-- {
		item := s[i]
		if _, ok := seen[item.Key]; ok {
			continue
		}
		seen[item.Key] = struct{}{}
		result = append(result, item)
	}
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

func (s DictionaryItems) Get(key string) (string, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Key == key {
			return s[i].Value, true
		}
	}
	return "", false
}
