package youtube

import (
	"sort"
	"strings"
)

// NormalizeHashtags merges the snippet tags with every #token found in the
// title and description. The result is sorted by code point and joined with
// single spaces; nil means the video carries no hashtags at all.
func NormalizeHashtags(tags []string, title, description string) *string {
	set := make(map[string]struct{})

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "#") {
			t = "#" + t
		}
		set[t] = struct{}{}
	}

	for _, token := range strings.Fields(title + " " + description) {
		if len(token) > 1 && strings.HasPrefix(token, "#") {
			set[token] = struct{}{}
		}
	}

	if len(set) == 0 {
		return nil
	}

	all := make([]string, 0, len(set))
	for t := range set {
		all = append(all, t)
	}
	sort.Strings(all)

	joined := strings.Join(all, " ")
	return &joined
}

// CleanTag trims a user supplied tag and strips its leading '#' characters.
func CleanTag(tag string) string {
	return strings.TrimLeft(strings.TrimSpace(tag), "#")
}

// HasHashtag reports whether the space separated hashtag string contains tag,
// ignoring case and an optional leading '#'.
func HasHashtag(hashtags string, tag string) bool {
	want := strings.ToLower(CleanTag(tag))
	if want == "" {
		return false
	}
	for _, token := range strings.Fields(hashtags) {
		if strings.ToLower(strings.TrimLeft(token, "#")) == want {
			return true
		}
	}
	return false
}

// Batch splits ids into consecutive groups of at most size.
func Batch(ids []string, size int) [][]string {
	if size <= 0 {
		size = MaxBatchSize
	}
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
