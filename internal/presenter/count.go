package presenter

import "strconv"

// Count is a follower or followee count that may not have been fetched yet.
// The zero value is not loaded.
type Count struct {
	n      int64
	loaded bool
}

// NotLoaded returns a count that has not been fetched
func NotLoaded() Count {
	return Count{}
}

// Loaded returns a fetched count. Negative values are clamped to zero.
func Loaded(n int64) Count {
	if n < 0 {
		n = 0
	}
	return Count{n: n, loaded: true}
}

// Value returns the count and whether it has been loaded
func (c Count) Value() (int64, bool) {
	return c.n, c.loaded
}

// IsLoaded reports whether the count has been fetched
func (c Count) IsLoaded() bool {
	return c.loaded
}

func (c Count) String() string {
	if !c.loaded {
		return "-"
	}
	return strconv.FormatInt(c.n, 10)
}
