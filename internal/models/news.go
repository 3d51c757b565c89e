package models

// NewsCapacity is the number of entries a clan's news feed retains.
const NewsCapacity = 10

// News is a bounded feed, newest entry first.
type News []string

// Push prepends entry and drops the oldest entries beyond NewsCapacity.
func (n *News) Push(entry string) {
	feed := make(News, 0, NewsCapacity)
	feed = append(feed, entry)
	for _, e := range *n {
		if len(feed) == NewsCapacity {
			break
		}
		feed = append(feed, e)
	}
	*n = feed
}

func (n News) Clone() News {
	if n == nil {
		return nil
	}
	out := make(News, len(n))
	copy(out, n)
	return out
}
