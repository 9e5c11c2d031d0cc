package domain

// PopularityTable is the offline popularity ranking of a domain, served as is.
type PopularityTable struct {
	items []Item
}

func NewPopularityTable(items []Item) PopularityTable {
	out := make([]Item, len(items))
	copy(out, items)
	return PopularityTable{items: out}
}

// Items returns a copy of the table in its stored order.
func (p PopularityTable) Items() []Item {
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

func (p PopularityTable) Len() int {
	return len(p.items)
}
