package patronite

// Category is one tile of the category index.
type Category struct {
	ID   uint64
	Name string
	// Url is site relative and always starts with `/kategoria/`, it is both the
	// identity of the category and the first page of its creator listing.
	Url string
}

// Amount is the result of parsing a single stat cell.
// When Defaulted is true Value is always 0 and Reason says why.
type Amount struct {
	Value     int64
	Defaulted bool
	Reason    string
}

// Creator is one observation of a creator card.
type Creator struct {
	Name string
	Tags []string
	// CategoryID is assigned by the paginator, cards do not carry it.
	CategoryID uint64

	PatronCount   Amount
	MonthlyAmount Amount
	TotalAmount   Amount

	// IsFeatured is true iff the identity was in the featured carousel of the
	// category's first page.
	IsFeatured bool
	// Identity is the site relative profile path, it is the dedup key.
	Identity string
	ImageUrl string
	// ObservedAt is the unix time (seconds) the card was extracted at.
	ObservedAt int64
}

// Defaulted returns how many of the stat fields fell back to 0.
func (c Creator) Defaulted() int {
	n := 0
	for _, a := range []Amount{c.PatronCount, c.MonthlyAmount, c.TotalAmount} {
		if a.Defaulted {
			n++
		}
	}
	return n
}
