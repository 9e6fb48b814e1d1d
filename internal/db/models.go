package db

type Category struct {
	ID        int64
	Name      string
	Url       string
	FirstSeen int64
	LastSeen  int64
}

type CreatorSnapshot struct {
	ID            int64
	RunID         string
	CategoryID    int64
	Identity      string
	Name          string
	ImageUrl      string
	Tags          string
	IsFeatured    bool
	PatronCount   int64
	MonthlyAmount int64
	TotalAmount   int64
	Defaulted     int64
	ObservedAt    int64
}
