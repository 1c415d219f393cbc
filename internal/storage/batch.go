package storage

// TableRows is an ordered group of rows destined for one table. Every row
// must have len(Columns) values aligned to the Columns order.
type TableRows struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// Batch is the unit of transactional commit: the ordered table groups derived
// from one chunk of records. Parent tables come before child tables so
// foreign keys resolve within the transaction.
type Batch []TableRows

// Len returns the total number of rows across all tables of the batch.
func (b Batch) Len() int {
	n := 0
	for _, tr := range b {
		n += len(tr.Rows)
	}
	return n
}

// Empty reports whether the batch holds no rows at all.
func (b Batch) Empty() bool { return b.Len() == 0 }
