package view

// Arity tags which inputs a predicate needs, letting the engine skip
// deserializing the object or metadata for a rowid when the predicate does
// not use them (most valuable during repopulation, where every rowid in
// the primary store is re-evaluated).
type Arity int

const (
	// WithKey predicates only need the row's key.
	WithKey Arity = iota
	// WithObject predicates need the key and the deserialized object.
	WithObject
	// WithMetadata predicates need the key and the row's metadata.
	WithMetadata
	// WithRow predicates need the key, object, and metadata.
	WithRow
)

// Ordering is the three-valued result of a sort or find comparison.
type Ordering int

const (
	Ascending Ordering = iota - 1
	Equal
	Descending
)

// NoGroup is returned by a GroupingPredicate to exclude a row from the view.
const NoGroup = ""

// GroupingPredicate partitions rows into groups. It must be pure and
// deterministic for a given (key, object, metadata) input; returning
// NoGroup excludes the row.
type GroupingPredicate struct {
	Arity Arity
	Fn    func(key string, object, metadata interface{}) string
}

// Group evaluates the predicate on the given inputs; the caller fetches only
// the inputs the predicate's arity needs.
func (p GroupingPredicate) Group(key string, object, metadata interface{}) string {
	return p.Fn(key, object, metadata)
}

// SortingPredicate orders two rows within the same group.
type SortingPredicate struct {
	Arity Arity
	Fn    func(group string, aKey string, aObject, aMetadata interface{}, bKey string, bObject, bMetadata interface{}) Ordering
}

func (p SortingPredicate) Compare(group string, aKey string, aObject, aMetadata interface{}, bKey string, bObject, bMetadata interface{}) Ordering {
	return p.Fn(group, aKey, aObject, aMetadata, bKey, bObject, bMetadata)
}

// FindPredicate compares a row against an implicit target range for
// findRangeInGroup: Ascending means the row sorts before the range,
// Descending means after, Equal means inside it.
type FindPredicate struct {
	Arity Arity
	Fn    func(group string, key string, object, metadata interface{}) Ordering
}

func (p FindPredicate) Compare(group, key string, object, metadata interface{}) Ordering {
	return p.Fn(group, key, object, metadata)
}
