package view

// Source is the external collaborator the engine defers to for everything
// about a row except its position: the primary key-value store providing
// rowid<->key lookup and the (out of scope, caller-serialized) object and
// metadata for a rowid. Implementations live outside this package; see
// github.com/leftmike/orderedview/primary for an in-memory one used by
// tests and the CLI demo.
type Source interface {
	// KeyForRowid returns the opaque key for rowid, or ok=false if rowid no
	// longer exists in the primary store.
	KeyForRowid(rowid Rowid) (key string, ok bool, err error)

	// RowidForKey is the inverse of KeyForRowid.
	RowidForKey(key string) (rowid Rowid, ok bool, err error)

	// ObjectForRowid returns the deserialized object for rowid. Only
	// called when a predicate's arity is WithObject or WithRow.
	ObjectForRowid(rowid Rowid) (object interface{}, err error)

	// MetadataForRowid returns the metadata for rowid. Only called when a
	// predicate's arity is WithMetadata or WithRow.
	MetadataForRowid(rowid Rowid) (metadata interface{}, err error)
}

// fetch resolves whichever of object/metadata the arity requires, leaving
// the other nil so sorting/grouping/finding predicates that ignore an
// input never pay to deserialize it.
func fetch(src Source, arity Arity, rowid Rowid) (key string, object, metadata interface{}, err error) {
	key, ok, err := src.KeyForRowid(rowid)
	if err != nil {
		return "", nil, nil, err
	}
	if !ok {
		return "", nil, nil, &InvariantError{Reason: "no key for rowid"}
	}

	switch arity {
	case WithObject:
		object, err = src.ObjectForRowid(rowid)
	case WithMetadata:
		metadata, err = src.MetadataForRowid(rowid)
	case WithRow:
		object, err = src.ObjectForRowid(rowid)
		if err == nil {
			metadata, err = src.MetadataForRowid(rowid)
		}
	}
	if err != nil {
		return "", nil, nil, err
	}
	return key, object, metadata, nil
}
