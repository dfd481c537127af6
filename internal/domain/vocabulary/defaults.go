package vocabulary

// defaultTerms is the built-in PostgreSQL documentation vocabulary.
var defaultTerms = []Term{
	{Canonical: "PostgreSQL", Aliases: []string{"postgresql", "postgres"}},

	// concepts
	{Canonical: "Berkeley"}, {Canonical: "MVCC"}, {Canonical: "ACID"}, {Canonical: "WAL"},
	{Canonical: "VACUUM"}, {Canonical: "ANALYZE"},
	{Canonical: "primary key"}, {Canonical: "foreign key"}, {Canonical: "unique key"},
	{Canonical: "index"}, {Canonical: "constraint"}, {Canonical: "transaction"},
	{Canonical: "isolation"}, {Canonical: "concurrency"}, {Canonical: "locking"},

	// commands
	{Canonical: "createdb"}, {Canonical: "dropdb"}, {Canonical: "psql"},
	{Canonical: "pg_dump"}, {Canonical: "pg_restore"},
	{Canonical: "SELECT"}, {Canonical: "INSERT"}, {Canonical: "UPDATE"}, {Canonical: "DELETE"},
	{Canonical: "CREATE"}, {Canonical: "DROP"}, {Canonical: "ALTER"}, {Canonical: "JOIN"},
	{Canonical: "WHERE"}, {Canonical: "GROUP BY"}, {Canonical: "ORDER BY"}, {Canonical: "HAVING"},

	// types
	{Canonical: "integer"}, {Canonical: "varchar"}, {Canonical: "text"}, {Canonical: "numeric"},
	{Canonical: "boolean"}, {Canonical: "timestamp"}, {Canonical: "date"}, {Canonical: "time"},
	{Canonical: "interval"}, {Canonical: "array"}, {Canonical: "json"}, {Canonical: "jsonb"},

	// features
	{Canonical: "object-relational"}, {Canonical: "extensible"}, {Canonical: "procedural"},
	{Canonical: "triggers"}, {Canonical: "functions"}, {Canonical: "procedures"},
	{Canonical: "views"}, {Canonical: "materialized views"}, {Canonical: "partitions"},
	{Canonical: "inheritance"}, {Canonical: "rules"}, {Canonical: "sequences"},

	// standards
	{Canonical: "ISO 8601"}, {Canonical: "SQL standard"}, {Canonical: "ANSI SQL"},
	{Canonical: "SQL-92"}, {Canonical: "SQL-99"},

	{Canonical: "primary"}, {Canonical: "foreign"},
}

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	v, err := New(defaultTerms)
	if err != nil {
		panic(err)
	}
	return v
}
