// Package edge defines relationship cardinalities between tables.
//
// A relationship whose column is "id" is a reverse relationship: the
// referenced table holds the foreign key that points back at the
// declaring table.
//
//	{"column": "author_id", "references_table": "users", "relationship_type": "many_to_one"}
//	{"column": "id", "references_table": "comments", "relationship_type": "one_to_many"}
//	{"column": "id", "references_table": "post_tags", "relationship_type": "many_to_many"}
//
// For many_to_many relationships the referenced table is the junction
// ("through") table.
package edge
