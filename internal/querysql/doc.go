// Package querysql translates pipelines into parameterized SQLite queries.
//
// The sqlite translator turns each step into a Fragment. Compile then
// stacks the fragments: the domain step selects from its table and every
// later step wraps the query built so far as a subquery.
//
//	domain sales            SELECT * FROM "sales"
//	filter Region = Europe  SELECT * FROM (...) AS s1 WHERE "Region" = ?
//	select Region, Value    SELECT "Region", "Value" FROM (...) AS s2
//
// Statements are assembled with squirrel. Values are always bound as
// parameters and never interpolated into the SQL text. Identifiers are
// double-quoted.
//
// Supported steps: domain, filter (every operator), select, aggregate.
// rename, delete, newcolumn and custom need the source schema or a Mongo
// expression and are reported as unsupported.
package querysql
