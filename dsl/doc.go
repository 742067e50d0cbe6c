// Package dsl builds docskema schema trees.
//
// Overview
//   - Builder API: Object().Field(name, schema).Required() ... Build()/MustBuild().
//   - Scalars: String()/Enum()/Int()/Float()/Bool()/Time()/Timestamp()/Ref().
//   - Arrays: Array(elem).Min(n).Max(n). Arrays of objects with identity are
//     reconciled element by element on update; other arrays are written whole.
//   - Rules: scalar Rule("len(value) <= 140") expressions, compiled once at build.
//   - YAML: LoadYAML/LoadYAMLFile read the same tree from a schema document.
//
// Example
//
//	post := dsl.Object().
//		Field("title", dsl.String().MaxLen(140)).Required().
//		Field("status", dsl.Enum("draft", "published")).Default("draft").
//		Field("created", dsl.Time().AutoNowAdd()).
//		Field("comments", dsl.Array(dsl.Object().
//			Field("body", dsl.String()).Required(),
//		)).
//		MustBuild()
//
// Objects carry an "_id" identity field unless NoID() or IDField(name) is
// used. Fields are optional unless Required(); Default wins over Nullable for
// an absent field.
package dsl
