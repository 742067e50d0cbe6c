// Package docskema maps partially-filled, tree-shaped payloads onto a document
// store's partial-update protocol:
//
// - A Schema Tree (Node) describes a document: scalar, object and array fields
// - Validate walks an instance alongside the schema and produces a Payload where
//   every node carries an Intent (dotted path, Create/Replace/Edit, identity)
// - FilterPartial drops fields the caller never sent, so partial updates never
//   overwrite stored values with defaults or nulls
// - Plan turns a Payload into the minimal ordered list of store Operations
//   (InsertOne, UpdateSet, PushArray, BulkReconcileArray)
// - Saver runs walk -> filter -> uniqueness -> plan -> execute against a Store
//
// Design policy:
// - Keep only public APIs in the root package; put store drivers under store/,
//   the schema builder under dsl/, codecs under codec/ and the CLI under cmd/docskema.
// - Operations of one save run sequentially in planner order. A failing store call
//   stops the batch; operations already issued stay committed.
//
// Typical usage:
//
//  post := dsl.Object().
//      Field("title", dsl.String()).Required().
//      Field("comments", dsl.Array(dsl.Object().Field("body", dsl.String()))).
//      MustBuild()
//  sv := docskema.NewSaver(post, memstore.New("_id", nil), nil)
//  res, err := sv.Save(ctx, map[string]any{"title": "t1"}, docskema.NilID, docskema.SaveOpt{})
//
package docskema
