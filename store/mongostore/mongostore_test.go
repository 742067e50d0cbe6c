package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	docskema "github.com/reoring/docskema"
)

func TestFilterDoc(t *testing.T) {
	root, c1 := docskema.NewID(), docskema.NewID()
	assert.Equal(t, bson.M{"_id": root}, FilterDoc(docskema.Filter{Field: "_id", ID: root}))

	elem := &docskema.ElemFilter{Array: "comments", Field: "_id", ID: c1}
	assert.Equal(t,
		bson.M{"_id": root, "comments._id": c1},
		FilterDoc(docskema.Filter{Field: "_id", ID: root, Elem: elem}))

	elem.Absent = true
	assert.Equal(t,
		bson.M{"_id": root, "comments._id": bson.M{"$ne": c1}},
		FilterDoc(docskema.Filter{Field: "_id", ID: root, Elem: elem}))
}

func TestUpdateDoc(t *testing.T) {
	assert.Equal(t, bson.M{}, UpdateDoc(docskema.Update{}))
	got := UpdateDoc(docskema.Update{
		Set:  map[string]any{"comments.$.body": "x"},
		Push: map[string][]any{"comments.$.replies": {"r1", "r2"}},
	})
	want := bson.M{
		"$set":  bson.M{"comments.$.body": "x"},
		"$push": bson.M{"comments.$.replies": bson.M{"$each": []any{"r1", "r2"}}},
	}
	assert.Equal(t, want, got)
}

func TestWriteModels(t *testing.T) {
	root := docskema.NewID()
	f := docskema.Filter{Field: "_id", ID: root}
	doc := docskema.Document{"_id": docskema.NewID()}
	out := WriteModels([]docskema.WriteModel{
		{Insert: doc},
		{Filter: f},
		{Filter: f, Update: docskema.Update{Set: map[string]any{"a": 1}}},
	})
	require.Len(t, out, 2, "empty updates are dropped")

	ins, ok := out[0].(*mongo.InsertOneModel)
	require.True(t, ok)
	assert.Equal(t, doc, ins.Document)

	up, ok := out[1].(*mongo.UpdateOneModel)
	require.True(t, ok)
	assert.Equal(t, bson.M{"_id": root}, up.Filter)
	assert.Equal(t, bson.M{"$set": bson.M{"a": 1}}, up.Update)
}

func TestPlain(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	id := primitive.NewObjectID()
	in := bson.M{
		"_id":  id,
		"at":   primitive.NewDateTimeFromTime(at),
		"list": primitive.A{bson.M{"k": "v"}, bson.D{{Key: "d", Value: int32(1)}}},
	}
	want := map[string]any{
		"_id":  id,
		"at":   at,
		"list": []any{map[string]any{"k": "v"}, map[string]any{"d": int32(1)}},
	}
	assert.Equal(t, want, Plain(in))
}
