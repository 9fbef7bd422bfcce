package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempID_PrefixAndDetection(t *testing.T) {
	id := NewTempID()
	assert.True(t, IsTempID(id))
	assert.False(t, IsTempID("f1"))

	id2 := NewTempID()
	assert.NotEqual(t, id, id2)
}

func TestDecodePayload_RoundTripsEachKind(t *testing.T) {
	folder := "tmp-f"
	payloads := []OpPayload{
		UploadOp{FileID: "tmp-a", Name: "a.txt", MimeType: "text/plain", FolderID: &folder},
		CreateFolderOp{FolderID: "tmp-f", Name: "docs"},
		DeleteFileOp{FileID: "f1"},
		DeleteFolderOp{FolderID: "d1"},
		RenameFileOp{FileID: "f1", NewName: "b.txt"},
		RenameFolderOp{FolderID: "d1", NewName: "pics"},
		MoveFileOp{FileID: "f1", FolderID: nil},
		MoveFolderOp{FolderID: "d1", ParentID: &folder},
	}

	for _, p := range payloads {
		b, err := EncodePayload(p)
		require.NoError(t, err)

		got, err := DecodePayload(p.OpKind(), b)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestDecodePayload_UnknownKind(t *testing.T) {
	_, err := DecodePayload(OpKind("defragment"), []byte(`{}`))
	require.Error(t, err)
}

func TestRewritePayloadID_SubstitutesPrimaryAndParentRefs(t *testing.T) {
	temp := "tmp-1"

	up := UploadOp{FileID: "tmp-file", FolderID: &temp}
	got, changed := RewritePayloadID(up, temp, "S1")
	require.True(t, changed)
	assert.Equal(t, "S1", *got.(UploadOp).FolderID)
	assert.Equal(t, "tmp-file", got.(UploadOp).FileID)

	got, changed = RewritePayloadID(RenameFolderOp{FolderID: temp, NewName: "x"}, temp, "S1")
	require.True(t, changed)
	assert.Equal(t, "S1", got.(RenameFolderOp).FolderID)

	got, changed = RewritePayloadID(DeleteFileOp{FileID: "other"}, temp, "S1")
	require.False(t, changed)
	assert.Equal(t, DeleteFileOp{FileID: "other"}, got)
}
